package mongodb

import (
    "context"
    "errors"
    "fmt"

    "github.com/walletera/eventstore-tables/internal/domain/tables"

    "go.mongodb.org/mongo-driver/v2/bson"
    "go.mongodb.org/mongo-driver/v2/mongo"
)

const namespaceExistsErrorCode = 48

// Service maps tables to collections of one database.
type Service struct {
    client *mongo.Client
    dbName string
}

var _ tables.Service = (*Service)(nil)

func NewService(client *mongo.Client, dbName string) *Service {
    return &Service{client: client, dbName: dbName}
}

func (s *Service) EnsureTable(ctx context.Context, name string) error {
    db := s.client.Database(s.dbName)
    names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
    if err != nil {
        return fmt.Errorf("failed listing collections: %w", err)
    }
    if len(names) > 0 {
        return nil
    }
    err = db.CreateCollection(ctx, name)
    if err != nil && !isNamespaceExists(err) {
        return fmt.Errorf("failed creating collection %s: %w", name, err)
    }
    return nil
}

func (s *Service) Table(name string) tables.Table {
    return &Table{
        client: s.client,
        coll:   s.client.Database(s.dbName).Collection(name),
    }
}

func isNamespaceExists(err error) bool {
    var cmdErr mongo.CommandError
    return errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsErrorCode
}
