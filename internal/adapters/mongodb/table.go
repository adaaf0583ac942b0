package mongodb

import (
    "context"
    "fmt"

    "github.com/walletera/eventstore-tables/internal/domain/tables"

    "go.mongodb.org/mongo-driver/v2/bson"
    "go.mongodb.org/mongo-driver/v2/mongo"
    "go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Table struct {
    client *mongo.Client
    coll   *mongo.Collection
}

var _ tables.Table = (*Table)(nil)

func (t *Table) Name() string {
    return t.coll.Name()
}

// SubmitBatch inserts the records inside a transaction, so either every
// record is stored or none is. Transactions need a replica set.
func (t *Table) SubmitBatch(ctx context.Context, records []tables.Record) error {
    if len(records) == 0 {
        return nil
    }
    if _, err := tables.SinglePartition(records); err != nil {
        return err
    }

    session, err := t.client.StartSession()
    if err != nil {
        return fmt.Errorf("failed starting session: %w", err)
    }
    defer session.EndSession(ctx)

    _, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
        return t.coll.InsertMany(ctx, records)
    })
    if err != nil {
        return translateWriteError("failed inserting batch", err)
    }
    return nil
}

func (t *Table) Insert(ctx context.Context, record tables.Record) error {
    _, err := t.coll.InsertOne(ctx, record)
    if err != nil {
        return translateWriteError("failed inserting record", err)
    }
    return nil
}

func (t *Table) Update(ctx context.Context, record tables.Record) error {
    key := record.TableKey()
    result, err := t.coll.ReplaceOne(ctx, bson.M{"_id": key}, record)
    if err != nil {
        return translateWriteError("failed replacing record", err)
    }
    if result.MatchedCount == 0 {
        return fmt.Errorf("%w: %s/%s in collection %s", tables.ErrNotFound, key.PartitionKey, key.RowKey, t.coll.Name())
    }
    return nil
}

func (t *Table) Query(ctx context.Context, filter tables.Filter) (tables.Iterator, error) {
    query, err := toBSON(filter)
    if err != nil {
        return nil, err
    }
    sort := bson.D{{"_id.partitionKey", 1}, {"_id.rowKey", 1}}
    cursor, err := t.coll.Find(ctx, query, options.Find().SetSort(sort))
    if err != nil {
        return nil, fmt.Errorf("failed finding records in %s: %w", t.coll.Name(), err)
    }
    return &Iterator{cursor: cursor}, nil
}

func translateWriteError(msg string, err error) error {
    if mongo.IsDuplicateKeyError(err) {
        return fmt.Errorf("%s: %w: %s", msg, tables.ErrConflict, err.Error())
    }
    return fmt.Errorf("%s: %w", msg, err)
}
