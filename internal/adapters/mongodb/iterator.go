package mongodb

import (
    "context"

    "github.com/walletera/eventstore-tables/internal/domain/tables"

    "go.mongodb.org/mongo-driver/v2/mongo"
)

type Iterator struct {
    cursor *mongo.Cursor
}

var _ tables.Iterator = (*Iterator)(nil)

func (m *Iterator) Next(ctx context.Context) bool {
    return m.cursor.Next(ctx)
}

func (m *Iterator) Decode(into any) error {
    return m.cursor.Decode(into)
}

func (m *Iterator) Err() error {
    return m.cursor.Err()
}

func (m *Iterator) Close(ctx context.Context) error {
    return m.cursor.Close(ctx)
}
