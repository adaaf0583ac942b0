// Package tables describes the partitioned table store the event store is
// built on. Rows are addressed by a partition key and a row key; a batch
// write touches a single partition and commits atomically.
package tables

import (
    "context"
    "errors"
)

var (
    // ErrConflict is returned when a row with the same key already exists.
    ErrConflict = errors.New("conflict")
    // ErrNotFound is returned when updating a row that does not exist.
    ErrNotFound = errors.New("not found")
    // ErrMixedPartitions is returned when a batch spans more than one partition.
    ErrMixedPartitions = errors.New("batch spans more than one partition")
    // ErrInvalidFilter is returned for filters a table cannot evaluate.
    ErrInvalidFilter = errors.New("invalid filter")
)

type Key struct {
    PartitionKey string `bson:"partitionKey"`
    RowKey       string `bson:"rowKey"`
}

// Record is a typed row. Implementations are plain structs with bson tags;
// the key is stored under the "_id" field.
type Record interface {
    TableKey() Key
}

type Iterator interface {
    Next(ctx context.Context) bool
    // Decode decodes the current row into a pointer to a record struct.
    Decode(into any) error
    Err() error
    Close(ctx context.Context) error
}

type Table interface {
    Name() string
    // SubmitBatch inserts all records atomically. Records must share a
    // partition key.
    SubmitBatch(ctx context.Context, records []Record) error
    Insert(ctx context.Context, record Record) error
    // Update replaces an existing row.
    Update(ctx context.Context, record Record) error
    Query(ctx context.Context, filter Filter) (Iterator, error)
}

type Service interface {
    // EnsureTable creates the table if it does not exist yet.
    EnsureTable(ctx context.Context, name string) error
    Table(name string) Table
}

// SinglePartition returns the partition shared by every record.
func SinglePartition(records []Record) (string, error) {
    if len(records) == 0 {
        return "", nil
    }
    partition := records[0].TableKey().PartitionKey
    for _, record := range records[1:] {
        if record.TableKey().PartitionKey != partition {
            return "", ErrMixedPartitions
        }
    }
    return partition, nil
}
