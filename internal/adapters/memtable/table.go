package memtable

import (
    "cmp"
    "context"
    "fmt"
    "slices"
    "time"

    "github.com/walletera/eventstore-tables/internal/domain/tables"

    "go.mongodb.org/mongo-driver/v2/bson"
)

type Table struct {
    service *Service
    name    string
}

var _ tables.Table = (*Table)(nil)

func (t *Table) Name() string {
    return t.name
}

func (t *Table) SubmitBatch(ctx context.Context, records []tables.Record) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    if len(records) == 0 {
        return nil
    }
    if _, err := tables.SinglePartition(records); err != nil {
        return err
    }
    encoded, err := encodeAll(records)
    if err != nil {
        return err
    }

    t.service.mu.Lock()
    defer t.service.mu.Unlock()
    rows, err := t.service.rows(t.name)
    if err != nil {
        return err
    }
    seen := make(map[tables.Key]struct{}, len(records))
    for _, record := range records {
        key := record.TableKey()
        _, inBatch := seen[key]
        _, stored := rows[key]
        if inBatch || stored {
            return fmt.Errorf("%w: %s/%s in table %s", tables.ErrConflict, key.PartitionKey, key.RowKey, t.name)
        }
        seen[key] = struct{}{}
    }
    for i, record := range records {
        rows[record.TableKey()] = encoded[i]
    }
    return nil
}

func (t *Table) Insert(ctx context.Context, record tables.Record) error {
    return t.SubmitBatch(ctx, []tables.Record{record})
}

func (t *Table) Update(ctx context.Context, record tables.Record) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    encoded, err := bson.Marshal(record)
    if err != nil {
        return fmt.Errorf("encoding record: %w", err)
    }

    t.service.mu.Lock()
    defer t.service.mu.Unlock()
    rows, err := t.service.rows(t.name)
    if err != nil {
        return err
    }
    key := record.TableKey()
    if _, ok := rows[key]; !ok {
        return fmt.Errorf("%w: %s/%s in table %s", tables.ErrNotFound, key.PartitionKey, key.RowKey, t.name)
    }
    rows[key] = encoded
    return nil
}

// Query returns matching rows ordered by partition key, then row key.
func (t *Table) Query(ctx context.Context, filter tables.Filter) (tables.Iterator, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    if err := filter.Validate(); err != nil {
        return nil, err
    }

    t.service.mu.RLock()
    defer t.service.mu.RUnlock()
    rows, err := t.service.rows(t.name)
    if err != nil {
        return nil, err
    }

    keys := make([]tables.Key, 0, len(rows))
    for key := range rows {
        if pk, ok := filter.PartitionKey.Get(); ok && key.PartitionKey != pk {
            continue
        }
        keys = append(keys, key)
    }
    slices.SortFunc(keys, func(a, b tables.Key) int {
        return cmp.Or(
            cmp.Compare(a.PartitionKey, b.PartitionKey),
            cmp.Compare(a.RowKey, b.RowKey),
        )
    })

    var matched []bson.Raw
    for _, key := range keys {
        ok, err := matches(rows[key], filter.Conditions)
        if err != nil {
            return nil, err
        }
        if ok {
            matched = append(matched, rows[key])
        }
    }
    return &Iterator{rows: matched, pos: -1}, nil
}

func encodeAll(records []tables.Record) ([]bson.Raw, error) {
    encoded := make([]bson.Raw, 0, len(records))
    for _, record := range records {
        b, err := bson.Marshal(record)
        if err != nil {
            return nil, fmt.Errorf("encoding record: %w", err)
        }
        encoded = append(encoded, b)
    }
    return encoded, nil
}

func matches(row bson.Raw, conditions []tables.Condition) (bool, error) {
    for _, c := range conditions {
        actual, present := columnValue(row, c.Column)
        ok, err := c.Matches(actual, present)
        if err != nil || !ok {
            return false, err
        }
    }
    return true, nil
}

func columnValue(row bson.Raw, column string) (any, bool) {
    value, err := row.LookupErr(column)
    if err != nil {
        return nil, false
    }
    switch value.Type {
    case bson.TypeString:
        v, ok := value.StringValueOK()
        return v, ok
    case bson.TypeInt64:
        v, ok := value.Int64OK()
        return v, ok
    case bson.TypeInt32:
        v, ok := value.Int32OK()
        return int64(v), ok
    case bson.TypeBoolean:
        v, ok := value.BooleanOK()
        return v, ok
    case bson.TypeDateTime:
        ms, ok := value.DateTimeOK()
        return time.UnixMilli(ms).UTC(), ok
    }
    return nil, false
}

type Iterator struct {
    rows []bson.Raw
    pos  int
    err  error
}

var _ tables.Iterator = (*Iterator)(nil)

func (it *Iterator) Next(ctx context.Context) bool {
    if err := ctx.Err(); err != nil {
        it.err = err
        it.pos = len(it.rows)
        return false
    }
    if it.pos+1 >= len(it.rows) {
        it.pos = len(it.rows)
        return false
    }
    it.pos++
    return true
}

func (it *Iterator) Decode(into any) error {
    if it.pos < 0 || it.pos >= len(it.rows) {
        return fmt.Errorf("iterator is not positioned on a row")
    }
    return bson.Unmarshal(it.rows[it.pos], into)
}

func (it *Iterator) Err() error {
    return it.err
}

func (it *Iterator) Close(context.Context) error {
    it.rows = nil
    return nil
}
