// Package memtable is an in-process partitioned table store. Rows are kept
// BSON-encoded, the same way the MongoDB adapter stores them, so column types
// behave identically in queries.
package memtable

import (
    "context"
    "errors"
    "fmt"
    "sync"

    "github.com/walletera/eventstore-tables/internal/domain/tables"

    "go.mongodb.org/mongo-driver/v2/bson"
)

var ErrTableNotFound = errors.New("table not found")

type Service struct {
    mu     sync.RWMutex
    tables map[string]map[tables.Key]bson.Raw
}

var _ tables.Service = (*Service)(nil)

func NewService() *Service {
    return &Service{tables: make(map[string]map[tables.Key]bson.Raw)}
}

func (s *Service) EnsureTable(ctx context.Context, name string) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    if name == "" {
        return errors.New("table name is required")
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.tables[name]; !ok {
        s.tables[name] = make(map[tables.Key]bson.Raw)
    }
    return nil
}

func (s *Service) Table(name string) tables.Table {
    return &Table{service: s, name: name}
}

// Len returns the number of rows in a table, or zero if it does not exist.
func (s *Service) Len(name string) int {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return len(s.tables[name])
}

// rows must be called with s.mu held.
func (s *Service) rows(name string) (map[tables.Key]bson.Raw, error) {
    rows, ok := s.tables[name]
    if !ok {
        return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
    }
    return rows, nil
}
