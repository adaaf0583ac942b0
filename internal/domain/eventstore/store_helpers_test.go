package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/walletera/eventstore-tables/internal/adapters/memtable"
	"github.com/walletera/eventstore-tables/internal/domain/tables"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *memtable.Service) {
	t.Helper()
	service := memtable.NewService()
	store, err := Connect(context.Background(), service, DefaultConfig(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return store, service
}

func newEvent(streamID string, revision int64) Event {
	return Event{
		StreamID:       streamID,
		StreamRevision: revision,
		CommitID:       fmt.Sprintf("%s-commit-%03d", streamID, revision),
		CommitSequence: revision,
		Payload:        json.RawMessage(fmt.Sprintf(`{"revision":%d}`, revision)),
	}
}

func newEvents(streamID string, from, to int64) []Event {
	var events []Event
	for revision := from; revision < to; revision++ {
		events = append(events, newEvent(streamID, revision))
	}
	return events
}

func revisions(events []Event) []int64 {
	out := make([]int64, 0, len(events))
	for _, event := range events {
		out = append(out, event.StreamRevision)
	}
	return out
}

// countingService counts writes reaching the backend.
type countingService struct {
	tables.Service
	writes atomic.Int64
}

func (s *countingService) Table(name string) tables.Table {
	return &countingTable{Table: s.Service.Table(name), writes: &s.writes}
}

type countingTable struct {
	tables.Table
	writes *atomic.Int64
}

func (t *countingTable) SubmitBatch(ctx context.Context, records []tables.Record) error {
	t.writes.Add(1)
	return t.Table.SubmitBatch(ctx, records)
}

func (t *countingTable) Insert(ctx context.Context, record tables.Record) error {
	t.writes.Add(1)
	return t.Table.Insert(ctx, record)
}

func (t *countingTable) Update(ctx context.Context, record tables.Record) error {
	t.writes.Add(1)
	return t.Table.Update(ctx, record)
}

// failingService fails EnsureTable for one table name.
type failingService struct {
	tables.Service
	failOn string
}

func (s failingService) EnsureTable(ctx context.Context, name string) error {
	if name == s.failOn {
		return fmt.Errorf("unauthorized")
	}
	return s.Service.EnsureTable(ctx, name)
}
