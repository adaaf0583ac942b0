// Package eventstore persists event streams and snapshots in a partitioned
// table store. Events are partitioned by stream and keyed by commit id, so
// resubmitting a committed batch fails with a conflict instead of writing
// duplicates. Snapshots live in their own table, partitioned the same way.
//
// Every appended event starts undispatched. A consumer lists undispatched
// events, delivers them and marks each one dispatched; marking is
// idempotent, which gives at-least-once delivery across restarts.
package eventstore

import (
    "context"
    "fmt"
    "log/slog"

    "github.com/walletera/eventstore-tables/internal/domain/tables"
    "github.com/walletera/eventstore-tables/pkg/logattr"

    "github.com/google/uuid"
    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/codes"
    "go.opentelemetry.io/otel/trace"
    "golang.org/x/sync/errgroup"
)

const tracerName = "github.com/walletera/eventstore-tables/internal/domain/eventstore"

type Store struct {
    events    tables.Table
    snapshots tables.Table
    logger    *slog.Logger
    tracer    trace.Tracer
}

// Connect makes sure the events and snapshots tables exist and returns a
// Store bound to them. It must complete before any other operation.
func Connect(ctx context.Context, service tables.Service, cfg Config, logger *slog.Logger) (*Store, error) {
    const op = "connect"
    if err := cfg.Validate(); err != nil {
        return nil, newError(op, ErrInvalidArgument, err)
    }

    group, groupCtx := errgroup.WithContext(ctx)
    for _, name := range []string{cfg.EventsTableName, cfg.SnapshotsTableName} {
        group.Go(func() error {
            if err := service.EnsureTable(groupCtx, name); err != nil {
                return fmt.Errorf("ensuring table %s: %w", name, err)
            }
            return nil
        })
    }
    if err := group.Wait(); err != nil {
        return nil, newError(op, ErrConnection, err)
    }

    logger.Debug(
        "event store connected",
        logattr.TableName(cfg.EventsTableName),
        logattr.TableName(cfg.SnapshotsTableName),
    )

    return &Store{
        events:    service.Table(cfg.EventsTableName),
        snapshots: service.Table(cfg.SnapshotsTableName),
        logger:    logger,
        tracer:    otel.Tracer(tracerName),
    }, nil
}

// NewID returns a new globally unique id for commits and snapshots.
func (s *Store) NewID() string {
    return uuid.NewString()
}

func (s *Store) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
    return s.tracer.Start(ctx, "eventstore."+name, opts...)
}

func endSpan(span trace.Span, err error) {
    if err != nil {
        span.RecordError(err)
        span.SetStatus(codes.Error, err.Error())
    }
    span.End()
}

// collect decodes every row of it. Rows that fail to decode are reported
// as RowErrors and skipped; the error return is reserved for the iterator.
func collect[R tables.Record, T any](ctx context.Context, it tables.Iterator, decode func(R) (T, error)) ([]T, []error, error) {
    var (
        out     []T
        rowErrs []error
    )
    for it.Next(ctx) {
        var record R
        if err := it.Decode(&record); err != nil {
            rowErrs = append(rowErrs, &RowError{Key: record.TableKey(), Err: fmt.Errorf("%w: %s", ErrCodec, err.Error())})
            continue
        }
        value, err := decode(record)
        if err != nil {
            rowErrs = append(rowErrs, &RowError{Key: record.TableKey(), Err: err})
            continue
        }
        out = append(out, value)
    }
    return out, rowErrs, it.Err()
}
