package eventstore

import (
    "cmp"
    "context"
    "errors"
    "fmt"
    "slices"

    "github.com/walletera/eventstore-tables/internal/domain/tables"
    "github.com/walletera/eventstore-tables/pkg/logattr"
    "github.com/walletera/eventstore-tables/pkg/optional"

    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/trace"
)

const ColumnCommitID = "commitId"

// PayloadMatch selects events by fields of their payload.
type PayloadMatch map[string]any

// Append commits events as one atomic batch. All events must belong to the
// same stream. Appended events are always stored undispatched.
//
// When a commit id already exists the whole batch fails and the returned
// error matches both ErrBatchWrite and ErrConflict; nothing is written.
func (s *Store) Append(ctx context.Context, events []Event) (err error) {
    const op = "append"
    if len(events) == 0 {
        return nil
    }

    streamID := events[0].StreamID
    ctx, span := s.startSpan(ctx, op)
    span.SetAttributes(
        attribute.String("eventstore.stream_id", streamID),
        attribute.Int("eventstore.events", len(events)),
    )
    defer func() { endSpan(span, err) }()

    records := make([]tables.Record, 0, len(events))
    for _, event := range events {
        if event.StreamID != streamID {
            return newError(op, ErrInvalidArgument, fmt.Errorf("batch spans streams %q and %q", streamID, event.StreamID))
        }
        event.Dispatched = false
        record, encodeErr := EncodeEvent(event)
        if encodeErr != nil {
            return newError(op, encodeErrorKind(encodeErr), encodeErr)
        }
        records = append(records, record)
    }

    if err := s.events.SubmitBatch(ctx, records); err != nil {
        s.logger.Error(
            "failed appending events",
            logattr.Error(err.Error()),
            logattr.TableName(s.events.Name()),
            logattr.StreamId(streamID),
            logattr.Count(len(records)),
        )
        return newError(op, ErrBatchWrite, err)
    }

    s.logger.Debug(
        "events appended",
        logattr.StreamId(streamID),
        logattr.Count(len(records)),
    )
    return nil
}

// GetEvents returns the events of a stream with minRevision <= revision and,
// when maxRevision is set, revision < maxRevision, sorted by revision.
//
// Rows that cannot be decoded do not abort the read: the decodable events
// are returned together with an error matching ErrCodec.
func (s *Store) GetEvents(ctx context.Context, streamID string, minRevision int64, maxRevision optional.Optional[int64]) (events []Event, err error) {
    const op = "getEvents"
    ctx, span := s.startSpan(ctx, op)
    span.SetAttributes(
        attribute.String("eventstore.stream_id", streamID),
        attribute.Int64("eventstore.min_revision", minRevision),
    )
    defer func() { endSpan(span, err) }()

    filter := tables.InPartition(streamID).And(ColumnStreamRevision, tables.Ge, minRevision)
    if upper, ok := maxRevision.Get(); ok {
        span.SetAttributes(attribute.Int64("eventstore.max_revision", upper))
        filter = filter.And(ColumnStreamRevision, tables.Lt, upper)
    }

    events, err = s.queryEvents(ctx, op, filter)
    sortByRevision(events)
    return events, err
}

// GetEventRange is not supported by this store.
func (s *Store) GetEventRange(ctx context.Context, match PayloadMatch, amount int) ([]Event, error) {
    _, span := s.startSpan(ctx, "getEventRange")
    err := newError("getEventRange", ErrNotImplemented, nil)
    endSpan(span, err)
    return nil, err
}

// GetUndispatchedEvents scans every stream for events not yet dispatched.
// The result is sorted by stream and revision.
func (s *Store) GetUndispatchedEvents(ctx context.Context) (events []Event, err error) {
    const op = "getUndispatchedEvents"
    ctx, span := s.startSpan(ctx, op)
    defer func() { endSpan(span, err) }()

    filter := tables.AllPartitions().And(ColumnDispatched, tables.Eq, false)
    events, err = s.queryEvents(ctx, op, filter)
    slices.SortStableFunc(events, func(a, b Event) int {
        return cmp.Or(
            cmp.Compare(a.StreamID, b.StreamID),
            compareRevision(a, b),
        )
    })
    span.SetAttributes(attribute.Int("eventstore.events", len(events)))
    return events, err
}

// SetDispatched marks the referenced event dispatched. Marking an event that
// is already dispatched succeeds without writing.
func (s *Store) SetDispatched(ctx context.Context, ref EventRef) (err error) {
    const op = "setDispatched"
    ctx, span := s.startSpan(ctx, op, trace.WithAttributes(
        attribute.String("eventstore.stream_id", ref.StreamID),
        attribute.String("eventstore.commit_id", ref.CommitID),
    ))
    defer func() { endSpan(span, err) }()

    if ref.StreamID == "" || ref.CommitID == "" {
        return newError(op, ErrInvalidArgument, errors.New("event reference requires stream id and commit id"))
    }

    filter := tables.InPartition(ref.StreamID).And(ColumnCommitID, tables.Eq, ref.CommitID)
    events, err := s.queryEvents(ctx, op, filter)
    if err != nil {
        return err
    }
    if len(events) == 0 {
        return newError(op, ErrNotFound, fmt.Errorf("event %s/%s", ref.StreamID, ref.CommitID))
    }

    event := events[0]
    if event.Dispatched {
        s.logger.Debug(
            "event already dispatched",
            logattr.StreamId(ref.StreamID),
            logattr.CommitId(ref.CommitID),
        )
        return nil
    }

    event.Dispatched = true
    record, err := EncodeEvent(event)
    if err != nil {
        return newError(op, encodeErrorKind(err), err)
    }
    if err := s.events.Update(ctx, record); err != nil {
        kind := ErrQuery
        if errors.Is(err, tables.ErrNotFound) {
            kind = ErrNotFound
        }
        return newError(op, kind, err)
    }

    s.logger.Debug(
        "event marked dispatched",
        logattr.StreamId(ref.StreamID),
        logattr.CommitId(ref.CommitID),
    )
    return nil
}

func (s *Store) queryEvents(ctx context.Context, op string, filter tables.Filter) ([]Event, error) {
    it, err := s.events.Query(ctx, filter)
    if err != nil {
        return nil, newError(op, ErrQuery, err)
    }
    defer func() {
        if closeErr := it.Close(ctx); closeErr != nil {
            s.logger.Warn("failed closing iterator", logattr.Error(closeErr.Error()))
        }
    }()

    events, rowErrs, err := collect(ctx, it, DecodeEvent)
    if err != nil {
        return nil, newError(op, ErrQuery, err)
    }
    if len(rowErrs) > 0 {
        s.logger.Error(
            "failed decoding events",
            logattr.Error(errors.Join(rowErrs...).Error()),
            logattr.Count(len(rowErrs)),
        )
        return events, newError(op, ErrCodec, errors.Join(rowErrs...))
    }
    return events, nil
}

func sortByRevision(events []Event) {
    slices.SortStableFunc(events, compareRevision)
}

func compareRevision(a, b Event) int {
    return cmp.Or(
        cmp.Compare(a.StreamRevision, b.StreamRevision),
        cmp.Compare(a.CommitSequence, b.CommitSequence),
        cmp.Compare(a.CommitID, b.CommitID),
    )
}

func encodeErrorKind(err error) error {
    if errors.Is(err, ErrInvalidArgument) {
        return ErrInvalidArgument
    }
    return ErrCodec
}
