package eventstore

import (
    "context"
    "errors"

    "github.com/walletera/eventstore-tables/internal/domain/tables"
    "github.com/walletera/eventstore-tables/pkg/logattr"
    "github.com/walletera/eventstore-tables/pkg/optional"

    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/trace"
)

// AddSnapshot stores a snapshot. It fails with ErrConflict when a snapshot
// with the same id already exists in the stream.
func (s *Store) AddSnapshot(ctx context.Context, snapshot Snapshot) (err error) {
    const op = "addSnapshot"
    ctx, span := s.startSpan(ctx, op, trace.WithAttributes(
        attribute.String("eventstore.stream_id", snapshot.StreamID),
        attribute.String("eventstore.snapshot_id", snapshot.ID),
        attribute.Int64("eventstore.revision", snapshot.Revision),
    ))
    defer func() { endSpan(span, err) }()

    record, err := EncodeSnapshot(snapshot)
    if err != nil {
        return newError(op, encodeErrorKind(err), err)
    }

    if err := s.snapshots.Insert(ctx, record); err != nil {
        kind := ErrQuery
        if errors.Is(err, tables.ErrConflict) {
            kind = ErrConflict
        }
        s.logger.Error(
            "failed adding snapshot",
            logattr.Error(err.Error()),
            logattr.TableName(s.snapshots.Name()),
            logattr.StreamId(snapshot.StreamID),
            logattr.SnapshotId(snapshot.ID),
        )
        return newError(op, kind, err)
    }

    s.logger.Debug(
        "snapshot added",
        logattr.StreamId(snapshot.StreamID),
        logattr.SnapshotId(snapshot.ID),
        logattr.Revision(snapshot.Revision),
    )
    return nil
}

// GetSnapshot returns the snapshot with the highest revision not above
// maxRevision, or the latest one when maxRevision is not set. Snapshots with
// equal revisions are ordered by id and the greatest id wins.
func (s *Store) GetSnapshot(ctx context.Context, streamID string, maxRevision optional.Optional[int64]) (result optional.Optional[Snapshot], err error) {
    const op = "getSnapshot"
    ctx, span := s.startSpan(ctx, op, trace.WithAttributes(
        attribute.String("eventstore.stream_id", streamID),
    ))
    defer func() { endSpan(span, err) }()

    filter := tables.InPartition(streamID)
    if upper, ok := maxRevision.Get(); ok {
        span.SetAttributes(attribute.Int64("eventstore.max_revision", upper))
        filter = filter.And(ColumnRevision, tables.Le, upper)
    }

    it, err := s.snapshots.Query(ctx, filter)
    if err != nil {
        return optional.None[Snapshot](), newError(op, ErrQuery, err)
    }
    defer func() {
        if closeErr := it.Close(ctx); closeErr != nil {
            s.logger.Warn("failed closing iterator", logattr.Error(closeErr.Error()))
        }
    }()

    snapshots, rowErrs, err := collect(ctx, it, DecodeSnapshot)
    if err != nil {
        return optional.None[Snapshot](), newError(op, ErrQuery, err)
    }

    result = latestSnapshot(snapshots)
    if len(rowErrs) > 0 {
        s.logger.Error(
            "failed decoding snapshots",
            logattr.Error(errors.Join(rowErrs...).Error()),
            logattr.StreamId(streamID),
        )
        return result, newError(op, ErrCodec, errors.Join(rowErrs...))
    }
    return result, nil
}

func latestSnapshot(snapshots []Snapshot) optional.Optional[Snapshot] {
    if len(snapshots) == 0 {
        return optional.None[Snapshot]()
    }
    best := snapshots[0]
    for _, candidate := range snapshots[1:] {
        if candidate.Revision > best.Revision ||
            (candidate.Revision == best.Revision && candidate.ID > best.ID) {
            best = candidate
        }
    }
    return optional.Some(best)
}
