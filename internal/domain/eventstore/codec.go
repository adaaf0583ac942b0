package eventstore

import (
    "bytes"
    "encoding/json"
    "fmt"
    "time"

    "github.com/walletera/eventstore-tables/internal/domain/tables"
)

var jsonNull = []byte("null")

func EncodeEvent(event Event) (EventRecord, error) {
    if event.StreamID == "" || event.CommitID == "" {
        return EventRecord{}, fmt.Errorf("%w: event requires stream id and commit id", ErrInvalidArgument)
    }
    if event.StreamRevision < 0 {
        return EventRecord{}, fmt.Errorf("%w: negative stream revision %d", ErrInvalidArgument, event.StreamRevision)
    }
    payload, err := encodeJSON(event.Payload)
    if err != nil {
        return EventRecord{}, fmt.Errorf("encoding payload of commit %s: %w", event.CommitID, err)
    }
    header, err := encodeNullableJSON(event.Header)
    if err != nil {
        return EventRecord{}, fmt.Errorf("encoding header of commit %s: %w", event.CommitID, err)
    }
    return EventRecord{
        Key: tables.Key{
            PartitionKey: event.StreamID,
            RowKey:       event.CommitID,
        },
        StreamID:       event.StreamID,
        StreamRevision: event.StreamRevision,
        CommitID:       event.CommitID,
        CommitSequence: event.CommitSequence,
        CommitStamp:    normalizeStamp(event.CommitStamp),
        Header:         header,
        Dispatched:     event.Dispatched,
        Payload:        payload,
    }, nil
}

func DecodeEvent(record EventRecord) (Event, error) {
    payload, err := decodeJSON(record.Payload)
    if err != nil {
        return Event{}, fmt.Errorf("decoding payload of commit %s: %w", record.CommitID, err)
    }
    header, err := decodeNullableJSON(record.Header)
    if err != nil {
        return Event{}, fmt.Errorf("decoding header of commit %s: %w", record.CommitID, err)
    }
    return Event{
        StreamID:       record.StreamID,
        StreamRevision: record.StreamRevision,
        CommitID:       record.CommitID,
        CommitSequence: record.CommitSequence,
        CommitStamp:    copyTime(record.CommitStamp),
        Header:         header,
        Dispatched:     record.Dispatched,
        Payload:        payload,
    }, nil
}

func EncodeSnapshot(snapshot Snapshot) (SnapshotRecord, error) {
    if snapshot.StreamID == "" || snapshot.ID == "" {
        return SnapshotRecord{}, fmt.Errorf("%w: snapshot requires stream id and id", ErrInvalidArgument)
    }
    data, err := encodeJSON(snapshot.Data)
    if err != nil {
        return SnapshotRecord{}, fmt.Errorf("encoding data of snapshot %s: %w", snapshot.ID, err)
    }
    return SnapshotRecord{
        Key: tables.Key{
            PartitionKey: snapshot.StreamID,
            RowKey:       snapshot.ID,
        },
        ID:       snapshot.ID,
        StreamID: snapshot.StreamID,
        Revision: snapshot.Revision,
        Data:     data,
    }, nil
}

func DecodeSnapshot(record SnapshotRecord) (Snapshot, error) {
    data, err := decodeJSON(record.Data)
    if err != nil {
        return Snapshot{}, fmt.Errorf("decoding data of snapshot %s: %w", record.ID, err)
    }
    return Snapshot{
        ID:       record.ID,
        StreamID: record.StreamID,
        Revision: record.Revision,
        Data:     data,
    }, nil
}

// encodeJSON stores raw JSON verbatim; an empty value is stored as null.
func encodeJSON(raw json.RawMessage) (string, error) {
    if len(raw) == 0 {
        return string(jsonNull), nil
    }
    if !json.Valid(raw) {
        return "", fmt.Errorf("%w: malformed json", ErrCodec)
    }
    return string(raw), nil
}

func decodeJSON(stored string) (json.RawMessage, error) {
    raw := []byte(stored)
    if !json.Valid(raw) {
        return nil, fmt.Errorf("%w: malformed json", ErrCodec)
    }
    if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
        return nil, nil
    }
    return json.RawMessage(raw), nil
}

// encodeNullableJSON leaves the column unset for an empty or null value.
func encodeNullableJSON(raw json.RawMessage) (*string, error) {
    if len(raw) == 0 {
        return nil, nil
    }
    stored, err := encodeJSON(raw)
    if err != nil {
        return nil, err
    }
    if bytes.Equal(bytes.TrimSpace([]byte(stored)), jsonNull) {
        return nil, nil
    }
    return &stored, nil
}

func decodeNullableJSON(stored *string) (json.RawMessage, error) {
    if stored == nil || *stored == "" {
        return nil, nil
    }
    return decodeJSON(*stored)
}

// normalizeStamp reduces t to what a datetime column holds: UTC with
// millisecond precision.
func normalizeStamp(t *time.Time) *time.Time {
    if t == nil {
        return nil
    }
    n := t.UTC().Truncate(time.Millisecond)
    return &n
}

func copyTime(t *time.Time) *time.Time {
    if t == nil {
        return nil
    }
    c := *t
    return &c
}
