package eventstore

import (
    "encoding/json"
    "time"
)

// Event is one immutable entry of a stream. Only Dispatched changes after
// the event has been committed.
type Event struct {
    StreamID       string
    StreamRevision int64
    CommitID       string
    CommitSequence int64
    // CommitStamp is stored with millisecond precision in UTC; a stored event
    // reads back with the stamp truncated and converted accordingly.
    CommitStamp *time.Time
    // Header is opaque caller metadata: any JSON value, or nil.
    Header     json.RawMessage
    Dispatched bool
    Payload    json.RawMessage
}

// Ref returns the key fields of the event.
func (e Event) Ref() EventRef {
    return EventRef{StreamID: e.StreamID, CommitID: e.CommitID}
}

// EventRef identifies a stored event.
type EventRef struct {
    StreamID string
    CommitID string
}
