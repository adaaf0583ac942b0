package eventstore

import "encoding/json"

// Snapshot is the state of a stream as of Revision. Replaying events with a
// stream revision greater than or equal to Revision on top of Data yields the
// current state.
type Snapshot struct {
    ID       string
    StreamID string
    Revision int64
    Data     json.RawMessage
}
