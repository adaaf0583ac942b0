package eventstore

import (
    "time"

    "github.com/walletera/eventstore-tables/internal/domain/tables"
)

const (
    ColumnStreamRevision = "streamRevision"
    ColumnDispatched     = "dispatched"
    ColumnRevision       = "revision"
)

// EventRecord is the row stored in the events table. It is only built by
// EncodeEvent.
type EventRecord struct {
    Key            tables.Key `bson:"_id"`
    StreamID       string     `bson:"streamId"`
    StreamRevision int64      `bson:"streamRevision"`
    CommitID       string     `bson:"commitId"`
    CommitSequence int64      `bson:"commitSequence"`
    CommitStamp    *time.Time `bson:"commitStamp,omitempty"`
    Header         *string    `bson:"header,omitempty"`
    Dispatched     bool       `bson:"dispatched"`
    Payload        string     `bson:"payload"`
}

func (r EventRecord) TableKey() tables.Key {
    return r.Key
}

// SnapshotRecord is the row stored in the snapshots table. It is only built
// by EncodeSnapshot.
type SnapshotRecord struct {
    Key      tables.Key `bson:"_id"`
    ID       string     `bson:"id"`
    StreamID string     `bson:"streamId"`
    Revision int64      `bson:"revision"`
    Data     string     `bson:"data"`
}

func (r SnapshotRecord) TableKey() tables.Key {
    return r.Key
}
