package dispatch

import (
    "encoding/json"
    "time"

    "github.com/walletera/eventstore-tables/internal/domain/eventstore"

    "github.com/walletera/eventskit/events"
)

const (
    HeaderEventType     = "type"
    HeaderCorrelationID = "correlationId"

    defaultEventType = "event"
    contentType      = "application/json"
)

// Message is the published form of a stored event.
type Message struct {
    event  eventstore.Event
    fields map[string]any
}

var _ events.EventData = Message{}

// NewMessage reads the routing fields from the event header when it is a JSON
// object. Any other header is published as is and carries no fields.
func NewMessage(event eventstore.Event) Message {
    var fields map[string]any
    if len(event.Header) > 0 {
        if err := json.Unmarshal(event.Header, &fields); err != nil {
            fields = nil
        }
    }
    return Message{event: event, fields: fields}
}

func (m Message) headerField(key string) string {
    value, _ := m.fields[key].(string)
    return value
}

func (m Message) ID() string {
    return m.event.CommitID
}

// Type is taken from the event header and falls back to a generic type.
func (m Message) Type() string {
    if eventType := m.headerField(HeaderEventType); eventType != "" {
        return eventType
    }
    return defaultEventType
}

func (m Message) AggregateVersion() uint64 {
    return uint64(m.event.StreamRevision)
}

func (m Message) CorrelationID() string {
    return m.headerField(HeaderCorrelationID)
}

func (m Message) DataContentType() string {
    return contentType
}

func (m Message) CreatedAt() time.Time {
    if m.event.CommitStamp == nil {
        return time.Time{}
    }
    return *m.event.CommitStamp
}

type messageEnvelope struct {
    ID               string            `json:"id"`
    Type             string            `json:"type"`
    StreamID         string            `json:"streamId"`
    AggregateVersion uint64            `json:"aggregateVersion"`
    CommitSequence   int64             `json:"commitSequence"`
    CorrelationID    string            `json:"correlationId,omitempty"`
    CreatedAt        *time.Time        `json:"createdAt,omitempty"`
    Header           json.RawMessage   `json:"header,omitempty"`
    Data             json.RawMessage   `json:"data"`
}

func (m Message) Serialize() ([]byte, error) {
    data := m.event.Payload
    if len(data) == 0 {
        data = json.RawMessage("null")
    }
    return json.Marshal(messageEnvelope{
        ID:               m.ID(),
        Type:             m.Type(),
        StreamID:         m.event.StreamID,
        AggregateVersion: m.AggregateVersion(),
        CommitSequence:   m.event.CommitSequence,
        CorrelationID:    m.CorrelationID(),
        CreatedAt:        m.event.CommitStamp,
        Header:           m.event.Header,
        Data:             data,
    })
}
