package dispatch

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

const (
    DefaultPollInterval = time.Second
    DefaultTopic        = "eventstore.events"
)

type Option func(r *Relay)

func WithPollInterval(interval time.Duration) Option {
    return func(r *Relay) { r.pollInterval = interval }
}

// WithTopic sets the exchange events are published to.
func WithTopic(topic string) Option {
    return func(r *Relay) { r.topic = topic }
}

func WithMetricsRegisterer(reg prometheus.Registerer) Option {
    return func(r *Relay) { r.registerer = reg }
}
