package dispatch

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
    PollsTotal           prometheus.Counter
    DispatchedTotal      prometheus.Counter
    PublishFailuresTotal *prometheus.CounterVec
    MarkFailuresTotal    prometheus.Counter
    Pending              prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
    m := &Metrics{
        PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
            Name: "eventstore_dispatch_polls_total",
            Help: "Total number of dispatch passes.",
        }),
        DispatchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
            Name: "eventstore_dispatch_dispatched_total",
            Help: "Total number of events published and marked dispatched.",
        }),
        PublishFailuresTotal: prometheus.NewCounterVec(
            prometheus.CounterOpts{
                Name: "eventstore_dispatch_publish_failures_total",
                Help: "Total number of failed publish attempts.",
            },
            []string{"retryable"},
        ),
        MarkFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
            Name: "eventstore_dispatch_mark_failures_total",
            Help: "Total number of published events that could not be marked dispatched.",
        }),
        Pending: prometheus.NewGauge(prometheus.GaugeOpts{
            Name: "eventstore_dispatch_pending",
            Help: "Undispatched events left after the last pass.",
        }),
    }
    reg.MustRegister(
        m.PollsTotal,
        m.DispatchedTotal,
        m.PublishFailuresTotal,
        m.MarkFailuresTotal,
        m.Pending,
    )
    return m
}
