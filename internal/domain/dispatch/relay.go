// Package dispatch delivers undispatched events downstream. A Relay polls
// the event store, publishes every pending event and marks it dispatched.
// An event whose publish or mark fails stays pending and is retried on the
// next pass, so consumers may see an event more than once.
package dispatch

import (
    "context"
    "errors"
    "log/slog"
    "strconv"
    "time"

    "github.com/walletera/eventstore-tables/internal/domain/eventstore"
    "github.com/walletera/eventstore-tables/pkg/logattr"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/walletera/eventskit/events"
    "github.com/walletera/werrors"
)

// EventSource is the part of the event store the relay depends on.
type EventSource interface {
    GetUndispatchedEvents(ctx context.Context) ([]eventstore.Event, error)
    SetDispatched(ctx context.Context, ref eventstore.EventRef) error
}

var _ EventSource = (*eventstore.Store)(nil)

// Report summarizes one dispatch pass.
type Report struct {
    Pending    int
    Dispatched int
    Failed     int
}

type Relay struct {
    source       EventSource
    publisher    events.Publisher
    logger       *slog.Logger
    topic        string
    pollInterval time.Duration
    registerer   prometheus.Registerer
    metrics      *Metrics
}

func NewRelay(source EventSource, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Relay {
    relay := &Relay{
        source:       source,
        publisher:    publisher,
        logger:       logger,
        topic:        DefaultTopic,
        pollInterval: DefaultPollInterval,
    }
    for _, opt := range opts {
        opt(relay)
    }
    if relay.registerer == nil {
        relay.registerer = prometheus.NewRegistry()
    }
    relay.metrics = NewMetrics(relay.registerer)
    return relay
}

// Run calls DispatchPending every poll interval until ctx is done.
func (r *Relay) Run(ctx context.Context) {
    r.logger.Info("relay started", logattr.Duration(r.pollInterval))

    ticker := time.NewTicker(r.pollInterval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            r.logger.Info("relay stopped")
            return
        case <-ticker.C:
            report, werr := r.DispatchPending(ctx)
            if werr != nil {
                r.logger.Error(
                    "dispatch pass failed",
                    logattr.Error(werr.Message()),
                    logattr.Retryable(werr.IsRetryable()),
                )
                continue
            }
            if report.Pending > 0 {
                r.logger.Info(
                    "dispatch pass finished",
                    logattr.Count(report.Pending),
                    slog.Int("dispatched", report.Dispatched),
                    slog.Int("failed", report.Failed),
                )
            }
        }
    }
}

// DispatchPending publishes every undispatched event once and marks the
// published ones dispatched. Per-event failures are counted in the report
// and do not stop the pass.
func (r *Relay) DispatchPending(ctx context.Context) (Report, werrors.WError) {
    r.metrics.PollsTotal.Inc()

    pending, err := r.source.GetUndispatchedEvents(ctx)
    if err != nil {
        if !errors.Is(err, eventstore.ErrCodec) {
            return Report{}, werrors.NewRetryableInternalError("failed loading undispatched events: %s", err.Error())
        }
        // undecodable rows cannot be published; keep going with the rest
        r.logger.Warn("skipping undecodable events", logattr.Error(err.Error()))
    }

    report := Report{Pending: len(pending)}
    for _, event := range pending {
        if ctx.Err() != nil {
            break
        }
        if r.dispatch(ctx, event) {
            report.Dispatched++
        } else {
            report.Failed++
        }
    }
    r.metrics.Pending.Set(float64(report.Pending - report.Dispatched))
    return report, nil
}

func (r *Relay) dispatch(ctx context.Context, event eventstore.Event) bool {
    message := NewMessage(event)
    routing := events.RoutingInfo{Topic: r.topic, RoutingKey: message.Type()}

    if err := r.publisher.Publish(ctx, message, routing); err != nil {
        werr := classify(err)
        r.metrics.PublishFailuresTotal.WithLabelValues(strconv.FormatBool(werr.IsRetryable())).Inc()
        r.logger.Error(
            "failed publishing event",
            logattr.Error(werr.Message()),
            logattr.Retryable(werr.IsRetryable()),
            logattr.StreamId(event.StreamID),
            logattr.CommitId(event.CommitID),
        )
        return false
    }

    if err := r.source.SetDispatched(ctx, event.Ref()); err != nil {
        r.metrics.MarkFailuresTotal.Inc()
        r.logger.Error(
            "failed marking event dispatched",
            logattr.Error(err.Error()),
            logattr.StreamId(event.StreamID),
            logattr.CommitId(event.CommitID),
        )
        return false
    }

    r.metrics.DispatchedTotal.Inc()
    r.logger.Debug(
        "event dispatched",
        logattr.StreamId(event.StreamID),
        logattr.CommitId(event.CommitID),
        logattr.Revision(event.StreamRevision),
    )
    return true
}

func classify(err error) werrors.WError {
    var werr werrors.WError
    if errors.As(err, &werr) {
        return werr
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return werrors.NewTimeoutError(err.Error())
    }
    return werrors.NewRetryableInternalError("%s", err.Error())
}
