package app

import (
    "log/slog"
    "time"

    "github.com/walletera/eventstore-tables/internal/domain/eventstore"
    "github.com/walletera/eventstore-tables/pkg/optional"

    "github.com/walletera/eventskit/events"
)

type Option func(app *App)

// WithBackend selects the table store, BackendMongoDB or BackendMemory.
func WithBackend(backend string) func(a *App) { return func(a *App) { a.backend = backend } }

// WithStoreOptions overrides event store settings read from the environment.
func WithStoreOptions(opts ...eventstore.Option) func(a *App) {
    return func(a *App) { a.storeOpts = append(a.storeOpts, opts...) }
}

func WithRabbitmqHost(host string) func(a *App) { return func(a *App) { a.rabbitmqHost = host } }

func WithRabbitmqPort(port int) func(a *App) { return func(a *App) { a.rabbitmqPort = port } }

func WithRabbitmqUser(user string) func(a *App) { return func(a *App) { a.rabbitmqUser = user } }

func WithRabbitmqPassword(password string) func(a *App) {
    return func(a *App) { a.rabbitmqPassword = password }
}

func WithRabbitmqExchange(exchange string) func(a *App) {
    return func(a *App) { a.rabbitmqExchange = exchange }
}

// WithPublisher replaces the rabbitmq publisher the relay publishes to.
func WithPublisher(publisher events.Publisher) func(a *App) {
    return func(a *App) { a.publisher = publisher }
}

func WithDispatchPollInterval(interval time.Duration) func(a *App) {
    return func(a *App) { a.pollInterval = interval }
}

func WithMetricsConfig(config MetricsConfig) func(a *App) {
    return func(a *App) { a.metricsConfig = optional.Some(config) }
}

func WithOtelEndpoint(endpoint string) func(a *App) { return func(a *App) { a.otelEndpoint = endpoint } }

func WithLogHandler(handler slog.Handler) func(app *App) {
    return func(app *App) { app.logHandler = handler }
}
