package app

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "net/http"
    "time"

    "github.com/walletera/eventstore-tables/internal/adapters/memtable"
    "github.com/walletera/eventstore-tables/internal/adapters/mongodb"
    "github.com/walletera/eventstore-tables/internal/adapters/rabbitmq"
    "github.com/walletera/eventstore-tables/internal/domain/dispatch"
    "github.com/walletera/eventstore-tables/internal/domain/eventstore"
    "github.com/walletera/eventstore-tables/internal/domain/tables"
    "github.com/walletera/eventstore-tables/pkg/logattr"
    "github.com/walletera/eventstore-tables/pkg/optional"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/walletera/eventskit/events"
    "go.mongodb.org/mongo-driver/v2/mongo"
    "go.uber.org/zap"
    "go.uber.org/zap/exp/zapslog"
    "go.uber.org/zap/zapcore"
)

const (
    ServiceName = "eventstore-tables"

    BackendMongoDB = "mongodb"
    BackendMemory  = "memory"

    RabbitMQEventsExchangeName = "eventstore.events"
)

type MetricsConfig struct {
    MetricsHttpServerPort int
}

type App struct {
    backend           string
    storeOpts         []eventstore.Option
    rabbitmqHost      string
    rabbitmqPort      int
    rabbitmqUser      string
    rabbitmqPassword  string
    rabbitmqExchange  string
    pollInterval      time.Duration
    metricsConfig     optional.Optional[MetricsConfig]
    otelEndpoint      string
    logHandler        slog.Handler
    logger            *slog.Logger
    mongoClient       *mongo.Client
    store             *eventstore.Store
    publisher         events.Publisher
    rabbitmqPublisher *rabbitmq.Publisher
    relayDone         chan struct{}
    shutdownTracing   func(context.Context) error
    httpServersToStop []*http.Server
}

func NewApp(opts ...Option) (*App, error) {
    app := &App{}
    err := setDefaultOpts(app)
    if err != nil {
        return nil, fmt.Errorf("failed setting default options: %w", err)
    }
    for _, opt := range opts {
        opt(app)
    }
    if app.backend != BackendMongoDB && app.backend != BackendMemory {
        return nil, fmt.Errorf("unknown backend %q", app.backend)
    }
    return app, nil
}

// Run connects the event store and starts the dispatch relay. The relay
// stops when ctx is done.
func (app *App) Run(ctx context.Context) error {
    app.logger = slog.
        New(app.logHandler).
        With(logattr.ServiceName(ServiceName))

    shutdownTracing, err := setupTracing(ctx, app.otelEndpoint)
    if err != nil {
        return fmt.Errorf("failed setting up tracing: %w", err)
    }
    app.shutdownTracing = shutdownTracing

    storeConfig, err := eventstore.LoadConfig(app.storeOpts...)
    if err != nil {
        return fmt.Errorf("failed loading event store config: %w", err)
    }

    service, err := app.createTablesService(storeConfig)
    if err != nil {
        return err
    }

    store, err := eventstore.Connect(
        ctx,
        service,
        storeConfig,
        app.logger.With(logattr.Component("eventstore.Store")),
    )
    if err != nil {
        return fmt.Errorf("failed connecting event store: %w", err)
    }
    app.store = store

    if app.publisher == nil {
        publisher, err := rabbitmq.NewPublisher(rabbitmq.Config{
            Host:     app.rabbitmqHost,
            Port:     app.rabbitmqPort,
            User:     app.rabbitmqUser,
            Password: app.rabbitmqPassword,
            Exchange: app.rabbitmqExchange,
        })
        if err != nil {
            return fmt.Errorf("failed creating rabbitmq publisher: %w", err)
        }
        app.publisher = publisher
        app.rabbitmqPublisher = publisher
    }

    registry := prometheus.NewRegistry()
    registry.MustRegister(
        collectors.NewGoCollector(),
        collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
    )

    relay := dispatch.NewRelay(
        store,
        app.publisher,
        app.logger.With(logattr.Component("dispatch.Relay")),
        dispatch.WithTopic(app.rabbitmqExchange),
        dispatch.WithPollInterval(app.pollInterval),
        dispatch.WithMetricsRegisterer(registry),
    )

    if app.metricsConfig.Set {
        metricsServer := app.startMetricsHTTPServer(registry)
        app.httpServersToStop = append(app.httpServersToStop, metricsServer)
    }

    app.relayDone = make(chan struct{})
    go func() {
        defer close(app.relayDone)
        relay.Run(ctx)
    }()

    app.logger.Info("eventstore-tables started", slog.String("backend", app.backend))

    return nil
}

// Store returns the connected event store. It is nil until Run succeeds.
func (app *App) Store() *eventstore.Store {
    return app.store
}

// Stop releases every resource acquired by Run. The relay must already be
// stopping, i.e. the context passed to Run must be done.
func (app *App) Stop(ctx context.Context) {
    if app.relayDone != nil {
        select {
        case <-app.relayDone:
        case <-ctx.Done():
            app.logger.Error("timed out waiting for the relay to stop")
        }
    }
    if app.rabbitmqPublisher != nil {
        err := app.rabbitmqPublisher.Close()
        if err != nil {
            app.logger.Error("error closing rabbitmq publisher", logattr.Error(err.Error()))
        }
    }
    if app.mongoClient != nil {
        err := app.mongoClient.Disconnect(ctx)
        if err != nil {
            app.logger.Error("error disconnecting from mongo", logattr.Error(err.Error()))
        }
    }
    for _, httpServer := range app.httpServersToStop {
        err := httpServer.Shutdown(ctx)
        if err != nil {
            app.logger.Error("error stopping http server", logattr.Error(err.Error()))
        }
    }
    if app.shutdownTracing != nil {
        err := app.shutdownTracing(ctx)
        if err != nil {
            app.logger.Error("error shutting down tracing", logattr.Error(err.Error()))
        }
    }
    app.logger.Info("eventstore-tables stopped")
}

func setDefaultOpts(app *App) error {
    zapLogger, err := newZapLogger()
    if err != nil {
        return err
    }
    app.logHandler = zapslog.NewHandler(zapLogger.Core())
    app.backend = BackendMongoDB
    app.rabbitmqHost = rabbitmq.DefaultHost
    app.rabbitmqPort = rabbitmq.DefaultPort
    app.rabbitmqUser = rabbitmq.DefaultUser
    app.rabbitmqPassword = rabbitmq.DefaultPassword
    app.rabbitmqExchange = RabbitMQEventsExchangeName
    app.pollInterval = dispatch.DefaultPollInterval
    return nil
}

func newZapLogger() (*zap.Logger, error) {
    encoderConfig := zap.NewProductionEncoderConfig()
    encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
    zapConfig := zap.Config{
        Level:             zap.NewAtomicLevelAt(zap.DebugLevel),
        Development:       false,
        DisableStacktrace: true,
        Sampling: &zap.SamplingConfig{
            Initial:    100,
            Thereafter: 100,
        },
        Encoding:         "json",
        EncoderConfig:    encoderConfig,
        OutputPaths:      []string{"stderr"},
        ErrorOutputPaths: []string{"stderr"},
    }
    return zapConfig.Build()
}

func (app *App) createTablesService(config eventstore.Config) (tables.Service, error) {
    if app.backend == BackendMemory {
        return memtable.NewService(), nil
    }
    client, err := mongodb.NewClient(config)
    if err != nil {
        return nil, err
    }
    app.mongoClient = client
    return mongodb.NewService(client, config.Account), nil
}

func (app *App) startMetricsHTTPServer(registry *prometheus.Registry) *http.Server {
    mux := http.NewServeMux()
    mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
    httpServer := &http.Server{
        Addr:              fmt.Sprintf("0.0.0.0:%d", app.metricsConfig.Value.MetricsHttpServerPort),
        Handler:           mux,
        ReadHeaderTimeout: 5 * time.Second,
    }

    go func() {
        defer app.logger.Info("metrics http server stopped")
        if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            app.logger.Error("metrics http server error", logattr.Error(err.Error()))
        }
    }()

    app.logger.Info("metrics http server started", logattr.Addr(httpServer.Addr))

    return httpServer
}
