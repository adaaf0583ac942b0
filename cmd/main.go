package main

import (
    "context"
    "os/signal"
    "syscall"
    "time"

    "github.com/walletera/eventstore-tables/internal/app"

    "github.com/caarlos0/env/v11"
)

const shutdownTimeout = 10 * time.Second

type config struct {
    Backend              string        `env:"EVENTSTORE_BACKEND" envDefault:"mongodb"`
    RabbitmqHost         string        `env:"RABBITMQ_HOST" envDefault:"localhost"`
    RabbitmqPort         int           `env:"RABBITMQ_PORT" envDefault:"5672"`
    RabbitmqUser         string        `env:"RABBITMQ_USER" envDefault:"guest"`
    RabbitmqPassword     string        `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
    DispatchPollInterval time.Duration `env:"DISPATCH_POLL_INTERVAL" envDefault:"1s"`
    MetricsPort          int           `env:"METRICS_HTTP_SERVER_PORT"`
    OtelEndpoint         string        `env:"OTEL_EXPORTER_ENDPOINT"`
}

func main() {
    ctx, ctxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer ctxCancel()

    var cfg config
    err := env.Parse(&cfg)
    if err != nil {
        panic("invalid environment: " + err.Error())
    }

    opts := []app.Option{
        app.WithBackend(cfg.Backend),
        app.WithRabbitmqHost(cfg.RabbitmqHost),
        app.WithRabbitmqPort(cfg.RabbitmqPort),
        app.WithRabbitmqUser(cfg.RabbitmqUser),
        app.WithRabbitmqPassword(cfg.RabbitmqPassword),
        app.WithDispatchPollInterval(cfg.DispatchPollInterval),
        app.WithOtelEndpoint(cfg.OtelEndpoint),
    }
    if cfg.MetricsPort != 0 {
        opts = append(opts, app.WithMetricsConfig(app.MetricsConfig{
            MetricsHttpServerPort: cfg.MetricsPort,
        }))
    }

    app, err := app.NewApp(opts...)
    if err != nil {
        panic(err)
    }

    err = app.Run(ctx)
    if err != nil {
        panic(err)
    }

    <-ctx.Done()

    shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), shutdownTimeout)
    defer shutdownCtxCancel()

    app.Stop(shutdownCtx)
}
