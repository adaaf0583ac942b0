package rabbitmq

import (
    "context"
    "fmt"

    "github.com/walletera/eventskit/events"
    "github.com/walletera/eventskit/rabbitmq"
    "github.com/walletera/werrors"
)

const (
    DefaultHost     = rabbitmq.DefaultHost
    DefaultPort     = rabbitmq.DefaultPort
    DefaultUser     = rabbitmq.DefaultUser
    DefaultPassword = rabbitmq.DefaultPassword

    ExchangeType = rabbitmq.ExchangeTypeTopic
)

type Config struct {
    Host     string
    Port     int
    User     string
    Password string
    Exchange string
}

// Publisher publishes dispatched events to a topic exchange.
type Publisher struct {
    client *rabbitmq.Client
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(config Config) (*Publisher, error) {
    client, err := rabbitmq.NewClient(
        rabbitmq.WithHost(config.Host),
        rabbitmq.WithPort(uint(config.Port)),
        rabbitmq.WithUser(config.User),
        rabbitmq.WithPassword(config.Password),
        rabbitmq.WithExchangeName(config.Exchange),
        rabbitmq.WithExchangeType(ExchangeType),
    )
    if err != nil {
        return nil, fmt.Errorf("creating rabbitmq client: %w", err)
    }
    return &Publisher{client: client}, nil
}

func (p *Publisher) Publish(ctx context.Context, data events.EventData, info events.RoutingInfo) error {
    err := p.client.Publish(ctx, data, info)
    if err != nil {
        return werrors.NewRetryableInternalError("failed publishing event %s: %s", data.ID(), err.Error())
    }
    return nil
}

func (p *Publisher) Close() error {
    return p.client.Close()
}
