package eventstore

import (
    "errors"
    "fmt"
    "time"

    "github.com/caarlos0/env/v11"
)

// Config lists every option the store recognizes. Values come from
// built-in defaults, then the environment, then Options.
type Config struct {
    Account            string        `env:"EVENTSTORE_STORAGE_ACCOUNT" envDefault:"eventstore"`
    AccessKey          string        `env:"EVENTSTORE_STORAGE_ACCESS_KEY"`
    TableHost          string        `env:"EVENTSTORE_TABLE_HOST" envDefault:"mongodb://localhost:27017"`
    EventsTableName    string        `env:"EVENTSTORE_EVENTS_TABLE" envDefault:"events"`
    SnapshotsTableName string        `env:"EVENTSTORE_SNAPSHOTS_TABLE" envDefault:"snapshots"`
    Timeout            time.Duration `env:"EVENTSTORE_TIMEOUT" envDefault:"1s"`
    TLS                bool          `env:"EVENTSTORE_TLS" envDefault:"false"`
    AutoReconnect      bool          `env:"EVENTSTORE_AUTO_RECONNECT" envDefault:"true"`
}

type Option func(c *Config)

// DefaultConfig returns the built-in defaults, ignoring the environment.
func DefaultConfig() Config {
    var cfg Config
    // an empty, non-nil environment leaves only the envDefault values
    if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
        panic(fmt.Sprintf("invalid config defaults: %s", err.Error()))
    }
    return cfg
}

// LoadConfig reads the process environment and applies opts on top of it.
func LoadConfig(opts ...Option) (Config, error) {
    return loadConfig(env.Options{}, opts...)
}

func loadConfig(envOpts env.Options, opts ...Option) (Config, error) {
    var cfg Config
    if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
        return Config{}, fmt.Errorf("parse env: %w", err)
    }
    for _, opt := range opts {
        opt(&cfg)
    }
    if err := cfg.Validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

func (c Config) Validate() error {
    if c.EventsTableName == "" {
        return errors.New("events table name is required")
    }
    if c.SnapshotsTableName == "" {
        return errors.New("snapshots table name is required")
    }
    if c.EventsTableName == c.SnapshotsTableName {
        return fmt.Errorf("events and snapshots tables must differ, both are %q", c.EventsTableName)
    }
    if c.Timeout <= 0 {
        return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
    }
    return nil
}

func WithAccount(account string) Option { return func(c *Config) { c.Account = account } }

func WithAccessKey(accessKey string) Option { return func(c *Config) { c.AccessKey = accessKey } }

func WithTableHost(host string) Option { return func(c *Config) { c.TableHost = host } }

func WithEventsTableName(name string) Option {
    return func(c *Config) { c.EventsTableName = name }
}

func WithSnapshotsTableName(name string) Option {
    return func(c *Config) { c.SnapshotsTableName = name }
}

func WithTimeout(timeout time.Duration) Option { return func(c *Config) { c.Timeout = timeout } }

func WithTLS(enabled bool) Option { return func(c *Config) { c.TLS = enabled } }

func WithAutoReconnect(enabled bool) Option {
    return func(c *Config) { c.AutoReconnect = enabled }
}
