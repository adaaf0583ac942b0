package eventstore

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "events", cfg.EventsTableName)
	assert.Equal(t, "snapshots", cfg.SnapshotsTableName)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.False(t, cfg.TLS)
	assert.True(t, cfg.AutoReconnect)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigPrecedence(t *testing.T) {
	environment := map[string]string{
		"EVENTSTORE_STORAGE_ACCOUNT": "from-env",
		"EVENTSTORE_TABLE_HOST":      "mongodb://env-host:27017",
		"EVENTSTORE_EVENTS_TABLE":    "env_events",
		"EVENTSTORE_TIMEOUT":         "250ms",
	}

	cfg, err := loadConfig(
		env.Options{Environment: environment},
		WithEventsTableName("option_events"),
		WithTLS(true),
	)
	require.NoError(t, err)

	// option beats environment
	assert.Equal(t, "option_events", cfg.EventsTableName)
	assert.True(t, cfg.TLS)
	// environment beats default
	assert.Equal(t, "from-env", cfg.Account)
	assert.Equal(t, "mongodb://env-host:27017", cfg.TableHost)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	// default
	assert.Equal(t, "snapshots", cfg.SnapshotsTableName)
	assert.True(t, cfg.AutoReconnect)
}

func TestLoadConfigInvalidEnvironment(t *testing.T) {
	_, err := loadConfig(env.Options{Environment: map[string]string{"EVENTSTORE_TIMEOUT": "soon"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "empty events table", opt: WithEventsTableName("")},
		{name: "empty snapshots table", opt: WithSnapshotsTableName("")},
		{name: "same table", opt: WithSnapshotsTableName("events")},
		{name: "zero timeout", opt: WithTimeout(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(env.Options{Environment: map[string]string{}}, tt.opt)
			assert.Error(t, err)
		})
	}
}
