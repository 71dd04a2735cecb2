package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")

	// Comments and trailing commas are accepted.
	jsonBody := `{
		// ward kiosk
		"app": { "instance_name": "kiosk-1" },
		"adapter": {
			"http_address": "localhost:8000",
			"request_timeout": "10s",
			"events_path": "/queue/events",
		},
		"storage": { "db": { "dsn": "/var/lib/triage.db" } },
		"connectivity": {
			"check_interval": "1m",
			"retry_base": "2s",
			"retry_max_attempts": 3
		},
		"realtime": { "poll_interval": "15s", "reconnect_max_attempts": 4 },
		"broadcast": { "channel": "ward", "retention": "30s", "disabled": true },
		/* background */
		"workers": { "sync_interval": "2m", "ledger_max_attempts": 8 }
	}`

	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "kiosk-1", cfg.App.InstanceName)
	assert.Equal(t, "localhost:8000", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 10*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, "/queue/events", cfg.Adapter.EventsPath)
	assert.Equal(t, "/var/lib/triage.db", cfg.Storage.DB.DSN)
	assert.Equal(t, time.Minute, cfg.Connectivity.CheckInterval)
	assert.Equal(t, 2*time.Second, cfg.Connectivity.RetryBase)
	assert.Equal(t, 3, cfg.Connectivity.RetryMaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Realtime.PollInterval)
	assert.Equal(t, 4, cfg.Realtime.ReconnectMaxAttempts)
	assert.Equal(t, "ward", cfg.Broadcast.ChannelName)
	assert.Equal(t, 30*time.Second, cfg.Broadcast.Retention)
	assert.True(t, cfg.Broadcast.Disabled)
	assert.Equal(t, 2*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 8, cfg.Workers.LedgerMaxAttempts)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_NumericDuration(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"workers":{"sync_interval":1000000000}}`), 0o600))

	cfg, err := parseJSON(p)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Workers.SyncInterval)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	cfg, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"adapter": [}`), 0o600))

	cfg, err := parseJSON(p)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestParseJSON_InvalidDuration(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"realtime":{"poll_interval":"often"}}`), 0o600))

	_, err := parseJSON(p)
	require.Error(t, err)
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := Duration(90 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}
