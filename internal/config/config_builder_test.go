package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder verifies that building with no configs returns a
// zero-value StructuredConfig.
func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_EarlierSourceWins verifies that a field set by an earlier source
// is not overwritten by a later one, while unset fields are filled.
func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Adapter: Adapter{HTTPAddress: "env:8000"}},
		&StructuredConfig{Adapter: Adapter{HTTPAddress: "flag:8000", RequestTimeout: time.Second}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "env:8000", cfg.Adapter.HTTPAddress)
	assert.Equal(t, time.Second, cfg.Adapter.RequestTimeout)
}

// ── withDefaults ──────────────────────────────────────────────────────────────

// TestWithDefaults_FillsGaps verifies that defaults only fill unset fields.
func TestWithDefaults_FillsGaps(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{Realtime: Realtime{PollInterval: time.Minute}})

	cfg, err := b.withDefaults().build()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Realtime.PollInterval)
	assert.Equal(t, 5, cfg.Realtime.ReconnectMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Connectivity.CheckInterval)
	assert.Equal(t, DefaultChannelName, cfg.Broadcast.ChannelName)
	assert.Equal(t, "/queue/events", cfg.Adapter.EventsPath)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_NoPath verifies that withJSON is a no-op without a path.
func TestWithJSON_NoPath(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})

	b.withJSON()
	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

// TestWithJSON_LoadsFile verifies that the path from an earlier source is
// loaded and appended.
func TestWithJSON_LoadsFile(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"storage": map[string]any{"db": map[string]any{"dsn": "from-json.db"}},
	})

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})

	cfg, err := b.withJSON().build()
	require.NoError(t, err)
	assert.Equal(t, "from-json.db", cfg.Storage.DB.DSN)
}

// TestWithJSON_MissingFile verifies that a broken path surfaces at build.
func TestWithJSON_MissingFile(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/definitely/missing.json"})

	_, err := b.withJSON().build()
	require.Error(t, err)
}

// ── withFlags ─────────────────────────────────────────────────────────────────

func TestWithFlags_BadArgs(t *testing.T) {
	b := newConfigBuilder().withFlags([]string{"--unknown"})
	assert.Error(t, b.err)
	assert.Empty(t, b.configs)
}

// ── GetClientConfig ───────────────────────────────────────────────────────────

// TestGetClientConfig_Defaults verifies that the built-in defaults alone form
// a valid client configuration.
func TestGetClientConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := GetClientConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Adapter.HTTPAddress)
	assert.Equal(t, time.Second, cfg.Connectivity.OnlineSyncDelay)
	assert.Equal(t, 5*time.Second, cfg.Realtime.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
}

// TestGetClientConfig_Priority verifies env > flags > json > defaults.
func TestGetClientConfig_Priority(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"adapter": map[string]any{"http_address": "json:8000", "request_timeout": "3s"},
		"storage": map[string]any{"db": map[string]any{"dsn": "json.db"}},
		"workers": map[string]any{"sync_interval": "9m"},
	})
	setEnvVars(t, map[string]string{"TRIAGE_ADAPTER_ADDRESS": "env:8000"})

	cfg, err := GetClientConfig([]string{"-a", "flag:8000", "-d", "flag.db", "-c", path})
	require.NoError(t, err)

	assert.Equal(t, "env:8000", cfg.Adapter.HTTPAddress)
	assert.Equal(t, "flag.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 3*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 9*time.Minute, cfg.Workers.SyncInterval)
}

// ── validate ──────────────────────────────────────────────────────────────────

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ClientConfig)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(c *ClientConfig) {}},
		{name: "in-memory dsn", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = ":memory:" }, wantErr: ErrInvalidStorageConfigs},
		{name: "empty dsn", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = "" }, wantErr: ErrInvalidStorageConfigs},
		{name: "no address", mutate: func(c *ClientConfig) { c.Adapter.HTTPAddress = "" }, wantErr: ErrInvalidAdapterConfigs},
		{name: "no timeout", mutate: func(c *ClientConfig) { c.Adapter.RequestTimeout = 0 }, wantErr: ErrInvalidAdapterConfigs},
		{name: "zero check interval", mutate: func(c *ClientConfig) { c.Connectivity.CheckInterval = 0 }, wantErr: ErrInvalidConnectivityConfigs},
		{name: "cap below base", mutate: func(c *ClientConfig) { c.Connectivity.RetryCap = time.Millisecond }, wantErr: ErrInvalidConnectivityConfigs},
		{name: "no reconnect attempts", mutate: func(c *ClientConfig) { c.Realtime.ReconnectMaxAttempts = 0 }, wantErr: ErrInvalidRealtimeConfigs},
		{name: "zero poll interval", mutate: func(c *ClientConfig) { c.Realtime.PollInterval = 0 }, wantErr: ErrInvalidRealtimeConfigs},
		{name: "broadcast without name", mutate: func(c *ClientConfig) { c.Broadcast.ChannelName = "" }, wantErr: ErrInvalidBroadcastConfigs},
		{name: "disabled broadcast needs no name", mutate: func(c *ClientConfig) {
			c.Broadcast.ChannelName = ""
			c.Broadcast.Disabled = true
		}},
		{name: "zero sync interval", mutate: func(c *ClientConfig) { c.Workers.SyncInterval = 0 }, wantErr: ErrInvalidWorkerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
