package config

import (
	"fmt"
	"time"
)

// ClientApp holds process-level client settings.
type ClientApp struct {
	// InstanceName identifies this process among its siblings.
	InstanceName string
	// LogFile is where client logs are written.
	LogFile string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the base address of the queue server.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	// The event stream is not subject to it.
	RequestTimeout time.Duration
	// EventsPath is the path of the server-sent event stream.
	EventsPath string
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite connection string used by the client.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientConnectivity is the schedule of the connectivity monitor.
type ClientConnectivity struct {
	CheckInterval        time.Duration
	OnlineSyncDelay      time.Duration
	StartupGrace         time.Duration
	RetryBase            time.Duration
	RetryCap             time.Duration
	RetryMaxAttempts     int
	PlatformPollInterval time.Duration
}

// ClientRealtime is the schedule of the live update channel.
type ClientRealtime struct {
	ReconnectBase        time.Duration
	ReconnectCap         time.Duration
	ReconnectMaxAttempts int
	PollInterval         time.Duration
}

// ClientBroadcast holds the cross-instance channel settings.
type ClientBroadcast struct {
	ChannelName string
	Dir         string
	Retention   time.Duration
	Disabled    bool
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the background sync runs.
	SyncInterval time.Duration
	// LedgerMaxAttempts bounds retries of a single pending mutation.
	LedgerMaxAttempts int
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App          ClientApp
	Adapter      ClientAdapter
	Storage      ClientStorage
	Connectivity ClientConnectivity
	Realtime     ClientRealtime
	Broadcast    ClientBroadcast
	Workers      ClientWorkers
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps the fields to the
// client runtime groups, and validates the resulting [ClientConfig].
func GetClientConfig(args []string) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps a merged [StructuredConfig] to a [ClientConfig]
// without validating it.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		App: ClientApp{
			InstanceName: cfg.App.InstanceName,
			LogFile:      cfg.App.LogFile,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			EventsPath:     cfg.Adapter.EventsPath,
		},
		Storage: ClientStorage{
			DB: ClientDB{DSN: cfg.Storage.DB.DSN},
		},
		Connectivity: ClientConnectivity{
			CheckInterval:        cfg.Connectivity.CheckInterval,
			OnlineSyncDelay:      cfg.Connectivity.OnlineSyncDelay,
			StartupGrace:         cfg.Connectivity.StartupGrace,
			RetryBase:            cfg.Connectivity.RetryBase,
			RetryCap:             cfg.Connectivity.RetryCap,
			RetryMaxAttempts:     cfg.Connectivity.RetryMaxAttempts,
			PlatformPollInterval: cfg.Connectivity.PlatformPollInterval,
		},
		Realtime: ClientRealtime{
			ReconnectBase:        cfg.Realtime.ReconnectBase,
			ReconnectCap:         cfg.Realtime.ReconnectCap,
			ReconnectMaxAttempts: cfg.Realtime.ReconnectMaxAttempts,
			PollInterval:         cfg.Realtime.PollInterval,
		},
		Broadcast: ClientBroadcast{
			ChannelName: cfg.Broadcast.ChannelName,
			Dir:         cfg.Broadcast.Dir,
			Retention:   cfg.Broadcast.Retention,
			Disabled:    cfg.Broadcast.Disabled,
		},
		Workers: ClientWorkers{
			SyncInterval:      cfg.Workers.SyncInterval,
			LedgerMaxAttempts: cfg.Workers.LedgerMaxAttempts,
		},
	}
}

// DefaultClientConfig returns the client view of [Defaults]. Tests and
// embedded hosts start from it and override what they need.
func DefaultClientConfig() *ClientConfig {
	return NewClientConfig(Defaults())
}
