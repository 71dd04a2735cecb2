// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the triage
// queue client. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, an optional
// JSON file and finally the built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds process-level settings such as the instance name.
	App App `envPrefix:"APP_"`

	// Adapter holds the address and timeouts of the remote queue server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds configuration for the durable local store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Connectivity holds the probe, grace and sync retry schedule of the
	// connectivity monitor.
	Connectivity Connectivity `envPrefix:"CONNECTIVITY_"`

	// Realtime holds the reconnect and polling schedule of the live update
	// channel.
	Realtime Realtime `envPrefix:"REALTIME_"`

	// Broadcast holds the cross-instance channel settings.
	Broadcast Broadcast `envPrefix:"BROADCAST_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Comments and trailing commas are allowed in the file.
	// Populated via the CONFIG environment variable or the -c / --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds process-level settings.
type App struct {
	// InstanceName labels log entries and broadcast envelopes of this
	// process. A random name is generated when empty.
	// Env: APP_INSTANCE_NAME
	InstanceName string `env:"INSTANCE_NAME"`

	// LogFile is the file client logs are appended to. Empty means a "logs"
	// file next to the executable.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Adapter holds the settings of the outbound HTTP transport.
type Adapter struct {
	// HTTPAddress is the base address of the queue server, with or without
	// scheme (e.g. "localhost:8000" or "https://triage.example.org").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds every non-streaming request (e.g. "15s").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// EventsPath is the path of the server-sent event stream.
	// Env: ADAPTER_EVENTS_PATH
	EventsPath string `env:"EVENTS_PATH"`
}

// Storage groups the configuration for the durable local store.
type Storage struct {
	// DB holds the SQLite database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path or URI (e.g. "file:triage.db?_fk=1").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Connectivity holds the connectivity monitor schedule.
type Connectivity struct {
	// CheckInterval is the period of the active re-probe while online.
	// Env: CONNECTIVITY_CHECK_INTERVAL
	CheckInterval time.Duration `env:"CHECK_INTERVAL"`

	// OnlineSyncDelay is how long after an "online" signal the sync runs.
	// Env: CONNECTIVITY_ONLINE_SYNC_DELAY
	OnlineSyncDelay time.Duration `env:"ONLINE_SYNC_DELAY"`

	// StartupGrace is the window after start during which no sync is
	// scheduled.
	// Env: CONNECTIVITY_STARTUP_GRACE
	StartupGrace time.Duration `env:"STARTUP_GRACE"`

	// RetryBase, RetryCap and RetryMaxAttempts shape the sync retry backoff.
	// Env: CONNECTIVITY_RETRY_BASE, CONNECTIVITY_RETRY_CAP,
	// CONNECTIVITY_RETRY_MAX_ATTEMPTS
	RetryBase        time.Duration `env:"RETRY_BASE"`
	RetryCap         time.Duration `env:"RETRY_CAP"`
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS"`

	// PlatformPollInterval is how often network interfaces are inspected
	// for online/offline signals.
	// Env: CONNECTIVITY_PLATFORM_POLL_INTERVAL
	PlatformPollInterval time.Duration `env:"PLATFORM_POLL_INTERVAL"`
}

// Realtime holds the live update channel schedule.
type Realtime struct {
	// Env: REALTIME_RECONNECT_BASE, REALTIME_RECONNECT_CAP,
	// REALTIME_RECONNECT_MAX_ATTEMPTS
	ReconnectBase        time.Duration `env:"RECONNECT_BASE"`
	ReconnectCap         time.Duration `env:"RECONNECT_CAP"`
	ReconnectMaxAttempts int           `env:"RECONNECT_MAX_ATTEMPTS"`

	// PollInterval is the period of the full-fetch fallback once reconnects
	// are exhausted.
	// Env: REALTIME_POLL_INTERVAL
	PollInterval time.Duration `env:"POLL_INTERVAL"`
}

// Broadcast holds the cross-instance channel settings.
type Broadcast struct {
	// ChannelName is shared by every instance that should see each other.
	// Env: BROADCAST_CHANNEL
	ChannelName string `env:"CHANNEL"`

	// Dir is the spool directory of the device-wide channel.
	// Env: BROADCAST_DIR
	Dir string `env:"DIR"`

	// Retention is how long delivered message files are kept.
	// Env: BROADCAST_RETENTION
	Retention time.Duration `env:"RETENTION"`

	// Disabled turns the channel into a no-op.
	// Env: BROADCAST_DISABLED
	Disabled bool `env:"DISABLED"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SyncInterval is the period of the background full sync.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// LedgerMaxAttempts is how many times a pending mutation is retried
	// before it is left for reconciliation by pull.
	// Env: WORKERS_LEDGER_MAX_ATTEMPTS
	LedgerMaxAttempts int `env:"LEDGER_MAX_ATTEMPTS"`
}

// GetStructuredConfig loads and merges the configuration from all available
// sources. For every field the first non-zero value wins, in this order:
//  1. Environment variables
//  2. Command-line flags (args, usually os.Args[1:])
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		withDefaults().
		build()
}
