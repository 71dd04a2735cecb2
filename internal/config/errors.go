package config

import "errors"

// Validation errors returned by [ClientConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, missing HTTP address or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid client storage settings
	// (for example, empty DSN or unsupported in-memory DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidConnectivityConfigs indicates a non-positive probe interval
	// or an unusable retry schedule.
	ErrInvalidConnectivityConfigs = errors.New("invalid connectivity configuration")
	// ErrInvalidRealtimeConfigs indicates an unusable reconnect or polling
	// schedule.
	ErrInvalidRealtimeConfigs = errors.New("invalid realtime configuration")
	// ErrInvalidBroadcastConfigs indicates an enabled broadcast channel
	// without a name or spool directory.
	ErrInvalidBroadcastConfigs = errors.New("invalid broadcast configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero sync interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
