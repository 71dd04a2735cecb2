// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks the merged [StructuredConfig]. Source-level problems are
// reported by the builder; semantic checks live on [ClientConfig].
func (cfg *StructuredConfig) validate() error {
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 || cfg.Adapter.EventsPath == "" {
		return ErrInvalidAdapterConfigs
	}

	c := cfg.Connectivity
	if c.CheckInterval <= 0 || c.RetryBase <= 0 || c.RetryCap < c.RetryBase ||
		c.RetryMaxAttempts < 1 || c.PlatformPollInterval <= 0 || c.OnlineSyncDelay < 0 || c.StartupGrace < 0 {
		return ErrInvalidConnectivityConfigs
	}

	r := cfg.Realtime
	if r.ReconnectBase <= 0 || r.ReconnectCap < r.ReconnectBase || r.ReconnectMaxAttempts < 1 || r.PollInterval <= 0 {
		return ErrInvalidRealtimeConfigs
	}

	if !cfg.Broadcast.Disabled && (cfg.Broadcast.ChannelName == "" || cfg.Broadcast.Dir == "") {
		return ErrInvalidBroadcastConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.LedgerMaxAttempts < 1 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

// Validate exposes the client config checks to callers that assemble a
// [ClientConfig] by hand.
func (cfg *ClientConfig) Validate() error {
	return cfg.validate()
}
