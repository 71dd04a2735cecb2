// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the lifecycle contract of a runnable client.
type Client interface {
	// Start opens local state and starts background work without blocking.
	Start(ctx context.Context) error
	// Stop releases everything Start acquired.
	Stop()
	// Run starts the client and blocks until ctx is done.
	Run(ctx context.Context) error
}

var _ Client = (*App)(nil)
