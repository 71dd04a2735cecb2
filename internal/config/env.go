// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every variable the client reads, e.g.
// TRIAGE_ADAPTER_ADDRESS.
const EnvPrefix = "TRIAGE_"

// parseEnv fills cfg from the environment through the `env` and `envPrefix`
// tags of [StructuredConfig].
func parseEnv(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}
	return nil
}
