// Package config provides configuration loading, merging, and validation
// facilities for the triage queue client.
//
// Configuration is assembled from multiple sources. For every field the first
// source that sets it wins:
//  1. Environment variables, prefixed with [EnvPrefix]
//  2. Command-line flags
//  3. JSON config file (comments allowed)
//  4. Built-in defaults ([Defaults])
//
// The main entry points are [GetStructuredConfig] for the raw merged
// configuration and [GetClientConfig] for the validated client view.
package config
