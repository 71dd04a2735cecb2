package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ParseFlags parses all configuration flags from args into a sparse
// [StructuredConfig]: unset flags stay zero so that lower-priority sources
// can fill them.
//
// Flags:
//
//	-a, --address                queue server address
//	    --request-timeout        request timeout (e.g. "15s")
//	    --events-path            event stream path
//	-d, --dsn                    local database DSN
//	-c, --config                 JSON config file path
//	    --instance               instance name
//	    --log-file               log file path
//	    --check-interval         connectivity re-probe period
//	    --startup-grace          no-sync window after start
//	    --poll-interval          polling fallback period
//	    --broadcast-channel      cross-instance channel name
//	    --broadcast-dir          cross-instance spool directory
//	    --no-broadcast           disable the cross-instance channel
//	    --sync-interval          background sync period
func ParseFlags(args []string) (*StructuredConfig, error) {
	fs := pflag.NewFlagSet("triage-queue-client", pflag.ContinueOnError)

	var cfg StructuredConfig
	fs.StringVarP(&cfg.Adapter.HTTPAddress, "address", "a", "", "Queue server address")
	fs.DurationVar(&cfg.Adapter.RequestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")
	fs.StringVar(&cfg.Adapter.EventsPath, "events-path", "", "Event stream path")
	fs.StringVarP(&cfg.Storage.DB.DSN, "dsn", "d", "", "Local database DSN")
	fs.StringVarP(&cfg.JSONFilePath, "config", "c", "", "JSON config file path")
	fs.StringVar(&cfg.App.InstanceName, "instance", "", "Instance name")
	fs.StringVar(&cfg.App.LogFile, "log-file", "", "Log file path")
	fs.DurationVar(&cfg.Connectivity.CheckInterval, "check-interval", 0, "Connectivity re-probe period")
	fs.DurationVar(&cfg.Connectivity.StartupGrace, "startup-grace", 0, "No-sync window after start")
	fs.DurationVar(&cfg.Realtime.PollInterval, "poll-interval", 0, "Polling fallback period")
	fs.StringVar(&cfg.Broadcast.ChannelName, "broadcast-channel", "", "Cross-instance channel name")
	fs.StringVar(&cfg.Broadcast.Dir, "broadcast-dir", "", "Cross-instance spool directory")
	fs.BoolVar(&cfg.Broadcast.Disabled, "no-broadcast", false, "Disable the cross-instance channel")
	fs.DurationVar(&cfg.Workers.SyncInterval, "sync-interval", 0, "Background sync period (e.g., 5m)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &cfg, nil
}
