package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultChannelName is the broadcast channel shared by all instances unless
// configured otherwise.
const DefaultChannelName = "triage-queue-sync"

// DefaultEventsPath is the server-sent event endpoint of the queue server.
const DefaultEventsPath = "/queue/events"

// Defaults returns the configuration used for every field no other source
// sets.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		Adapter: Adapter{
			HTTPAddress:    "http://localhost:8000",
			RequestTimeout: 15 * time.Second,
			EventsPath:     DefaultEventsPath,
		},
		Storage: Storage{
			DB: DB{DSN: "triage-queue.db"},
		},
		Connectivity: Connectivity{
			CheckInterval:        30 * time.Second,
			OnlineSyncDelay:      time.Second,
			StartupGrace:         2 * time.Second,
			RetryBase:            time.Second,
			RetryCap:             30 * time.Second,
			RetryMaxAttempts:     5,
			PlatformPollInterval: 5 * time.Second,
		},
		Realtime: Realtime{
			ReconnectBase:        time.Second,
			ReconnectCap:         30 * time.Second,
			ReconnectMaxAttempts: 5,
			PollInterval:         5 * time.Second,
		},
		Broadcast: Broadcast{
			ChannelName: DefaultChannelName,
			Dir:         filepath.Join(os.TempDir(), "triage-queue-broadcast"),
			Retention:   time.Minute,
		},
		Workers: Workers{
			SyncInterval:      5 * time.Minute,
			LedgerMaxAttempts: 5,
		},
	}
}
