package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON names and
// string-friendly durations.
type StructuredJSONConfig struct {
	App struct {
		InstanceName string `json:"instance_name"`
		LogFile      string `json:"log_file"`
	} `json:"app,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
		EventsPath     string   `json:"events_path"`
	} `json:"adapter,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Connectivity struct {
		CheckInterval        Duration `json:"check_interval"`
		OnlineSyncDelay      Duration `json:"online_sync_delay"`
		StartupGrace         Duration `json:"startup_grace"`
		RetryBase            Duration `json:"retry_base"`
		RetryCap             Duration `json:"retry_cap"`
		RetryMaxAttempts     int      `json:"retry_max_attempts"`
		PlatformPollInterval Duration `json:"platform_poll_interval"`
	} `json:"connectivity,omitempty"`

	Realtime struct {
		ReconnectBase        Duration `json:"reconnect_base"`
		ReconnectCap         Duration `json:"reconnect_cap"`
		ReconnectMaxAttempts int      `json:"reconnect_max_attempts"`
		PollInterval         Duration `json:"poll_interval"`
	} `json:"realtime,omitempty"`

	Broadcast struct {
		ChannelName string   `json:"channel"`
		Dir         string   `json:"dir"`
		Retention   Duration `json:"retention"`
		Disabled    bool     `json:"disabled"`
	} `json:"broadcast,omitempty"`

	Workers struct {
		SyncInterval      Duration `json:"sync_interval"`
		LedgerMaxAttempts int      `json:"ledger_max_attempts"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	raw, err := os.ReadFile(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}

	var jsonCfg StructuredJSONConfig
	if err := json.Unmarshal(jsonc.ToJSON(raw), &jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			InstanceName: jsonCfg.App.InstanceName,
			LogFile:      jsonCfg.App.LogFile,
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			EventsPath:     jsonCfg.Adapter.EventsPath,
		},
		Storage: Storage{
			DB: DB{DSN: jsonCfg.Storage.DB.DSN},
		},
		Connectivity: Connectivity{
			CheckInterval:        time.Duration(jsonCfg.Connectivity.CheckInterval),
			OnlineSyncDelay:      time.Duration(jsonCfg.Connectivity.OnlineSyncDelay),
			StartupGrace:         time.Duration(jsonCfg.Connectivity.StartupGrace),
			RetryBase:            time.Duration(jsonCfg.Connectivity.RetryBase),
			RetryCap:             time.Duration(jsonCfg.Connectivity.RetryCap),
			RetryMaxAttempts:     jsonCfg.Connectivity.RetryMaxAttempts,
			PlatformPollInterval: time.Duration(jsonCfg.Connectivity.PlatformPollInterval),
		},
		Realtime: Realtime{
			ReconnectBase:        time.Duration(jsonCfg.Realtime.ReconnectBase),
			ReconnectCap:         time.Duration(jsonCfg.Realtime.ReconnectCap),
			ReconnectMaxAttempts: jsonCfg.Realtime.ReconnectMaxAttempts,
			PollInterval:         time.Duration(jsonCfg.Realtime.PollInterval),
		},
		Broadcast: Broadcast{
			ChannelName: jsonCfg.Broadcast.ChannelName,
			Dir:         jsonCfg.Broadcast.Dir,
			Retention:   time.Duration(jsonCfg.Broadcast.Retention),
			Disabled:    jsonCfg.Broadcast.Disabled,
		},
		Workers: Workers{
			SyncInterval:      time.Duration(jsonCfg.Workers.SyncInterval),
			LedgerMaxAttempts: jsonCfg.Workers.LedgerMaxAttempts,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s" as well as from nanosecond numbers.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
