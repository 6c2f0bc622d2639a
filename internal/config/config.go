package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageConfig selects the journal backing store.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	DSN    string
}

// Config carries the explicit runtime configuration. The host application
// identity lives here and is injected at construction time; nothing in the
// SDK resolves it from ambient global state.
type Config struct {
	Environment string
	// AppID identifies the consuming host application and scopes the relay
	// topic, so hosts sharing a process never cross-deliver results.
	AppID    string
	HTTPAddr string
	Storage  StorageConfig
	// ResultWaitTimeout bounds the long-poll on the result wait endpoint.
	ResultWaitTimeout time.Duration
}

func Default() Config {
	return Config{
		Environment: "development",
		AppID:       "com.smallbiznis.dropin",
		HTTPAddr:    ":8080",
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "file:dropin.db?_pragma=busy_timeout(5000)",
		},
		ResultWaitTimeout: 30 * time.Second,
	}
}

// Load reads configuration from the environment on top of the defaults.
func Load() (Config, error) {
	cfg := Default()
	if v := strings.TrimSpace(os.Getenv("DROPIN_ENVIRONMENT")); v != "" {
		cfg.Environment = v
	}
	if v := strings.TrimSpace(os.Getenv("DROPIN_APP_ID")); v != "" {
		cfg.AppID = v
	}
	if v := strings.TrimSpace(os.Getenv("DROPIN_HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("DROPIN_STORAGE_DRIVER")); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("DROPIN_STORAGE_DSN")); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("DROPIN_RESULT_WAIT_TIMEOUT_MS")); v != "" {
		ms, err := strconv.Atoi(v)
		if err == nil && ms > 0 {
			cfg.ResultWaitTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
