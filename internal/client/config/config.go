package config

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/client/store"
)

// Config holds runtime settings for the taskmark CLI.
type Config struct {
	ServerEndpointAddr  string        `env:"TASKMARK_SERVER_ADDR"`
	RealtimeURL         string        `env:"TASKMARK_REALTIME_URL"`
	DatabasePath        string        `env:"TASKMARK_CLIENT_DB"`
	OnlineCheckInterval time.Duration `env:"TASKMARK_ONLINE_CHECK_INTERVAL"`
	RequestTimeout      time.Duration `env:"TASKMARK_REQUEST_TIMEOUT"`
	InsertPolicy        string        `env:"TASKMARK_INSERT_POLICY"`
	FilterMode          string        `env:"TASKMARK_FILTER_MODE"`
	LogLevel            string        `env:"TASKMARK_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RealtimeURL = "ws://127.0.0.1:8080"
	c.DatabasePath = "taskmark.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.InsertPolicy = store.InsertFromResponse.String()
	c.FilterMode = store.FilterClientSide.String()
	c.LogLevel = "warn"
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online check interval must be positive"))
	}
	if _, err := store.ParseInsertPolicy(c.InsertPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := store.ParseFilterMode(c.FilterMode); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON, the environment and command-line flags. Later sources take precedence
// over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
