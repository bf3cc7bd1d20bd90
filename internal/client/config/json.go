package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskmark/internal/flagx"
	"github.com/dmitrijs2005/taskmark/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	RealtimeURL         string         `json:"realtime_url"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	InsertPolicy        string         `json:"insert_policy"`
	FilterMode          string         `json:"filter_mode"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with the fields set in the file named by -c or
// -config. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.RealtimeURL, jc.RealtimeURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.InsertPolicy, jc.InsertPolicy)
	setString(&cfg.FilterMode, jc.FilterMode)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
