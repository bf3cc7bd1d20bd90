package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskmark/internal/flagx"
	"github.com/dmitrijs2005/taskmark/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations
// accept both "15m" strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC              string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP              string         `json:"endpoint_addr_http"`
	DatabaseDSN                   string         `json:"database_dsn"`
	SecretKey                     string         `json:"secret_key"`
	AccessTokenValidityDuration   timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration  timex.Duration `json:"refresh_token_validity_duration"`
	RecoveryTokenValidityDuration timex.Duration `json:"recovery_token_validity_duration"`
	LogLevel                      string         `json:"log_level"`
	LogJSON                       *bool          `json:"log_json"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field it sets into config. A missing or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RecoveryTokenValidityDuration.Duration > 0 {
		config.RecoveryTokenValidityDuration = c.RecoveryTokenValidityDuration.Duration
	}
	if c.LogJSON != nil {
		config.LogJSON = *c.LogJSON
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
