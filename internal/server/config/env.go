package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays TASKMARK_* environment variables. Unset variables leave
// the current value in place. Malformed values panic.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}
