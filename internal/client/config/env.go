package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays TASKMARK_* variables; unset ones keep the current value.
func parseEnv(cfg *Config) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}
