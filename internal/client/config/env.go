package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays cfg with FOLIO_* environment variables. Variables that
// are not set leave the current value untouched.
func parseEnv(cfg *Config) error {
	return cleanenv.ReadEnv(cfg)
}
