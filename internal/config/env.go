package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays fields tagged with `env` when the variable is set.
// Unset variables leave the current value untouched.
func parseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
