package goAccount

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every configuration variable, e.g.
// ACCOUNT_SESSION_TTL or ACCOUNT_BACKEND_PROFILE.
const EnvPrefix = "ACCOUNT_"

// LoadConfigFromEnv reads Config from ACCOUNT_* environment variables. Unset
// variables take the same values as DefaultConfig. The result is validated.
func LoadConfigFromEnv() (Config, error) {
	return loadConfig(nil)
}

// loadConfig parses from environment, or from vars when it is non-nil.
func loadConfig(vars map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
