package main

import (
	"fmt"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/caarlos0/env/v11"
)

// serverConfig holds the process settings that sit outside goAccount.Config.
type serverConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PurgeInterval   time.Duration `env:"PURGE_INTERVAL" envDefault:"5m"`
	AllowOrigins    []string      `env:"CORS_ORIGINS" envSeparator:","`

	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	// AuditLog routes audit events to the process log.
	AuditLog bool `env:"AUDIT_LOG" envDefault:"true"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SQLitePath string `env:"SQLITE_PATH"`
}

func loadServerConfig(vars map[string]string) (serverConfig, error) {
	var cfg serverConfig
	opts := env.Options{Prefix: goAccount.EnvPrefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return serverConfig{}, fmt.Errorf("parse server env: %w", err)
	}
	if cfg.Addr == "" {
		return serverConfig{}, fmt.Errorf("ACCOUNT_HTTP_ADDR must not be empty")
	}
	if cfg.ShutdownTimeout <= 0 {
		return serverConfig{}, fmt.Errorf("ACCOUNT_SHUTDOWN_TIMEOUT must be > 0")
	}
	return cfg, nil
}
