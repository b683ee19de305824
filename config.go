package goAccount

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/session"
)

// Config holds every engine setting. Build copies it, so later mutation of the
// caller's value has no effect on a built Engine.
type Config struct {
	Session  SessionConfig  `envPrefix:"SESSION_"`
	Password PasswordConfig `envPrefix:"PASSWORD_"`
	Backends BackendsConfig `envPrefix:"BACKEND_"`
	Audit    AuditConfig    `envPrefix:"AUDIT_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session lifetime and Redis key layout.
type SessionConfig struct {
	// TTL is the sliding lifetime; every successful validation pushes expiry
	// to now+TTL.
	TTL         time.Duration `env:"TTL" envDefault:"1h"`
	RedisPrefix string        `env:"REDIS_PREFIX" envDefault:"as"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory           uint32 `env:"MEMORY" envDefault:"65536"` // in KB
	Time             uint32 `env:"TIME" envDefault:"3"`
	Parallelism      uint8  `env:"PARALLELISM" envDefault:"2"`
	SaltLength       uint32 `env:"SALT_LENGTH" envDefault:"16"`
	KeyLength        uint32 `env:"KEY_LENGTH" envDefault:"32"`
	MaxPasswordBytes int    `env:"MAX_BYTES" envDefault:"1024"`
}

func (c PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Memory:           c.Memory,
		Time:             c.Time,
		Parallelism:      c.Parallelism,
		SaltLength:       c.SaltLength,
		KeyLength:        c.KeyLength,
		MaxPasswordBytes: c.MaxPasswordBytes,
	}
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendMode selects how a store picks its backend at Build.
type BackendMode string

const (
	// ModeAuto probes the engine and falls back to the file store when it is
	// unreachable. The substitution is logged and audited.
	ModeAuto BackendMode = "auto"
	// ModeEngine requires the engine; Build fails when it is unreachable.
	ModeEngine BackendMode = "engine"
	// ModeFile always uses the file store.
	ModeFile BackendMode = "file"
)

func (m BackendMode) valid() bool {
	switch m {
	case ModeAuto, ModeEngine, ModeFile:
		return true
	}
	return false
}

// BackendsConfig selects the backend of each store and where file fallbacks live.
type BackendsConfig struct {
	Credential BackendMode `env:"CREDENTIAL" envDefault:"auto"`
	Session    BackendMode `env:"SESSION" envDefault:"auto"`
	Profile    BackendMode `env:"PROFILE" envDefault:"auto"`

	// ProbeTimeout bounds each engine Ping (and migration) at Build.
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"3s"`
	// MigrateOnStart applies the embedded Postgres migrations during Build.
	MigrateOnStart bool `env:"MIGRATE" envDefault:"true"`

	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	UsersFile    string `env:"USERS_FILE" envDefault:"users.json"`
	SessionsFile string `env:"SESSIONS_FILE" envDefault:"sessions.json"`
	ProfilesFile string `env:"PROFILES_FILE" envDefault:"profiles.json"`
}

// filePath resolves name against DataDir unless it is already absolute.
func (c BackendsConfig) filePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// SimpleFileMode reports whether every store is pinned to its file fallback.
func (c BackendsConfig) SimpleFileMode() bool {
	return c.Credential == ModeFile && c.Session == ModeFile && c.Profile == ModeFile
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED" envDefault:"false"`
	BufferSize int  `env:"BUFFER_SIZE" envDefault:"1024"`
	DropIfFull bool `env:"DROP_IF_FULL" envDefault:"true"`
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED" envDefault:"true"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS" envDefault:"true"`
}

/*
====================================
DEFAULTS
====================================
*/

func defaultConfig() Config {
	hc := password.DefaultConfig()
	return Config{
		Session: SessionConfig{
			TTL:         session.DefaultTTL,
			RedisPrefix: "as",
		},
		Password: PasswordConfig{
			Memory:           hc.Memory,
			Time:             hc.Time,
			Parallelism:      hc.Parallelism,
			SaltLength:       hc.SaltLength,
			KeyLength:        hc.KeyLength,
			MaxPasswordBytes: password.DefaultMaxPasswordBytes,
		},
		Backends: BackendsConfig{
			Credential:     ModeAuto,
			Session:        ModeAuto,
			Profile:        ModeAuto,
			ProbeTimeout:   3 * time.Second,
			MigrateOnStart: true,
			DataDir:        "data",
			UsersFile:      "users.json",
			SessionsFile:   "sessions.json",
			ProfilesFile:   "profiles.json",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return defaultConfig()
}

// cloneConfig returns a detached copy of cfg.
func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL < time.Second {
		return errors.New("Session TTL must be >= 1s")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}

	// Backends
	for name, mode := range map[string]BackendMode{
		"Credential": c.Backends.Credential,
		"Session":    c.Backends.Session,
		"Profile":    c.Backends.Profile,
	} {
		if !mode.valid() {
			return fmt.Errorf("Backends %s mode %q must be auto, engine or file", name, mode)
		}
	}
	if c.Backends.ProbeTimeout <= 0 {
		return errors.New("Backends ProbeTimeout must be > 0")
	}
	if c.Backends.DataDir == "" {
		return errors.New("Backends DataDir must not be empty")
	}
	if c.Backends.UsersFile == "" || c.Backends.SessionsFile == "" || c.Backends.ProfilesFile == "" {
		return errors.New("Backends file names must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
