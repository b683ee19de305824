package goAccount

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/credential"
	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/profile"
	"github.com/MrEthical07/goAccount/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Engine clients are optional: a store without
// one runs on its file fallback unless its mode is ModeEngine.
type Builder struct {
	config Config

	postgres *sql.DB
	redis    redis.UniversalClient
	sqlite   *sql.DB

	credentialStore CredentialStore
	sessionStore    SessionStore
	profileStore    ProfileStore

	hasher    password.Hasher
	logger    logging.Logger
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithPostgres supplies the credential engine. The caller keeps ownership of db.
func (b *Builder) WithPostgres(db *sql.DB) *Builder {
	b.postgres = db
	return b
}

// WithRedis supplies the session engine. The caller keeps ownership of client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSQLite supplies the profile document engine. The caller keeps ownership of db.
func (b *Builder) WithSQLite(db *sql.DB) *Builder {
	b.sqlite = db
	return b
}

// WithCredentialStore injects a credential store, bypassing backend selection.
func (b *Builder) WithCredentialStore(s CredentialStore) *Builder {
	b.credentialStore = s
	return b
}

// WithSessionStore injects a session store, bypassing backend selection.
func (b *Builder) WithSessionStore(s SessionStore) *Builder {
	b.sessionStore = s
	return b
}

// WithProfileStore injects a profile store, bypassing backend selection.
func (b *Builder) WithProfileStore(s ProfileStore) *Builder {
	b.profileStore = s
	return b
}

// WithPasswordHasher overrides the Argon2id hasher derived from Config.Password.
func (b *Builder) WithPasswordHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets where audit events go when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source of the built-in session and profile
// stores.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, selects a backend for every store and
// returns the Engine. A Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	return b.BuildContext(context.Background())
}

// BuildContext is Build with a caller-controlled context for the engine
// probes.
func (b *Builder) BuildContext(ctx context.Context) (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = logging.Discard()
	}
	now := b.clock
	if now == nil {
		now = time.Now
	}

	hasher := b.hasher
	if hasher == nil {
		h, err := password.NewArgon2(cfg.Password.hasherConfig())
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	report := BackendReport{
		Credential: BackendCustom,
		Session:    BackendCustom,
		Profile:    BackendCustom,
	}
	var fallbacks []fallbackNotice

	// -------- CREDENTIAL STORE --------
	credentials := b.credentialStore
	if credentials == nil {
		choice := storeChoice[CredentialStore]{
			store:  "credential",
			mode:   cfg.Backends.Credential,
			engine: BackendPostgres,
			openFallback: func() (CredentialStore, error) {
				return credential.NewFileStore(cfg.Backends.filePath(cfg.Backends.UsersFile), hasher)
			},
		}
		if b.postgres != nil {
			db := b.postgres
			choice.openEngine = func(ctx context.Context) (CredentialStore, error) {
				if cfg.Backends.MigrateOnStart {
					if err := credential.Migrate(ctx, db); err != nil {
						return nil, err
					}
				}
				return credential.NewPostgresStore(db, hasher), nil
			}
		}
		sel, err := chooseStore(ctx, log, cfg.Backends.ProbeTimeout, choice)
		if err != nil {
			return nil, err
		}
		credentials, report.Credential = sel.store, sel.backend
		if sel.fellBack {
			fallbacks = append(fallbacks, fallbackNotice{choice.store, choice.engine, sel.engineErr})
		}
	}

	// -------- SESSION STORE --------
	sessions := b.sessionStore
	if sessions == nil {
		choice := storeChoice[SessionStore]{
			store:  "session",
			mode:   cfg.Backends.Session,
			engine: BackendRedis,
			openFallback: func() (SessionStore, error) {
				return session.NewFileStore(cfg.Backends.filePath(cfg.Backends.SessionsFile), cfg.Session.TTL, session.WithClock(now))
			},
		}
		if b.redis != nil {
			client := b.redis
			choice.openEngine = func(context.Context) (SessionStore, error) {
				return session.NewRedisStore(client, cfg.Session.RedisPrefix, cfg.Session.TTL, session.WithClock(now)), nil
			}
		}
		sel, err := chooseStore(ctx, log, cfg.Backends.ProbeTimeout, choice)
		if err != nil {
			return nil, err
		}
		sessions, report.Session = sel.store, sel.backend
		if sel.fellBack {
			fallbacks = append(fallbacks, fallbackNotice{choice.store, choice.engine, sel.engineErr})
		}
	}

	// -------- PROFILE STORE --------
	profiles := b.profileStore
	if profiles == nil {
		choice := storeChoice[ProfileStore]{
			store:  "profile",
			mode:   cfg.Backends.Profile,
			engine: BackendSQLite,
			openFallback: func() (ProfileStore, error) {
				return profile.NewFileStore(cfg.Backends.filePath(cfg.Backends.ProfilesFile), profile.WithClock(now))
			},
		}
		if b.sqlite != nil {
			db := b.sqlite
			choice.openEngine = func(ctx context.Context) (ProfileStore, error) {
				return profile.NewSQLiteStore(ctx, db, profile.WithClock(now))
			}
		}
		sel, err := chooseStore(ctx, log, cfg.Backends.ProbeTimeout, choice)
		if err != nil {
			return nil, err
		}
		profiles, report.Profile = sel.store, sel.backend
		if sel.fellBack {
			fallbacks = append(fallbacks, fallbackNotice{choice.store, choice.engine, sel.engineErr})
		}
	}

	for _, f := range fallbacks {
		report.Fallbacks = append(report.Fallbacks, f.store)
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		credentials: credentials,
		sessions:    sessions,
		profiles:    profiles,
		backends:    report,
		log:         log,
		metrics:     NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	engine.flows = engine.buildFlowDeps()

	for _, f := range fallbacks {
		engine.metricInc(MetricBackendFallback)
		engine.emitAudit(ctx, auditEventBackendFallback, false, 0, ErrBackendUnavailable, func() map[string]string {
			return map[string]string{
				"store":  f.store,
				"engine": string(f.engine),
				"cause":  f.err.Error(),
			}
		})
	}

	log.Info(ctx, "account engine ready",
		"credential", string(report.Credential),
		"session", string(report.Session),
		"profile", string(report.Profile),
	)

	b.built = true
	return engine, nil
}

type fallbackNotice struct {
	store  string
	engine Backend
	err    error
}
