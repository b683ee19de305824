package goAccount

import (
	"context"

	"github.com/MrEthical07/goAccount/credential"
	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/profile"
	"github.com/MrEthical07/goAccount/session"
)

type (
	// User is an account record; PasswordHash is never serialized.
	User = credential.User
	// Session is the state behind one session token.
	Session = session.Session
	// Profile is a user's profile document.
	Profile = profile.Profile
	// ProfileFields is a partial profile update; nil fields are left untouched.
	ProfileFields = profile.Fields
)

// CredentialStore registers users and checks their passwords.
// Implemented by credential.PostgresStore and credential.FileStore.
type CredentialStore interface {
	Register(ctx context.Context, username, email, password string) (int64, error)
	Authenticate(ctx context.Context, identifier, password string) (*User, error)
	Ping(ctx context.Context) error
}

// SessionStore issues and validates opaque session tokens with a sliding TTL.
// Implemented by session.RedisStore and session.FileStore.
type SessionStore interface {
	Create(ctx context.Context, owner session.Owner) (string, error)
	Validate(ctx context.Context, token string) (*Session, error)
	Destroy(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}

// ProfileStore keeps one profile document per user.
// Implemented by profile.SQLiteStore and profile.FileStore. Deletion is the
// optional profile.Deleter capability.
type ProfileStore interface {
	Get(ctx context.Context, userID int64) (*Profile, error)
	Upsert(ctx context.Context, userID int64, f ProfileFields) (*Profile, error)
	Ping(ctx context.Context) error
}

// sessionPurger is implemented by session backends without native expiry.
type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// sessionTaker is implemented by session backends that can remove a session
// and report its owner in one step.
type sessionTaker interface {
	Take(ctx context.Context, token string) (*Session, error)
}

// Backend names the storage a store ended up on.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendSQLite   Backend = "sqlite"
	BackendFile     Backend = "file"
	// BackendCustom marks a store injected through the Builder.
	BackendCustom Backend = "custom"
)

// BackendReport describes which backend each store runs on.
type BackendReport struct {
	Credential Backend `json:"credential"`
	Session    Backend `json:"session"`
	Profile    Backend `json:"profile"`
	// Fallbacks lists the stores whose engine was unreachable at Build.
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// Audit types are shared with the internal dispatcher.
type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	LoggerSink     = audit.LoggerSink
)

var (
	NewChannelSink    = audit.NewChannelSink
	NewJSONWriterSink = audit.NewJSONWriterSink
	NewLoggerSink     = audit.NewLoggerSink
)
