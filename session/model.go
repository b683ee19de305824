package session

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is the sliding lifetime applied when a store is built with ttl <= 0.
const DefaultTTL = time.Hour

// ErrInvalidOrExpired is the parent of every validation failure.
var ErrInvalidOrExpired = errors.New("invalid or expired session")

// ErrNotFound is returned when no record exists for the token.
var ErrNotFound = fmt.Errorf("%w: invalid session", ErrInvalidOrExpired)

// ErrExpired is returned when the record existed but its expiry had passed.
// The record is deleted before ErrExpired is returned.
var ErrExpired = fmt.Errorf("%w: session expired", ErrInvalidOrExpired)

// ErrRedisUnavailable wraps Redis transport and protocol failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Session is the state behind one opaque token.
//
// A session is ACTIVE from Create until either Destroy or the first Validate
// that observes now > ExpiresAt; both transitions delete the record.
type Session struct {
	Token     string    `json:"session_token,omitempty"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	LoginTime time.Time `json:"login_time"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Owner identifies the authenticated user a session is issued for.
type Owner struct {
	UserID   int64
	Username string
	Email    string
}

// Expired reports whether the session is past its expiry at now.
// A session is still valid at exactly ExpiresAt; resolution is one second.
func (s *Session) Expired(now time.Time) bool {
	return now.Unix() > s.ExpiresAt.Unix()
}

type options struct {
	now func() time.Time
}

// Option customizes a session store.
type Option func(*options)

// WithClock overrides the time source; tests use it to step past expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

func newSession(token string, owner Owner, now time.Time, ttl time.Duration) *Session {
	now = now.Truncate(time.Second)
	return &Session{
		Token:     token,
		UserID:    owner.UserID,
		Username:  owner.Username,
		Email:     owner.Email,
		LoginTime: now,
		ExpiresAt: now.Add(ttl),
	}
}
