package goAccount

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withAudit(sink AuditSink) func(*Config, *Builder) {
	return func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 64
		cfg.Audit.DropIfFull = false
		b.WithAuditSink(sink)
	}
}

// drainEvents closes the engine so the dispatcher flushes, then collects
// everything the sink received.
func drainEvents(t *testing.T, env *testEnv, sink *ChannelSink) []AuditEvent {
	t.Helper()
	env.engine.Close()

	var out []AuditEvent
	for {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(events []AuditEvent) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.EventType)
	}
	return types
}

func TestAuditAccountLifecycle(t *testing.T) {
	sink := NewChannelSink(64)
	env := newTestEnv(t, withAudit(sink))

	ctx := WithClientIP(env.ctx, "203.0.113.9")
	ctx = WithUserAgent(ctx, "curl/8.0")
	ctx = WithRequestID(ctx, "req-1")

	require.True(t, env.engine.Register(ctx, "alice", "alice@example.com", "secret1").Success)
	login := env.engine.Login(ctx, "alice", "secret1")
	require.True(t, login.Success)
	require.True(t, env.engine.UpdateProfile(ctx, 1, ProfileFields{Bio: strPtr("hi")}).Success)
	require.True(t, env.engine.Logout(ctx, login.SessionToken).Success)

	events := drainEvents(t, env, sink)
	assert.Equal(t, []string{
		auditEventRegisterSuccess,
		auditEventLoginSuccess,
		auditEventProfileUpdated,
		auditEventLogout,
	}, eventTypes(events))

	for _, ev := range events {
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
		assert.Equal(t, "1", ev.UserID, ev.EventType)
		assert.Equal(t, "203.0.113.9", ev.IP)
		assert.Equal(t, "curl/8.0", ev.UserAgent)
		assert.Equal(t, "req-1", ev.Metadata["request_id"])
		assert.True(t, ev.Success)
	}
	assert.Equal(t, "bio", events[2].Metadata["fields"])
}

func TestAuditLogoutOwnerOnRedis(t *testing.T) {
	sink := NewChannelSink(64)
	_, client := newTestRedis(t)
	env := newTestEnv(t, withAudit(sink), func(cfg *Config, b *Builder) {
		cfg.Backends.Session = ModeEngine
		b.WithRedis(client)
	})

	token := env.registerAndLogin(t, "alice", "alice@example.com", "secret1")
	require.True(t, env.engine.Logout(env.ctx, token).Success)
	require.True(t, env.engine.Logout(env.ctx, token).Success)

	var logouts []AuditEvent
	for _, ev := range drainEvents(t, env, sink) {
		if ev.EventType == auditEventLogout {
			logouts = append(logouts, ev)
		}
	}
	require.Len(t, logouts, 2)
	assert.Equal(t, "1", logouts[0].UserID)
	assert.Empty(t, logouts[1].UserID)
}

func TestAuditNeverCarriesSecrets(t *testing.T) {
	sink := NewChannelSink(64)
	env := newTestEnv(t, withAudit(sink))

	token := env.registerAndLogin(t, "alice", "alice@example.com", "hunter22")
	env.engine.Login(env.ctx, "alice", "wrong-password")
	env.clock.Advance(2 * time.Hour)
	env.engine.ValidateSession(env.ctx, token)
	env.engine.Logout(env.ctx, token)

	events := drainEvents(t, env, sink)
	require.NotEmpty(t, events)

	for _, ev := range events {
		raw, err := json.Marshal(ev)
		require.NoError(t, err)
		s := string(raw)
		assert.NotContains(t, s, token)
		assert.NotContains(t, s, "hunter22")
		assert.NotContains(t, s, "wrong-password")
		assert.NotContains(t, s, "$argon2id$")
	}
}

func TestAuditFailureReasons(t *testing.T) {
	sink := NewChannelSink(64)
	env := newTestEnv(t, withAudit(sink))

	require.True(t, env.engine.Register(env.ctx, "alice", "alice@example.com", "secret1").Success)
	env.engine.Register(env.ctx, "alice", "other@example.com", "secret1")
	env.engine.Login(env.ctx, "alice", "nope-nope")
	env.engine.Login(env.ctx, "", "")

	events := drainEvents(t, env, sink)
	require.Len(t, events, 4)

	dup := events[1]
	assert.Equal(t, auditEventRegisterDuplicate, dup.EventType)
	assert.False(t, dup.Success)
	assert.Equal(t, string(auditErrDuplicate), dup.Error)
	assert.Equal(t, "alice", dup.Metadata["username"])

	wrong := events[2]
	assert.Equal(t, auditEventLoginFailure, wrong.EventType)
	assert.Equal(t, string(auditErrInvalidCredentials), wrong.Error)
	assert.Equal(t, "invalid_credentials", wrong.Metadata["reason"])
	assert.Empty(t, wrong.UserID)

	missing := events[3]
	assert.Equal(t, "missing_credentials", missing.Metadata["reason"])
}

func TestAuditSessionExpired(t *testing.T) {
	sink := NewChannelSink(64)
	env := newTestEnv(t, withAudit(sink))

	token := env.registerAndLogin(t, "alice", "alice@example.com", "secret1")
	env.clock.Advance(time.Hour + time.Second)
	require.False(t, env.engine.ValidateSession(env.ctx, token).Success)
	// An unknown token is counted, not audited.
	require.False(t, env.engine.ValidateSession(env.ctx, strings.Repeat("0", 64)).Success)

	events := drainEvents(t, env, sink)
	types := eventTypes(events)
	assert.Equal(t, []string{auditEventRegisterSuccess, auditEventLoginSuccess, auditEventSessionExpired}, types)
	assert.Equal(t, string(auditErrSessionExpired), events[2].Error)
	assert.Empty(t, events[2].UserID)
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := NewChannelSink(8)
	env := newTestEnv(t, func(_ *Config, b *Builder) {
		b.WithAuditSink(sink)
	})

	env.registerAndLogin(t, "alice", "alice@example.com", "secret1")
	env.engine.Close()

	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event with audit disabled: %+v", ev)
	default:
	}
	assert.Zero(t, env.engine.AuditDropped())
}

func TestAuditDropIfFullDoesNotBlockOperations(t *testing.T) {
	gate := make(chan struct{})
	blocking := blockingSink{gate: gate}
	env := newTestEnv(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 1
		cfg.Audit.DropIfFull = true
		b.WithAuditSink(blocking)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			env.engine.Login(env.ctx, "ghost", "whatever")
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("operations blocked on a full audit buffer")
	}
	assert.Positive(t, env.engine.AuditDropped())
	close(gate)
}

type blockingSink struct {
	gate chan struct{}
}

func (s blockingSink) Emit(ctx context.Context, _ AuditEvent) {
	select {
	case <-s.gate:
	case <-ctx.Done():
	}
}

func TestAuditErrorCodeClassification(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrDuplicate, auditErrDuplicate},
		{ErrInvalidCredentials, auditErrInvalidCredentials},
		{ErrSessionExpired, auditErrSessionExpired},
		{ErrInvalidOrExpiredSession, auditErrSessionInvalid},
		{ErrNotFound, auditErrNotFound},
		{ErrCapabilityUnsupported, auditErrUnsupported},
		{ErrBackendUnavailable, auditErrUnavailable},
		{context.Canceled, auditErrCanceled},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, auditErrorCode(tc.err), "%v", tc.err)
	}
}
