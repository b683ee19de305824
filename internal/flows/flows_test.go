package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/credential"
	"github.com/MrEthical07/goAccount/profile"
	"github.com/MrEthical07/goAccount/session"
)

var (
	errNotReady    = errors.New("not ready")
	errInvalid     = errors.New("invalid input")
	errDuplicate   = errors.New("duplicate")
	errBadCreds    = errors.New("invalid credentials")
	errTokenNeeded = errors.New("token required")
	errUnsupported = errors.New("unsupported")
)

type recordedEvent struct {
	eventType string
	success   bool
	userID    int64
	err       error
	metadata  map[string]string
}

type recorder struct {
	mu      sync.Mutex
	metrics map[int]int
	events  []recordedEvent
}

func newRecorder() *recorder {
	return &recorder{metrics: map[int]int{}}
}

func (r *recorder) inc(id int) {
	r.mu.Lock()
	r.metrics[id]++
	r.mu.Unlock()
}

func (r *recorder) audit(_ context.Context, eventType string, success bool, userID int64, err error, meta func() map[string]string) {
	ev := recordedEvent{eventType: eventType, success: success, userID: userID, err: err}
	if meta != nil {
		ev.metadata = meta()
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) last(t *testing.T) recordedEvent {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("expected an audit event")
	}
	return r.events[len(r.events)-1]
}

func registerDeps(r *recorder, create func(context.Context, string, string, string) (int64, error)) RegisterDeps {
	return RegisterDeps{
		CreateUser: create,
		MetricInc:  r.inc,
		EmitAudit:  r.audit,
		Metrics:    RegisterMetrics{Success: 1, Duplicate: 2, Failure: 3},
		Events:     RegisterEvents{Success: "ok", Duplicate: "dup", Failure: "fail"},
		Errors:     RegisterErrors{EngineNotReady: errNotReady, InvalidInput: errInvalid, Duplicate: errDuplicate},
	}
}

func TestRunRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := newRecorder()
		id, err := RunRegister(context.Background(), RegisterRequest{"alice", "a@x.com", "secret1"},
			registerDeps(r, func(context.Context, string, string, string) (int64, error) { return 7, nil }))
		if err != nil || id != 7 {
			t.Fatalf("expected id 7, got %d, %v", id, err)
		}
		if r.metrics[1] != 1 {
			t.Fatalf("success metric not incremented: %v", r.metrics)
		}
		if ev := r.last(t); ev.eventType != "ok" || !ev.success || ev.userID != 7 || ev.metadata["username"] != "alice" {
			t.Fatalf("unexpected event %+v", ev)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		r := newRecorder()
		_, err := RunRegister(context.Background(), RegisterRequest{"alice", "a@x.com", "secret1"},
			registerDeps(r, func(context.Context, string, string, string) (int64, error) {
				return 0, fmt.Errorf("wrapped: %w", errDuplicate)
			}))
		if !errors.Is(err, errDuplicate) {
			t.Fatalf("expected duplicate, got %v", err)
		}
		if r.metrics[2] != 1 || r.last(t).eventType != "dup" {
			t.Fatalf("duplicate not recorded: %v %+v", r.metrics, r.events)
		}
	})

	t.Run("blank fields skip the store", func(t *testing.T) {
		r := newRecorder()
		called := false
		_, err := RunRegister(context.Background(), RegisterRequest{Username: "alice"},
			registerDeps(r, func(context.Context, string, string, string) (int64, error) {
				called = true
				return 1, nil
			}))
		if !errors.Is(err, errInvalid) || called {
			t.Fatalf("expected invalid input without store call, got %v (called=%v)", err, called)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		_, err := RunRegister(context.Background(), RegisterRequest{}, RegisterDeps{Errors: RegisterErrors{EngineNotReady: errNotReady}})
		if !errors.Is(err, errNotReady) {
			t.Fatalf("expected not ready, got %v", err)
		}
	})
}

func loginDeps(r *recorder, sessions *int) LoginDeps {
	return LoginDeps{
		Authenticate: func(_ context.Context, identifier, password string) (*credential.User, error) {
			if identifier == "alice" && password == "secret1" {
				return &credential.User{ID: 1, Username: "alice", Email: "a@x.com"}, nil
			}
			return nil, errBadCreds
		},
		CreateSession: func(_ context.Context, owner session.Owner) (string, error) {
			*sessions++
			return fmt.Sprintf("token-%d", owner.UserID), nil
		},
		MetricInc: r.inc,
		EmitAudit: r.audit,
		Metrics:   LoginMetrics{Success: 1, Failure: 2, SessionCreated: 3},
		Events:    LoginEvents{Success: "login_ok", Failure: "login_fail"},
		Errors:    LoginErrors{EngineNotReady: errNotReady, InvalidCredentials: errBadCreds},
	}
}

func TestRunLoginCreatesSession(t *testing.T) {
	r := newRecorder()
	sessions := 0
	res, err := RunLogin(context.Background(), "alice", "secret1", loginDeps(r, &sessions))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token != "token-1" || res.User.Username != "alice" || sessions != 1 {
		t.Fatalf("unexpected result %+v (sessions=%d)", res, sessions)
	}
	if r.metrics[1] != 1 || r.metrics[3] != 1 {
		t.Fatalf("expected success and session metrics, got %v", r.metrics)
	}
}

func TestRunLoginFailureHasNoSessionSideEffect(t *testing.T) {
	for _, tc := range []struct{ identifier, password string }{
		{"alice", "wrong"},
		{"nobody", "secret1"},
		{"", "secret1"},
		{"alice", ""},
	} {
		r := newRecorder()
		sessions := 0
		_, err := RunLogin(context.Background(), tc.identifier, tc.password, loginDeps(r, &sessions))
		if !errors.Is(err, errBadCreds) {
			t.Fatalf("%q/%q: expected invalid credentials, got %v", tc.identifier, tc.password, err)
		}
		if sessions != 0 {
			t.Fatalf("%q/%q: session created on failed login", tc.identifier, tc.password)
		}
		if ev := r.last(t); ev.eventType != "login_fail" || ev.success {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

func TestRunLoginSessionFailurePropagates(t *testing.T) {
	r := newRecorder()
	sessions := 0
	deps := loginDeps(r, &sessions)
	storeErr := errors.New("redis down")
	deps.CreateSession = func(context.Context, session.Owner) (string, error) { return "", storeErr }

	if _, err := RunLogin(context.Background(), "alice", "secret1", deps); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if ev := r.last(t); ev.metadata["reason"] != "session_creation" || ev.userID != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func validateDeps(r *recorder, validate func(context.Context, string) (*session.Session, error)) ValidateDeps {
	return ValidateDeps{
		Validate:  validate,
		MetricInc: r.inc,
		EmitAudit: r.audit,
		Metrics:   ValidateMetrics{Validated: 1, Invalid: 2, Expired: 3},
		Events:    ValidateEvents{Invalid: "invalid", Expired: "expired"},
		Errors: ValidateErrors{
			EngineNotReady: errNotReady,
			TokenRequired:  errTokenNeeded,
			Invalid:        session.ErrInvalidOrExpired,
			Expired:        session.ErrExpired,
		},
	}
}

func TestRunValidateClassifiesFailures(t *testing.T) {
	ctx := context.Background()

	r := newRecorder()
	_, err := RunValidate(ctx, "tok", validateDeps(r, func(context.Context, string) (*session.Session, error) {
		return nil, session.ErrExpired
	}))
	if !errors.Is(err, session.ErrExpired) || r.metrics[3] != 1 || r.last(t).eventType != "expired" {
		t.Fatalf("expired not classified: %v %v %+v", err, r.metrics, r.events)
	}

	r = newRecorder()
	_, err = RunValidate(ctx, "tok", validateDeps(r, func(context.Context, string) (*session.Session, error) {
		return nil, session.ErrNotFound
	}))
	if !errors.Is(err, session.ErrInvalidOrExpired) || r.metrics[2] != 1 || len(r.events) != 0 {
		t.Fatalf("unknown token not classified: %v %v %+v", err, r.metrics, r.events)
	}

	r = newRecorder()
	if _, err := RunValidate(ctx, "", validateDeps(r, nil)); !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready for nil validate, got %v", err)
	}
}

func TestRunValidateRejectsMalformedTokenWithoutStore(t *testing.T) {
	r := newRecorder()
	called := false
	deps := validateDeps(r, func(context.Context, string) (*session.Session, error) {
		called = true
		return &session.Session{}, nil
	})
	deps.WellFormed = func(string) bool { return false }

	if _, err := RunValidate(context.Background(), "zz", deps); !errors.Is(err, session.ErrInvalidOrExpired) || called {
		t.Fatalf("expected rejection without store call, got %v (called=%v)", err, called)
	}
	if _, err := RunValidate(context.Background(), "", deps); !errors.Is(err, errTokenNeeded) {
		t.Fatalf("expected token required, got %v", err)
	}
}

func TestRunValidateObservesLatency(t *testing.T) {
	r := newRecorder()
	var observed []time.Duration
	base := time.Unix(1700000000, 0)
	calls := 0
	deps := validateDeps(r, func(context.Context, string) (*session.Session, error) {
		return &session.Session{UserID: 4}, nil
	})
	deps.Now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 3 * time.Millisecond)
	}
	deps.Observe = func(d time.Duration) { observed = append(observed, d) }

	sess, err := RunValidate(context.Background(), "tok", deps)
	if err != nil || sess.UserID != 4 {
		t.Fatalf("validate: %+v, %v", sess, err)
	}
	if len(observed) != 1 || observed[0] != 3*time.Millisecond {
		t.Fatalf("unexpected observations %v", observed)
	}
	if r.metrics[1] != 1 {
		t.Fatalf("validated metric not incremented: %v", r.metrics)
	}
}

func TestRunLogout(t *testing.T) {
	r := newRecorder()
	destroyed := ""
	deps := LogoutDeps{
		Destroy:      func(_ context.Context, token string) error { destroyed = token; return nil },
		MetricInc:    r.inc,
		EmitAudit:    r.audit,
		LogoutMetric: 9,
		LogoutEvent:  "logout",
		Errors:       LogoutErrors{EngineNotReady: errNotReady, TokenRequired: errTokenNeeded},
	}

	if err := RunLogout(context.Background(), "tok", deps); err != nil || destroyed != "tok" {
		t.Fatalf("logout: %v (destroyed=%q)", err, destroyed)
	}
	if r.metrics[9] != 1 || !r.last(t).success {
		t.Fatalf("logout not recorded: %v %+v", r.metrics, r.events)
	}
	if err := RunLogout(context.Background(), "", deps); !errors.Is(err, errTokenNeeded) {
		t.Fatalf("expected token required, got %v", err)
	}
}

func TestRunLogoutTakeReportsOwner(t *testing.T) {
	r := newRecorder()
	deps := LogoutDeps{
		Take: func(_ context.Context, token string) (int64, error) {
			if token == "tok" {
				return 42, nil
			}
			return 0, nil
		},
		MetricInc:    r.inc,
		EmitAudit:    r.audit,
		LogoutMetric: 9,
		LogoutEvent:  "logout",
		Errors:       LogoutErrors{EngineNotReady: errNotReady, TokenRequired: errTokenNeeded},
	}

	if err := RunLogout(context.Background(), "tok", deps); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ev := r.last(t); !ev.success || ev.userID != 42 {
		t.Fatalf("expected owner on logout event, got %+v", ev)
	}
	if err := RunLogout(context.Background(), "unknown", deps); err != nil {
		t.Fatalf("logout of unknown token: %v", err)
	}
	if ev := r.last(t); !ev.success || ev.userID != 0 {
		t.Fatalf("unknown token should log out without owner, got %+v", ev)
	}

	takeErr := errors.New("store down")
	deps.Take = func(context.Context, string) (int64, error) { return 0, takeErr }
	if err := RunLogout(context.Background(), "tok", deps); !errors.Is(err, takeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if r.metrics[9] != 2 || r.last(t).success {
		t.Fatalf("failed logout must not count: %v %+v", r.metrics, r.events)
	}
	if err := RunLogout(context.Background(), "tok", LogoutDeps{Errors: deps.Errors}); !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}

func profileDeps(r *recorder, store *profile.FileStore) ProfileDeps {
	return ProfileDeps{
		Get:       store.Get,
		Upsert:    store.Upsert,
		Delete:    store.Delete,
		MetricInc: r.inc,
		EmitAudit: r.audit,
		Metrics:   ProfileMetrics{Read: 1, NotFound: 2, Updated: 3, Deleted: 4},
		Events:    ProfileEvents{Updated: "updated", Deleted: "deleted"},
		Errors:    ProfileErrors{EngineNotReady: errNotReady, NotFound: profile.ErrNotFound, Unsupported: errUnsupported},
	}
}

func TestProfileFlows(t *testing.T) {
	store, err := profile.NewFileStore(t.TempDir() + "/profiles.json")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()
	r := newRecorder()
	deps := profileDeps(r, store)

	if _, err := RunGetProfile(ctx, 1, deps); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bio := "hi"
	p, err := RunUpdateProfile(ctx, 1, profile.Fields{Bio: &bio}, deps)
	if err != nil || p.Bio != "hi" {
		t.Fatalf("update: %+v, %v", p, err)
	}
	if ev := r.last(t); ev.eventType != "updated" || ev.metadata["fields"] != "bio" {
		t.Fatalf("unexpected event %+v", ev)
	}

	if err := RunDeleteProfile(ctx, 1, deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if r.metrics[1] != 0 || r.metrics[2] != 1 || r.metrics[3] != 1 || r.metrics[4] != 1 {
		t.Fatalf("unexpected metrics %v", r.metrics)
	}

	deps.Delete = nil
	if err := RunDeleteProfile(ctx, 1, deps); !errors.Is(err, errUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}
