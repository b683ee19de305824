package goAccount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/profile"
)

// Engine coordinates the credential, session and profile stores.
//
// Engine instances are built once by [Builder] and are safe for concurrent
// use. They do not own the engine clients passed to the Builder.
type Engine struct {
	config      Config
	credentials CredentialStore
	sessions    SessionStore
	profiles    ProfileStore
	backends    BackendReport
	flows       flows.Deps
	audit       *audit.Dispatcher
	metrics     *Metrics
	log         logging.Logger
}

// Close flushes pending audit events. It does not close engine clients.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.audit.Close(ctx); err != nil {
		e.log.Warn(ctx, "audit drain incomplete", "error", err, "dropped", e.audit.Dropped())
	}
}

// AuditDropped returns how many audit events were discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Backends reports which backend each store runs on.
func (e *Engine) Backends() BackendReport {
	if e == nil {
		return BackendReport{}
	}
	out := e.backends
	out.Fallbacks = append([]string(nil), e.backends.Fallbacks...)
	return out
}

// SessionTTL returns the configured sliding lifetime.
func (e *Engine) SessionTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Session.TTL
}

// CanDeleteProfiles reports whether the active profile backend supports deletion.
func (e *Engine) CanDeleteProfiles() bool {
	if e == nil {
		return false
	}
	_, ok := e.profiles.(profile.Deleter)
	return ok
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
OPERATIONS
====================================
*/

// Register creates an account. On success Result.UserID holds the new id.
func (e *Engine) Register(ctx context.Context, username, email, pw string) Result {
	if e == nil {
		return failed("Registration", ErrEngineNotReady)
	}

	id, err := flows.RunRegister(ctx, flows.RegisterRequest{
		Username: username,
		Email:    email,
		Password: pw,
	}, e.flows.Register)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return fail(MsgDuplicate, err)
		case errors.Is(err, ErrInvalidInput):
			return fail(MsgMissingFields, err)
		case errors.Is(err, password.ErrPasswordTooShort):
			return fail(MsgPasswordTooShort, err)
		case errors.Is(err, password.ErrPasswordTooLong):
			return fail(MsgPasswordTooLong, err)
		}
		return e.storageFailure(ctx, "Registration", err)
	}

	res := ok(MsgRegistered)
	res.UserID = id
	return res
}

// Login authenticates identifier (username or email) and opens a session.
// Unknown users and wrong passwords produce the same Result.
func (e *Engine) Login(ctx context.Context, identifier, pw string) Result {
	if e == nil {
		return failed("Login", ErrEngineNotReady)
	}

	out, err := flows.RunLogin(ctx, identifier, pw, e.flows.Login)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fail(MsgInvalidCreds, err)
		}
		return e.storageFailure(ctx, "Login", err)
	}

	res := ok(MsgLoginSuccess)
	res.UserID = out.User.ID
	res.SessionToken = out.Token
	res.User = out.User
	return res
}

// ValidateSession checks token and slides its expiry. An expired session is
// deleted as a side effect.
func (e *Engine) ValidateSession(ctx context.Context, token string) Result {
	if e == nil {
		return failed("Session validation", ErrEngineNotReady)
	}

	sess, err := flows.RunValidate(ctx, token, e.flows.Validate)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionTokenRequired):
			return fail(MsgTokenRequired, err)
		case errors.Is(err, ErrInvalidOrExpiredSession):
			return fail(MsgInvalidSession, err)
		}
		return e.storageFailure(ctx, "Session validation", err)
	}

	res := ok(MsgSessionValid)
	res.UserID = sess.UserID
	res.Session = sess
	return res
}

// Logout destroys the session. Logging out an unknown token succeeds.
func (e *Engine) Logout(ctx context.Context, token string) Result {
	if e == nil {
		return failed("Logout", ErrEngineNotReady)
	}

	if err := flows.RunLogout(ctx, token, e.flows.Logout); err != nil {
		if errors.Is(err, ErrSessionTokenRequired) {
			return fail(MsgTokenRequired, err)
		}
		return e.storageFailure(ctx, "Logout", err)
	}
	return ok(MsgLogout)
}

// GetProfile returns the profile of userID.
func (e *Engine) GetProfile(ctx context.Context, userID int64) Result {
	if e == nil {
		return failed("Profile retrieval", ErrEngineNotReady)
	}

	p, err := flows.RunGetProfile(ctx, userID, e.flows.Profile)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(MsgProfileNotFound, err)
		}
		return e.storageFailure(ctx, "Profile retrieval", err)
	}

	res := ok(MsgProfileFound)
	res.UserID = userID
	res.Profile = p
	return res
}

// UpdateProfile shallow-merges f into the profile of userID, creating it on
// first write.
func (e *Engine) UpdateProfile(ctx context.Context, userID int64, f ProfileFields) Result {
	if e == nil {
		return failed("Profile update", ErrEngineNotReady)
	}

	p, err := flows.RunUpdateProfile(ctx, userID, f, e.flows.Profile)
	if err != nil {
		return e.storageFailure(ctx, "Profile update", err)
	}

	res := ok(MsgProfileUpdated)
	res.UserID = userID
	res.Profile = p
	return res
}

// DeleteProfile removes the profile of userID. Backends without the
// profile.Deleter capability return ErrCapabilityUnsupported.
func (e *Engine) DeleteProfile(ctx context.Context, userID int64) Result {
	if e == nil {
		return failed("Profile deletion", ErrEngineNotReady)
	}

	if err := flows.RunDeleteProfile(ctx, userID, e.flows.Profile); err != nil {
		switch {
		case errors.Is(err, ErrCapabilityUnsupported):
			return fail(MsgDeleteUnsupported, err)
		case errors.Is(err, ErrNotFound):
			return fail(MsgProfileNotFound, err)
		}
		return e.storageFailure(ctx, "Profile deletion", err)
	}

	res := ok(MsgProfileDeleted)
	res.UserID = userID
	return res
}

// PurgeExpiredSessions removes expired records from session backends that
// lack native expiry. It returns 0 for Redis.
func (e *Engine) PurgeExpiredSessions(ctx context.Context) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	purger, supported := e.sessions.(sessionPurger)
	if !supported {
		return 0, nil
	}

	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		return 0, storageError(err)
	}
	if n > 0 {
		e.metrics.Add(MetricSessionsPurged, uint64(n))
		e.emitAudit(ctx, auditEventSessionsPurged, true, 0, nil, func() map[string]string {
			return map[string]string{"count": fmt.Sprint(n)}
		})
	}
	return n, nil
}

// Ping probes every store.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.credentials.Ping(ctx); err != nil {
		return fmt.Errorf("credential store: %w", storageError(err))
	}
	if err := e.sessions.Ping(ctx); err != nil {
		return fmt.Errorf("session store: %w", storageError(err))
	}
	if err := e.profiles.Ping(ctx); err != nil {
		return fmt.Errorf("profile store: %w", storageError(err))
	}
	return nil
}

// storageFailure logs err and returns the generic "<op> failed" result.
// Details never reach Result.Message.
func (e *Engine) storageFailure(ctx context.Context, op string, err error) Result {
	err = storageError(err)
	e.log.Error(ctx, "storage operation failed", "operation", op, "error", err)
	return failed(op, err)
}

// storageError wraps unclassified store failures in ErrBackendUnavailable.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

func isPasswordPolicy(err error) bool {
	return errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong)
}

/*
====================================
FLOW WIRING
====================================
*/

func (e *Engine) buildFlowDeps() flows.Deps {
	metricInc := func(id int) { e.metricInc(MetricID(id)) }

	profileDeps := flows.ProfileDeps{
		Get:       e.profiles.Get,
		Upsert:    e.profiles.Upsert,
		MetricInc: metricInc,
		EmitAudit: e.emitAudit,
		Metrics: flows.ProfileMetrics{
			Read:     int(MetricProfileRead),
			NotFound: int(MetricProfileNotFound),
			Updated:  int(MetricProfileUpdated),
			Deleted:  int(MetricProfileDeleted),
		},
		Events: flows.ProfileEvents{
			Updated: auditEventProfileUpdated,
			Deleted: auditEventProfileDeleted,
		},
		Errors: flows.ProfileErrors{
			EngineNotReady: ErrEngineNotReady,
			NotFound:       ErrNotFound,
			Unsupported:    ErrCapabilityUnsupported,
		},
	}
	if d, ok := e.profiles.(profile.Deleter); ok {
		profileDeps.Delete = d.Delete
	}

	validateDeps := flows.ValidateDeps{
		Validate:  e.sessions.Validate,
		MetricInc: metricInc,
		EmitAudit: e.emitAudit,
		Metrics: flows.ValidateMetrics{
			Validated: int(MetricSessionValidated),
			Invalid:   int(MetricSessionInvalid),
			Expired:   int(MetricSessionExpired),
		},
		Events: flows.ValidateEvents{
			Invalid: auditEventSessionInvalid,
			Expired: auditEventSessionExpired,
		},
		Errors: flows.ValidateErrors{
			EngineNotReady: ErrEngineNotReady,
			TokenRequired:  ErrSessionTokenRequired,
			Invalid:        ErrInvalidOrExpiredSession,
			Expired:        ErrSessionExpired,
		},
	}
	// Injected stores may issue tokens in their own format.
	if e.backends.Session != BackendCustom {
		validateDeps.WellFormed = internal.ValidSessionToken
	}
	logoutDeps := flows.LogoutDeps{
		Destroy:      e.sessions.Destroy,
		MetricInc:    metricInc,
		EmitAudit:    e.emitAudit,
		LogoutMetric: int(MetricLogout),
		LogoutEvent:  auditEventLogout,
		Errors: flows.LogoutErrors{
			EngineNotReady: ErrEngineNotReady,
			TokenRequired:  ErrSessionTokenRequired,
		},
	}
	if t, ok := e.sessions.(sessionTaker); ok {
		logoutDeps.Take = func(ctx context.Context, token string) (int64, error) {
			sess, err := t.Take(ctx, token)
			if err != nil || sess == nil {
				return 0, err
			}
			return sess.UserID, nil
		}
	}

	if e.metrics.LatencyEnabled() {
		validateDeps.Now = time.Now
		validateDeps.Observe = func(d time.Duration) {
			e.metrics.Observe(MetricValidateLatency, d)
		}
	}

	return flows.Deps{
		Register: flows.RegisterDeps{
			CreateUser: e.credentials.Register,
			MetricInc:  metricInc,
			EmitAudit:  e.emitAudit,
			Metrics: flows.RegisterMetrics{
				Success:   int(MetricRegisterSuccess),
				Duplicate: int(MetricRegisterDuplicate),
				Failure:   int(MetricRegisterFailure),
			},
			Events: flows.RegisterEvents{
				Success:   auditEventRegisterSuccess,
				Duplicate: auditEventRegisterDuplicate,
				Failure:   auditEventRegisterFailure,
			},
			Errors: flows.RegisterErrors{
				EngineNotReady: ErrEngineNotReady,
				InvalidInput:   ErrInvalidInput,
				Duplicate:      ErrDuplicate,
			},
		},
		Login: flows.LoginDeps{
			Authenticate:  e.credentials.Authenticate,
			CreateSession: e.sessions.Create,
			MetricInc:     metricInc,
			EmitAudit:     e.emitAudit,
			Metrics: flows.LoginMetrics{
				Success:        int(MetricLoginSuccess),
				Failure:        int(MetricLoginFailure),
				SessionCreated: int(MetricSessionCreated),
			},
			Events: flows.LoginEvents{
				Success: auditEventLoginSuccess,
				Failure: auditEventLoginFailure,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
			},
		},
		Validate: validateDeps,
		Logout:   logoutDeps,
		Profile:  profileDeps,
	}
}
