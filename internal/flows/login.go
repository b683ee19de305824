package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/credential"
	"github.com/MrEthical07/goAccount/session"
)

// LoginResult is the flow-local login response.
type LoginResult struct {
	User  *credential.User
	Token string
}

type LoginMetrics struct {
	Success        int
	Failure        int
	SessionCreated int
}

type LoginEvents struct {
	Success string
	Failure string
}

type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Authenticate  func(ctx context.Context, identifier, password string) (*credential.User, error)
	CreateSession func(ctx context.Context, owner session.Owner) (string, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin authenticates identifier (username or email) and opens a session.
// A failed authentication never touches the session store.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (*LoginResult, error) {
	normalizeHooks(&deps.MetricInc, &deps.EmitAudit)
	if deps.Authenticate == nil || deps.CreateSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if identifier == "" || password == "" {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, 0, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "missing_credentials"}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	user, err := deps.Authenticate(ctx, identifier, password)
	if err != nil {
		reason := "backend_error"
		if errors.Is(err, deps.Errors.InvalidCredentials) {
			reason = "invalid_credentials"
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, 0, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	token, err := deps.CreateSession(ctx, session.Owner{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, err, func() map[string]string {
			return map[string]string{"reason": "session_creation"}
		})
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, nil, nil)
	return &LoginResult{User: user, Token: token}, nil
}
