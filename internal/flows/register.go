package flows

import (
	"context"
	"errors"
)

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

type RegisterMetrics struct {
	Success   int
	Duplicate int
	Failure   int
}

type RegisterEvents struct {
	Success   string
	Duplicate string
	Failure   string
}

type RegisterErrors struct {
	EngineNotReady error
	InvalidInput   error
	Duplicate      error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	CreateUser func(ctx context.Context, username, email, password string) (int64, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister creates the account and returns its id. Blank fields are
// rejected before the store is touched.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (int64, error) {
	normalizeHooks(&deps.MetricInc, &deps.EmitAudit)
	if deps.CreateUser == nil {
		return 0, deps.Errors.EngineNotReady
	}

	meta := func() map[string]string {
		return map[string]string{"username": req.Username}
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, 0, deps.Errors.InvalidInput, meta)
		return 0, deps.Errors.InvalidInput
	}

	id, err := deps.CreateUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, deps.Errors.Duplicate) {
			deps.MetricInc(deps.Metrics.Duplicate)
			deps.EmitAudit(ctx, deps.Events.Duplicate, false, 0, err, meta)
			return 0, err
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, 0, err, meta)
		return 0, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, id, nil, meta)
	return id, nil
}
