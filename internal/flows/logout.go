package flows

import "context"

type LogoutErrors struct {
	EngineNotReady error
	TokenRequired  error
}

// LogoutDeps captures logout dependencies. Take, when set, removes the session
// and reports its owner (0 when absent); otherwise Destroy is used and the
// audit event carries no user.
type LogoutDeps struct {
	Destroy func(ctx context.Context, token string) error
	Take    func(ctx context.Context, token string) (int64, error)

	MetricInc    func(int)
	EmitAudit    AuditFunc
	LogoutMetric int
	LogoutEvent  string

	Errors LogoutErrors
}

// RunLogout destroys the session behind token. Destroying an unknown token
// succeeds.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) error {
	normalizeHooks(&deps.MetricInc, &deps.EmitAudit)
	if deps.Destroy == nil && deps.Take == nil {
		return deps.Errors.EngineNotReady
	}
	if token == "" {
		return deps.Errors.TokenRequired
	}

	var (
		userID int64
		err    error
	)
	if deps.Take != nil {
		userID, err = deps.Take(ctx, token)
	} else {
		err = deps.Destroy(ctx, token)
	}
	if err != nil {
		deps.EmitAudit(ctx, deps.LogoutEvent, false, 0, err, nil)
		return err
	}

	deps.MetricInc(deps.LogoutMetric)
	deps.EmitAudit(ctx, deps.LogoutEvent, true, userID, nil, nil)
	return nil
}
