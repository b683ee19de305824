package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/session"
)

type ValidateMetrics struct {
	Validated int
	Invalid   int
	Expired   int
}

type ValidateEvents struct {
	Invalid string
	Expired string
}

type ValidateErrors struct {
	EngineNotReady error
	TokenRequired  error
	Invalid        error
	Expired        error
}

// ValidateDeps captures session validation dependencies.
type ValidateDeps struct {
	Validate func(ctx context.Context, token string) (*session.Session, error)
	// WellFormed rejects tokens that could never have been issued without a
	// store round-trip. Optional.
	WellFormed func(token string) bool
	Now        func() time.Time
	Observe    func(time.Duration)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics ValidateMetrics
	Events  ValidateEvents
	Errors  ValidateErrors
}

// RunValidate checks token and, on success, returns the session with its
// extended expiry. Expired sessions are audited; unknown tokens are only
// counted.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) (*session.Session, error) {
	normalizeHooks(&deps.MetricInc, &deps.EmitAudit)
	if deps.Validate == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if token == "" {
		return nil, deps.Errors.TokenRequired
	}
	if deps.WellFormed != nil && !deps.WellFormed(token) {
		deps.MetricInc(deps.Metrics.Invalid)
		return nil, deps.Errors.Invalid
	}

	if deps.Now != nil && deps.Observe != nil {
		start := deps.Now()
		defer func() { deps.Observe(deps.Now().Sub(start)) }()
	}

	sess, err := deps.Validate(ctx, token)
	if err == nil {
		deps.MetricInc(deps.Metrics.Validated)
		return sess, nil
	}

	switch {
	case errors.Is(err, deps.Errors.Expired):
		deps.MetricInc(deps.Metrics.Expired)
		deps.EmitAudit(ctx, deps.Events.Expired, false, 0, err, nil)
	case errors.Is(err, deps.Errors.Invalid):
		deps.MetricInc(deps.Metrics.Invalid)
	default:
		deps.EmitAudit(ctx, deps.Events.Invalid, false, 0, err, func() map[string]string {
			return map[string]string{"reason": "backend_error"}
		})
	}
	return nil, err
}
