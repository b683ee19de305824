package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/profile"
)

type ProfileMetrics struct {
	Read     int
	NotFound int
	Updated  int
	Deleted  int
}

type ProfileEvents struct {
	Updated string
	Deleted string
}

type ProfileErrors struct {
	EngineNotReady error
	NotFound       error
	Unsupported    error
}

// ProfileDeps captures profile dependencies. Delete is nil when the active
// backend cannot delete.
type ProfileDeps struct {
	Get    func(ctx context.Context, userID int64) (*profile.Profile, error)
	Upsert func(ctx context.Context, userID int64, f profile.Fields) (*profile.Profile, error)
	Delete func(ctx context.Context, userID int64) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics ProfileMetrics
	Events  ProfileEvents
	Errors  ProfileErrors
}

// RunGetProfile returns the profile of userID.
func RunGetProfile(ctx context.Context, userID int64, deps ProfileDeps) (*profile.Profile, error) {
	normalizeHooks(&deps.MetricInc, &deps.EmitAudit)
	if deps.Get == nil {
		return nil, deps.Errors.EngineNotReady
	}

	p, err := deps.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, deps.Errors.NotFound) {
			deps.MetricInc(deps.Metrics.NotFound)
		}
		return nil, err
	}
	deps.MetricInc(deps.Metrics.Read)
	return p, nil
}

// RunUpdateProfile merges f into the profile of userID, creating it if needed.
func RunUpdateProfile(ctx context.Context, userID int64, f profile.Fields, deps ProfileDeps) (*profile.Profile, error) {
	normalizeHooks(&deps.MetricInc, &deps.EmitAudit)
	if deps.Upsert == nil {
		return nil, deps.Errors.EngineNotReady
	}

	p, err := deps.Upsert(ctx, userID, f)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.Updated, false, userID, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Updated)
	deps.EmitAudit(ctx, deps.Events.Updated, true, userID, nil, func() map[string]string {
		return map[string]string{"fields": f.Names()}
	})
	return p, nil
}

// RunDeleteProfile removes the profile of userID when the backend supports it.
func RunDeleteProfile(ctx context.Context, userID int64, deps ProfileDeps) error {
	normalizeHooks(&deps.MetricInc, &deps.EmitAudit)
	if deps.Get == nil {
		return deps.Errors.EngineNotReady
	}
	if deps.Delete == nil {
		return deps.Errors.Unsupported
	}

	if err := deps.Delete(ctx, userID); err != nil {
		if errors.Is(err, deps.Errors.NotFound) {
			deps.MetricInc(deps.Metrics.NotFound)
		}
		deps.EmitAudit(ctx, deps.Events.Deleted, false, userID, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.Deleted)
	deps.EmitAudit(ctx, deps.Events.Deleted, true, userID, nil, nil)
	return nil
}
