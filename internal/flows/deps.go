package flows

import "context"

// AuditFunc emits one audit event. metadata may be nil and is only invoked
// when auditing is enabled.
type AuditFunc func(ctx context.Context, eventType string, success bool, userID int64, err error, metadata func() map[string]string)

// Deps groups every flow dependency set. The engine builds it once at Build.
type Deps struct {
	Register RegisterDeps
	Login    LoginDeps
	Validate ValidateDeps
	Logout   LogoutDeps
	Profile  ProfileDeps
}

func noopMetric(int) {}
func noopAudit(context.Context, string, bool, int64, error, func() map[string]string) {}

func normalizeHooks(metricInc *func(int), emit *AuditFunc) {
	if *metricInc == nil {
		*metricInc = noopMetric
	}
	if *emit == nil {
		*emit = noopAudit
	}
}
