package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef names one engine counter for the exporters.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for the exporters.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goAccount.MetricRegisterSuccess, Name: "goaccount_register_success_total", Help: "Successful registrations."},
	{ID: goAccount.MetricRegisterDuplicate, Name: "goaccount_register_duplicate_total", Help: "Registrations rejected as duplicate username or email."},
	{ID: goAccount.MetricRegisterFailure, Name: "goaccount_register_failure_total", Help: "Registrations failed for invalid input or storage errors."},
	{ID: goAccount.MetricLoginSuccess, Name: "goaccount_login_success_total", Help: "Successful logins."},
	{ID: goAccount.MetricLoginFailure, Name: "goaccount_login_failure_total", Help: "Failed logins."},
	{ID: goAccount.MetricSessionCreated, Name: "goaccount_session_created_total", Help: "Created sessions."},
	{ID: goAccount.MetricSessionValidated, Name: "goaccount_session_validated_total", Help: "Successful session validations."},
	{ID: goAccount.MetricSessionInvalid, Name: "goaccount_session_invalid_total", Help: "Validations of unknown or malformed tokens."},
	{ID: goAccount.MetricSessionExpired, Name: "goaccount_session_expired_total", Help: "Validations that found an expired session."},
	{ID: goAccount.MetricLogout, Name: "goaccount_logout_total", Help: "Logout operations."},
	{ID: goAccount.MetricProfileRead, Name: "goaccount_profile_read_total", Help: "Profile reads."},
	{ID: goAccount.MetricProfileNotFound, Name: "goaccount_profile_not_found_total", Help: "Profile reads for users without a profile."},
	{ID: goAccount.MetricProfileUpdated, Name: "goaccount_profile_updated_total", Help: "Profile creates and updates."},
	{ID: goAccount.MetricProfileDeleted, Name: "goaccount_profile_deleted_total", Help: "Profile deletions."},
	{ID: goAccount.MetricSessionsPurged, Name: "goaccount_sessions_purged_total", Help: "Expired sessions removed by the purge sweep."},
	{ID: goAccount.MetricBackendFallback, Name: "goaccount_backend_fallback_total", Help: "Stores started on their file fallback."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricValidateLatency, Name: "goaccount_validate_latency_seconds", Help: "Session validation latency."},
}

// HistogramBounds are the upper bounds of the engine buckets in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters that cannot use
// labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding missing buckets
// with zero.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
