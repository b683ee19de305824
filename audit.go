package goAccount

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goAccount/internal"
)

const (
	auditEventRegisterSuccess   = "register_success"
	auditEventRegisterDuplicate = "register_duplicate"
	auditEventRegisterFailure   = "register_failure"
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventSessionExpired    = "session_expired"
	auditEventSessionInvalid    = "session_invalid"
	auditEventLogout            = "logout"
	auditEventProfileUpdated    = "profile_updated"
	auditEventProfileDeleted    = "profile_deleted"
	auditEventBackendFallback   = "backend_fallback"
	auditEventSessionsPurged    = "sessions_purged"
)

// AuditErrorCode is the coarse error class recorded on failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrSessionInvalid     AuditErrorCode = "session_invalid"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrUnsupported        AuditErrorCode = "unsupported"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if id := requestIDFromContext(ctx); id != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["request_id"] = id
	}

	event := AuditEvent{
		ID:        internal.NewEventID(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if userID > 0 {
		event.UserID = strconv.FormatInt(userID, 10)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrSessionTokenRequired):
		return auditErrInvalidInput
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case isPasswordPolicy(err):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrDuplicate):
		return auditErrDuplicate
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrInvalidOrExpiredSession):
		return auditErrSessionInvalid
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrCapabilityUnsupported):
		return auditErrUnsupported
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
