package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/labstack/echo/v4"
)

// Context keys set by RequireSession.
const (
	ContextKeySession = "session"
	ContextKeyUserID  = "user_id"
)

// QueryTokenParam is the query parameter checked when no Authorization header
// is present.
const QueryTokenParam = "session_token"

// Validator is the part of goAccount.Engine the guard needs.
type Validator interface {
	ValidateSession(ctx context.Context, token string) goAccount.Result
}

// RequireSession rejects requests without a valid session with 401 and the
// engine's message, or 503 when session storage failed. On success the session and user id are stored under
// ContextKeySession and ContextKeyUserID.
func RequireSession(v Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if v == nil {
				return unauthorized(c, goAccount.MsgInvalidSession)
			}

			token := SessionToken(c)
			if token == "" {
				return unauthorized(c, goAccount.MsgTokenRequired)
			}

			res := v.ValidateSession(c.Request().Context(), token)
			if !res.Success {
				if errors.Is(res.Err, goAccount.ErrBackendUnavailable) || errors.Is(res.Err, goAccount.ErrEngineNotReady) {
					return c.JSON(http.StatusServiceUnavailable, goAccount.Result{Message: res.Message})
				}
				return unauthorized(c, res.Message)
			}

			c.Set(ContextKeySession, res.Session)
			c.Set(ContextKeyUserID, res.UserID)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c echo.Context) (*goAccount.Session, bool) {
	s, ok := c.Get(ContextKeySession).(*goAccount.Session)
	return s, ok && s != nil
}

// UserIDFrom returns the user id stored by RequireSession.
func UserIDFrom(c echo.Context) (int64, bool) {
	id, ok := c.Get(ContextKeyUserID).(int64)
	return id, ok && id > 0
}

// SessionToken extracts the session token from the Authorization header or
// the session_token query parameter. It returns "" when neither is set.
func SessionToken(c echo.Context) string {
	if token := headerToken(c.Request().Header.Get(echo.HeaderAuthorization)); token != "" {
		return token
	}
	return strings.TrimSpace(c.QueryParam(QueryTokenParam))
}

func headerToken(value string) string {
	value = strings.TrimSpace(value)
	const bearer = "bearer "
	if len(value) >= len(bearer) && strings.EqualFold(value[:len(bearer)], bearer) {
		value = strings.TrimSpace(value[len(bearer):])
	}
	return value
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, goAccount.Result{
		Success: false,
		Message: message,
	})
}
