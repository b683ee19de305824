package api

import (
	"errors"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	accountmw "github.com/MrEthical07/goAccount/middleware"
	"github.com/labstack/echo/v4"
)

// register handles POST /api/register
func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := decodeJSON(c, &req); err != nil {
		return badRequest(c, msgInvalidJSON)
	}
	if msg := req.validate(); msg != "" {
		return badRequest(c, msg)
	}

	res := h.engine.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if !res.Success {
		return c.JSON(statusFor(res, http.StatusBadRequest), res)
	}
	return c.JSON(http.StatusCreated, res)
}

// login handles POST /api/login
func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := decodeJSON(c, &req); err != nil {
		return badRequest(c, msgInvalidJSON)
	}
	if msg := req.validate(); msg != "" {
		return badRequest(c, msg)
	}

	res := h.engine.Login(c.Request().Context(), req.Username, req.Password)
	if !res.Success {
		return c.JSON(statusFor(res, http.StatusUnauthorized), res)
	}
	return c.JSON(http.StatusOK, res)
}

// logout handles POST /api/logout. The token comes from the body, then the
// Authorization header or query string.
func (h *Handler) logout(c echo.Context) error {
	var req logoutRequest
	// A missing or malformed body is fine when the header carries the token.
	_ = decodeJSON(c, &req)

	token := req.SessionToken
	if token == "" {
		token = accountmw.SessionToken(c)
	}
	if token == "" {
		return badRequest(c, goAccount.MsgTokenRequired)
	}

	res := h.engine.Logout(c.Request().Context(), token)
	if !res.Success {
		return c.JSON(statusFor(res, http.StatusBadRequest), res)
	}
	return c.JSON(http.StatusOK, res)
}

// session handles GET /api/session. RequireSession already validated and
// extended the session.
func (h *Handler) session(c echo.Context) error {
	sess, ok := accountmw.SessionFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, goAccount.Result{Message: goAccount.MsgInvalidSession})
	}
	return c.JSON(http.StatusOK, goAccount.Result{
		Success: true,
		Message: goAccount.MsgSessionValid,
		UserID:  sess.UserID,
		Session: sess,
	})
}

func decodeJSON(c echo.Context, v any) error {
	return c.Echo().JSONSerializer.Deserialize(c, v)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, goAccount.Result{Success: false, Message: message})
}

// statusFor maps a failed Result to its HTTP status. Storage and readiness
// failures are 503; everything else gets the endpoint's usual client error.
func statusFor(res goAccount.Result, clientErr int) int {
	switch {
	case errors.Is(res.Err, goAccount.ErrBackendUnavailable),
		errors.Is(res.Err, goAccount.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(res.Err, goAccount.ErrNotFound):
		return http.StatusNotFound
	}
	return clientErr
}
