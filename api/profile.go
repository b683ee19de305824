package api

import (
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	accountmw "github.com/MrEthical07/goAccount/middleware"
	"github.com/labstack/echo/v4"
)

// getProfile handles GET /api/profile
func (h *Handler) getProfile(c echo.Context) error {
	userID, ok := accountmw.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, goAccount.Result{Message: goAccount.MsgInvalidSession})
	}

	res := h.engine.GetProfile(c.Request().Context(), userID)
	if !res.Success {
		return c.JSON(statusFor(res, http.StatusNotFound), res)
	}
	return c.JSON(http.StatusOK, res)
}

// updateProfile handles POST and PUT /api/profile. Only supplied fields
// change; an empty document is rejected.
func (h *Handler) updateProfile(c echo.Context) error {
	userID, ok := accountmw.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, goAccount.Result{Message: goAccount.MsgInvalidSession})
	}

	var fields goAccount.ProfileFields
	if err := decodeJSON(c, &fields); err != nil || fields.Empty() {
		return badRequest(c, msgInvalidJSON)
	}

	res := h.engine.UpdateProfile(c.Request().Context(), userID, fields)
	if !res.Success {
		return c.JSON(statusFor(res, http.StatusBadRequest), res)
	}
	return c.JSON(http.StatusOK, res)
}

// deleteProfile handles DELETE /api/profile. Backends without delete support
// answer 400 "Delete not implemented".
func (h *Handler) deleteProfile(c echo.Context) error {
	userID, ok := accountmw.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, goAccount.Result{Message: goAccount.MsgInvalidSession})
	}

	res := h.engine.DeleteProfile(c.Request().Context(), userID)
	if !res.Success {
		return c.JSON(statusFor(res, http.StatusBadRequest), res)
	}
	return c.JSON(http.StatusOK, res)
}
