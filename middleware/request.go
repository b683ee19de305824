package middleware

import (
	goAccount "github.com/MrEthical07/goAccount"
	"github.com/labstack/echo/v4"
)

// RequestContext copies the client IP, User-Agent and request id into the
// request context. Run it after echo's RequestID middleware so the id is set.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := goAccount.WithClientIP(req.Context(), c.RealIP())
			ctx = goAccount.WithUserAgent(ctx, req.UserAgent())

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			if id != "" {
				ctx = goAccount.WithRequestID(ctx, id)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
