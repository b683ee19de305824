package api

import (
	"context"
	"errors"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/logging"
	accountmw "github.com/MrEthical07/goAccount/middleware"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Engine is the part of *goAccount.Engine the handlers call.
type Engine interface {
	Register(ctx context.Context, username, email, password string) goAccount.Result
	Login(ctx context.Context, identifier, password string) goAccount.Result
	ValidateSession(ctx context.Context, token string) goAccount.Result
	Logout(ctx context.Context, token string) goAccount.Result
	GetProfile(ctx context.Context, userID int64) goAccount.Result
	UpdateProfile(ctx context.Context, userID int64, f goAccount.ProfileFields) goAccount.Result
	DeleteProfile(ctx context.Context, userID int64) goAccount.Result
	Backends() goAccount.BackendReport
	Ping(ctx context.Context) error
}

// Options configures New.
type Options struct {
	Logger logging.Logger
	// Metrics is mounted on GET /metrics when non-nil.
	Metrics http.Handler
	// AllowOrigins defaults to "*".
	AllowOrigins []string
	// BodyLimit caps request bodies, e.g. "1M". Defaults to 1M.
	BodyLimit string
}

// Handler holds the dependencies of the route handlers.
type Handler struct {
	engine Engine
	log    logging.Logger
}

// New returns an echo instance with every route and middleware mounted.
func New(engine Engine, opts Options) *echo.Echo {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	h := &Handler{engine: engine, log: log}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.errorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log))
	e.Use(echomw.CORSWithConfig(corsConfig(opts.AllowOrigins)))
	e.Use(echomw.BodyLimit(bodyLimit(opts.BodyLimit)))
	e.Use(accountmw.RequestContext())

	e.GET("/healthz", h.health)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}

	RegisterRoutes(e.Group("/api"), h)
	return e
}

// RegisterRoutes mounts the account routes on g.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)

	// Attached per route so unknown paths and methods keep their 404/405.
	guard := accountmw.RequireSession(h.engine)
	g.GET("/session", h.session, guard)
	g.GET("/profile", h.getProfile, guard)
	g.POST("/profile", h.updateProfile, guard)
	g.PUT("/profile", h.updateProfile, guard)
	g.DELETE("/profile", h.deleteProfile, guard)
}

func corsConfig(origins []string) echomw.CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
		},
	}
}

func bodyLimit(limit string) string {
	if limit == "" {
		return "1M"
	}
	return limit
}

// requestLogger sends one structured line per request to log.
func requestLogger(log logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURIPath:   true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			ctx := c.Request().Context()
			switch {
			case v.Error != nil:
				log.Error(ctx, "request failed", append(args, "error", v.Error)...)
			case v.Status >= http.StatusInternalServerError:
				log.Warn(ctx, "request", args...)
			default:
				log.Info(ctx, "request", args...)
			}
			return nil
		},
	})
}

// errorHandler renders every echo error as a Result so clients see one JSON
// shape.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch code {
		case http.StatusMethodNotAllowed:
			message = "Method not allowed"
		case http.StatusNotFound:
			message = "Not found"
		case http.StatusRequestEntityTooLarge:
			message = "Request body too large"
		default:
			message = http.StatusText(code)
		}
	} else {
		h.log.Error(c.Request().Context(), "unhandled error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, goAccount.Result{Success: false, Message: message})
	}
	if err != nil {
		h.log.Error(c.Request().Context(), "write error response", "error", err)
	}
}

type healthResponse struct {
	Status   string                  `json:"status"`
	Backends goAccount.BackendReport `json:"backends"`
	Error    string                  `json:"error,omitempty"`
}

// health handles GET /healthz.
func (h *Handler) health(c echo.Context) error {
	resp := healthResponse{Status: "ok", Backends: h.engine.Backends()}
	if err := h.engine.Ping(c.Request().Context()); err != nil {
		h.log.Warn(c.Request().Context(), "health check failed", "error", err)
		resp.Status = "unavailable"
		resp.Error = "storage unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	if len(resp.Backends.Fallbacks) > 0 {
		resp.Status = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}
