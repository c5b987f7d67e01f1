package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/inkpost/blog-platform/docs"
	"github.com/inkpost/blog-platform/internal/api/handler"
	"github.com/inkpost/blog-platform/internal/api/middleware"
	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

const metricsSubsystem = "inkpost"

// Dependencies groups everything the router needs to build its handlers.
type Dependencies struct {
	Sessions ports.SessionService
	Accounts ports.AccountService
	Tokens   ports.TokenService
	Cookies  handler.CookieOptions
	Checks   []handler.DependencyCheck
	// Registry receives the HTTP request metrics. A nil Registry uses the
	// default Prometheus registerer.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.Accounts, deps.Cookies, deps.Log)
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	requireAuth := middleware.Auth(deps.Tokens)

	// --- User routes ---
	users := e.Group("/api/v1/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/verify-otp", authHandler.VerifyOTP)
	users.POST("/refresh-token", authHandler.RefreshToken)
	users.POST("/logout", authHandler.Logout, requireAuth)
	users.GET("/current-user", accountHandler.CurrentUser, requireAuth)
	users.POST("/change-password", accountHandler.ChangePassword, requireAuth)
	users.PATCH("/update-account", accountHandler.UpdateAccount, requireAuth)

	// --- Admin routes ---
	admin := e.Group("/api/v1/admin", requireAuth, middleware.RBAC(deps.Log, domain.RoleAdmin))
	admin.DELETE("/users/:id", accountHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerConfig(deps.Registry)))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: metricsSubsystem,
		Skipper: func(c echo.Context) bool {
			path := c.Path()
			return path == "/metrics" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/swagger")
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func handlerConfig(reg *prometheus.Registry) echoprometheus.HandlerConfig {
	if reg == nil {
		return echoprometheus.HandlerConfig{}
	}
	return echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}
}

// requestLogger writes one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			var evt *zerolog.Event
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Status >= 400:
				evt = log.Warn()
			default:
				evt = log.Info()
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
