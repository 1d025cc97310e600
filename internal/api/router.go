package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/task-api/docs"
	"github.com/99minutos/task-api/internal/api/handler"
	"github.com/99minutos/task-api/internal/api/middleware"
	"github.com/99minutos/task-api/internal/core/access"
	"github.com/99minutos/task-api/internal/core/ports"
	"github.com/99minutos/task-api/internal/infrastructure/http/handlers"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Log         zerolog.Logger
	AuthService ports.AuthService
	TaskService ports.TaskService
	// Identities resolves token subjects; usually the cached store.
	Identities ports.AuthRepository
	Codec      ports.TokenCodec
	// Policy defaults to access.DefaultRules when nil.
	Policy          *access.Policy
	ReadinessChecks map[string]handlers.Check
	// EnableMetrics registers echoprometheus on the default registry, which
	// can only happen once per process.
	EnableMetrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	policy := cfg.Policy
	if policy == nil {
		policy = access.MustPolicy(access.DefaultRules()...)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(cfg.Log))
	if cfg.EnableMetrics {
		e.Use(echoprometheus.NewMiddleware("taskapi"))
	}
	e.Use(middleware.Auth(cfg.Codec, cfg.Identities, cfg.Log.With().Str("component", "authenticator").Logger()))
	e.Use(middleware.AccessControl(policy))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Task routes (owner scoped) ---
	taskHandler := handler.NewTaskHandler(cfg.TaskService)
	tasks := e.Group("/api/tasks")
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)

	// --- Admin routes (ADMIN only, enforced by the policy) ---
	adminHandler := handler.NewAdminHandler(cfg.Identities)
	e.GET("/api/admin/users", adminHandler.ListUsers)

	// --- Health probes (public) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.ReadinessChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.HEAD("/health", healthHandler.Liveness)
	e.HEAD("/health/ready", healthDepsHandler.Readiness)

	// --- Ops ---
	if cfg.EnableMetrics {
		e.GET("/metrics", echoprometheus.NewHandler())
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
