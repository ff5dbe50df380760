package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/albedo-dev/albedo/internal/auth"
	"github.com/albedo-dev/albedo/internal/config"
	"github.com/albedo-dev/albedo/internal/httperr"
	"github.com/albedo-dev/albedo/internal/middleware"
	"github.com/albedo-dev/albedo/internal/observability"
	"github.com/albedo-dev/albedo/internal/resource"
)

// HealthCheck probes one dependency; the name appears in the /health
// payload.
type HealthCheck func(ctx context.Context) error

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Config *config.Config

	AuthService *auth.Service

	Users      *resource.Service
	Assistants *resource.Service
	Entities   *resource.Service
	Cities     *resource.Service

	Notifier httperr.Notifier
	Metrics  *observability.Metrics

	// HealthChecks maps a dependency name to its probe. Nil probes are
	// skipped.
	HealthChecks map[string]HealthCheck
}

// Server is the Fiber HTTP server for the Albedo API.
type Server struct {
	app  *fiber.App
	cfg  *config.Config
	deps Deps
}

// NewServer builds the Fiber app, registers middleware and routes.
func NewServer(deps Deps) *Server {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		AppName:      "albedo",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return httperr.Fail(c, fe.Code, fe.Message)
			}
			return httperr.Respond(c, err, deps.Notifier)
		},
	})

	s := &Server{app: app, cfg: cfg, deps: deps}
	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen() error {
	log.Info().Str("address", s.cfg.Server.Address).Msg("http server listening")
	return s.app.Listen(s.cfg.Server.Address)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestLogger())
	if s.deps.Metrics != nil {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
	}
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(s.deps.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	requireAuth := middleware.RequireAuth(s.deps.AuthService)
	requireAdmin := middleware.RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)

	v1 := s.app.Group("/api/v1")

	authHandler := NewAuthHandler(s.deps.AuthService, s.deps.Notifier, s.cfg.IsDevelopment())
	authGroup := v1.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/verify/:token", authHandler.VerifyEmail)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)
	authGroup.Post("/logout", requireAuth, authHandler.Logout)
	authGroup.Get("/me", requireAuth, authHandler.Me)

	userHandler := NewUserHandler(s.deps.Users, s.deps.Notifier)
	users := v1.Group("/users", requireAuth, requireAdmin)
	users.Get("/", userHandler.List)
	users.Get("/all", userHandler.ListAll)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	assistantHandler := NewResourceHandler(s.deps.Assistants, s.deps.Notifier)
	assistants := v1.Group("/assistants", requireAuth)
	assistants.Get("/", assistantHandler.List)
	assistants.Get("/all", assistantHandler.ListAll)
	assistants.Post("/", assistantHandler.Create)
	assistants.Post("/delete_many", assistantHandler.DeleteMany)
	assistants.Get("/:id", assistantHandler.Get)
	assistants.Put("/:id", assistantHandler.Update)
	assistants.Delete("/:id", assistantHandler.Delete)

	entityHandler := NewEntityHandler(s.deps.Entities, s.deps.Assistants, s.deps.Notifier)
	entities := assistants.Group("/:assistantID/entities")
	entities.Get("/", entityHandler.List)
	entities.Get("/all", entityHandler.ListAll)
	entities.Post("/", entityHandler.Create)
	entities.Get("/:id", entityHandler.Get)
	entities.Put("/:id", entityHandler.Update)
	entities.Delete("/:id", entityHandler.Delete)

	cityHandler := NewResourceHandler(s.deps.Cities, s.deps.Notifier)
	cities := v1.Group("/cities", requireAuth)
	cities.Get("/", cityHandler.List)
	cities.Get("/all", cityHandler.ListAll)
	cities.Post("/", cityHandler.Create)
	cities.Get("/:id", cityHandler.Get)
	cities.Put("/:id", cityHandler.Update)
	cities.Delete("/:id", cityHandler.Delete)

	// Everything unmatched gets the uniform failure envelope.
	s.app.Use(func(c fiber.Ctx) error {
		return httperr.Fail(c, fiber.StatusNotFound, "route not found")
	})
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.RequestCtx(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true
	for name, probe := range s.deps.HealthChecks {
		if probe == nil {
			continue
		}
		if err := probe(ctx); err != nil {
			checks[name] = "down"
			healthy = false
			log.Warn().Err(err).Str("dependency", name).Msg("health check failed")
		} else {
			checks[name] = "up"
		}
	}

	status := fiber.StatusOK
	state := "ok"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"checks": checks,
	})
}

func metricsMiddleware(m *observability.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		m.ObserveRequest(c.Method(), route, c.Response().StatusCode(), time.Since(start))
		return err
	}
}
