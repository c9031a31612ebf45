package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/xingxinag/onebooknav/internal/app/service"
	"github.com/xingxinag/onebooknav/internal/http/handler"
	"github.com/xingxinag/onebooknav/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs.
type Dependencies struct {
	Logger *zap.Logger
	Redis  *redis.Client

	Auth        *service.AuthService
	Users       service.UserService
	Websites    service.WebsiteService
	Categories  service.CategoryService
	Tags        service.TagService
	Invitations service.InvitationService
	Settings    *service.SettingsService
	Checks      *service.LinkCheckService
	Stats       *service.StatsService
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}
	s.app.Use(middleware.Authenticate(s.deps.Auth))
}

func (s *Server) registerRoutes() {
	publicHandler := handler.NewPublicHandler(handler.PublicDeps{
		Logger:     s.deps.Logger,
		Websites:   s.deps.Websites,
		Categories: s.deps.Categories,
		Tags:       s.deps.Tags,
		Settings:   s.deps.Settings,
		Stats:      s.deps.Stats,
	})
	publicHandler.Register(s.app)

	authHandler := handler.NewAuthHandler(handler.AuthDeps{
		Logger:      s.deps.Logger,
		Auth:        s.deps.Auth,
		Invitations: s.deps.Invitations,
		Users:       s.deps.Users,
	})
	authHandler.Register(s.app)

	apiHandler := handler.NewAPIHandler(handler.APIDeps{
		Logger:     s.deps.Logger,
		Websites:   s.deps.Websites,
		Categories: s.deps.Categories,
		Tags:       s.deps.Tags,
		Checks:     s.deps.Checks,
		Stats:      s.deps.Stats,
		Settings:   s.deps.Settings,
	})
	apiHandler.Register(s.app)

	adminHandler := handler.NewAdminHandler(handler.AdminDeps{
		Logger:      s.deps.Logger,
		Users:       s.deps.Users,
		Settings:    s.deps.Settings,
		Invitations: s.deps.Invitations,
		Checks:      s.deps.Checks,
		Stats:       s.deps.Stats,
	})
	adminHandler.Register(s.app)
}
