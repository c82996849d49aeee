package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"github.com/yuwei031/SubForge/internal/app/service"
	inthttp "github.com/yuwei031/SubForge/internal/http/handler"
	"github.com/yuwei031/SubForge/internal/http/middleware"
	infraprom "github.com/yuwei031/SubForge/internal/infra/prometheus"
	"github.com/yuwei031/SubForge/internal/infra/storage"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs to register routes.
type Dependencies struct {
	Logger    *zap.Logger
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	NATS      *nats.Conn
	JetStream nats.JetStreamContext

	Configs       repository.GeneratedConfigRepository
	Subscriptions repository.SubscriptionRepository
	Events        repository.ConversionEventRepository

	Auth          service.AuthService
	Admin         service.AdminService
	Generator     service.GeneratorService
	SubService    service.SubscriptionService
	Backends      service.BackendURLService
	RemoteConfigs service.RemoteConfigService

	Store   storage.ObjectStore
	Filter  *service.IDFilter
	Metrics *infraprom.Metrics
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		AppName: "SubForge",
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

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

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS())
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}

	publicHandler := inthttp.NewPublicHandler(inthttp.PublicDeps{
		Logger:        s.deps.Logger,
		Configs:       s.deps.Configs,
		Subscriptions: s.deps.Subscriptions,
		Store:         s.deps.Store,
		Filter:        s.deps.Filter,
		Metrics:       s.deps.Metrics,
		Postgres:      s.deps.Postgres,
	})
	publicHandler.Register(s.app)

	authHandler := inthttp.NewAuthHandler(inthttp.AuthDeps{
		Logger: s.deps.Logger,
		Auth:   s.deps.Auth,
	})

	api := s.app.Group("/api")
	authHandler.RegisterPublic(api)

	protected := api.Group("", middleware.RequireAuth(s.deps.Auth))
	authHandler.RegisterProtected(protected)

	inthttp.NewCatalogHandler(inthttp.CatalogDeps{
		Logger:        s.deps.Logger,
		Subscriptions: s.deps.SubService,
		Backends:      s.deps.Backends,
		RemoteConfigs: s.deps.RemoteConfigs,
	}).Register(protected)

	inthttp.NewConfigHandler(inthttp.ConfigDeps{
		Logger:    s.deps.Logger,
		Generator: s.deps.Generator,
	}).Register(protected)

	admin := protected.Group("/admin", middleware.RequireAdmin())
	inthttp.NewAdminHandler(inthttp.AdminDeps{
		Logger: s.deps.Logger,
		Admin:  s.deps.Admin,
		Events: s.deps.Events,
	}).Register(admin)
}
