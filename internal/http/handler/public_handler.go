package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"github.com/yuwei031/SubForge/internal/app/service"
	httpUtil "github.com/yuwei031/SubForge/internal/http/util"
	infraprom "github.com/yuwei031/SubForge/internal/infra/prometheus"
	"github.com/yuwei031/SubForge/internal/infra/storage"
	"go.uber.org/zap"
)

// PublicDeps groups dependencies required by the unauthenticated endpoints.
type PublicDeps struct {
	Logger        *zap.Logger
	Configs       repository.GeneratedConfigRepository
	Subscriptions repository.SubscriptionRepository
	Store         storage.ObjectStore
	Filter        *service.IDFilter
	Metrics       *infraprom.Metrics
	Postgres      *pgxpool.Pool
}

// PublicHandler serves the share links, raw inline subscriptions and the
// health endpoint. None of these require a session.
type PublicHandler struct {
	logger        *zap.Logger
	configs       repository.GeneratedConfigRepository
	subscriptions repository.SubscriptionRepository
	store         storage.ObjectStore
	filter        *service.IDFilter
	metrics       *infraprom.Metrics
	postgres      *pgxpool.Pool
}

// NewPublicHandler creates a public handler with the provided dependencies.
func NewPublicHandler(deps PublicDeps) *PublicHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{
		logger:        logger,
		configs:       deps.Configs,
		subscriptions: deps.Subscriptions,
		store:         deps.Store,
		filter:        deps.Filter,
		metrics:       deps.Metrics,
		postgres:      deps.Postgres,
	}
}

// Register wires the public routes onto the provided router.
func (h *PublicHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/api/s/:id", h.Download)
	router.Get("/api/raw/:id", h.Raw)
}

// Health reports service status and database reachability.
func (h *PublicHandler) Health(c *fiber.Ctx) error {
	status := "ok"
	if h.postgres != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.postgres.Ping(ctx); err != nil {
			status = "degraded"
		}
	}
	return c.JSON(fiber.Map{
		"service": "SubForge",
		"status":  status,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Download handles GET /api/s/:id?key=... and streams the stored artifact.
func (h *PublicHandler) Download(c *fiber.Ctx) error {
	id := c.Params("id")
	key := c.Query("key")
	if id == "" || key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing id or key",
		})
	}

	// The bloom filter short-circuits scans for ids that were never issued.
	if h.filter != nil && !h.filter.MayContain(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "config not found",
		})
	}

	cfg, loadErr := h.loadConfig(c.UserContext(), id)
	if loadErr != nil {
		return c.Status(loadErr.StatusCode).JSON(fiber.Map{
			"error": loadErr.Message,
		})
	}

	if subtle.ConstantTimeCompare([]byte(cfg.Token), []byte(key)) != 1 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "invalid key",
		})
	}

	body, err := h.store.Download(c.UserContext(), cfg.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "config file not found",
			})
		}
		h.logger.Error("failed to download artifact",
			zap.String("id", id), zap.String("filename", cfg.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	if h.metrics != nil {
		h.metrics.PublicDownloadsTotal.Inc()
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, httpUtil.ContentDisposition(cfg.DisplayFilename()))
	return c.Send(body)
}

// Raw handles GET /api/raw/:id and serves inline subscription content.
func (h *PublicHandler) Raw(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing id",
		})
	}

	sub, err := h.subscriptions.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "subscription not found",
			})
		}
		h.logger.Error("failed to load subscription", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
	if sub.Content == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "subscription has no inline content",
		})
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.SendString(sub.Content)
}

type configLoadError struct {
	StatusCode int
	Message    string
}

func (h *PublicHandler) loadConfig(ctx context.Context, id string) (*model.GeneratedConfig, *configLoadError) {
	cfg, err := h.configs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return nil, &configLoadError{
				StatusCode: fiber.StatusNotFound,
				Message:    "config not found",
			}
		}
		h.logger.Error("failed to load config", zap.Error(err), zap.String("id", id))
		return nil, &configLoadError{
			StatusCode: fiber.StatusInternalServerError,
			Message:    "internal server error",
		}
	}
	return cfg, nil
}
