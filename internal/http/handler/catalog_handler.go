package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"github.com/yuwei031/SubForge/internal/app/service"
	"github.com/yuwei031/SubForge/internal/http/middleware"
	"go.uber.org/zap"
)

// CatalogDeps groups dependencies required by the catalog handlers.
type CatalogDeps struct {
	Logger        *zap.Logger
	Subscriptions service.SubscriptionService
	Backends      service.BackendURLService
	RemoteConfigs service.RemoteConfigService
}

// CatalogHandler implements CRUD for subscriptions, converter backends and
// remote rule-set configs.
type CatalogHandler struct {
	logger        *zap.Logger
	subscriptions service.SubscriptionService
	backends      service.BackendURLService
	remoteConfigs service.RemoteConfigService
}

// NewCatalogHandler creates a catalog handler with the provided dependencies.
func NewCatalogHandler(deps CatalogDeps) *CatalogHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{
		logger:        logger,
		subscriptions: deps.Subscriptions,
		backends:      deps.Backends,
		remoteConfigs: deps.RemoteConfigs,
	}
}

// Register wires catalog routes onto the provided (authenticated) router.
func (h *CatalogHandler) Register(router fiber.Router) {
	subs := router.Group("/subscriptions")
	subs.Get("/", h.ListSubscriptions)
	subs.Post("/", h.CreateSubscription)
	subs.Delete("/:id", h.DeleteSubscription)

	backends := router.Group("/backends")
	backends.Get("/", h.ListBackends)
	backends.Post("/", h.CreateBackend)
	backends.Delete("/:id", h.DeleteBackend)

	remotes := router.Group("/remote-configs")
	remotes.Get("/", h.ListRemoteConfigs)
	remotes.Post("/", h.CreateRemoteConfig)
	remotes.Delete("/:id", h.DeleteRemoteConfig)
}

// CreateSubscriptionRequest represents the request body for registering a
// subscription source.
type CreateSubscriptionRequest struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
}

// CreateSubscription handles POST /api/subscriptions
func (h *CatalogHandler) CreateSubscription(c *fiber.Ctx) error {
	var req CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}
	if req.URL == "" && req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "either url or content is required",
		})
	}

	sub, err := h.subscriptions.Create(c.UserContext(), service.CreateSubscriptionInput{
		UserID:  userID(c),
		Name:    req.Name,
		URL:     req.URL,
		Content: req.Content,
		BaseURL: requestBaseURL(c),
	})
	if err != nil {
		h.logger.Error("failed to create subscription", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create subscription",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// ListSubscriptions handles GET /api/subscriptions
func (h *CatalogHandler) ListSubscriptions(c *fiber.Ctx) error {
	subs, err := h.subscriptions.List(c.UserContext(), userID(c))
	if err != nil {
		h.logger.Error("failed to list subscriptions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list subscriptions",
		})
	}
	return c.JSON(fiber.Map{"subscriptions": subs, "count": len(subs)})
}

// DeleteSubscription handles DELETE /api/subscriptions/:id
func (h *CatalogHandler) DeleteSubscription(c *fiber.Ctx) error {
	err := h.subscriptions.Delete(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "subscription not found",
			})
		}
		h.logger.Error("failed to delete subscription", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete subscription",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// NamedURLRequest represents the request body shared by backend and remote
// config creation.
type NamedURLRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (r NamedURLRequest) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	if r.URL == "" {
		return "url is required"
	}
	return ""
}

// CreateBackend handles POST /api/backends
func (h *CatalogHandler) CreateBackend(c *fiber.Ctx) error {
	var req NamedURLRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	backend, err := h.backends.Create(c.UserContext(), userID(c), req.Name, req.URL)
	if err != nil {
		h.logger.Error("failed to create backend url", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create backend",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(backend)
}

// ListBackends handles GET /api/backends
func (h *CatalogHandler) ListBackends(c *fiber.Ctx) error {
	backends, err := h.backends.List(c.UserContext(), userID(c))
	if err != nil {
		h.logger.Error("failed to list backend urls", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list backends",
		})
	}
	return c.JSON(fiber.Map{"backends": backends, "count": len(backends)})
}

// DeleteBackend handles DELETE /api/backends/:id
func (h *CatalogHandler) DeleteBackend(c *fiber.Ctx) error {
	err := h.backends.Delete(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrBackendURLNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "backend not found",
			})
		}
		h.logger.Error("failed to delete backend url", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete backend",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// CreateRemoteConfig handles POST /api/remote-configs
func (h *CatalogHandler) CreateRemoteConfig(c *fiber.Ctx) error {
	var req NamedURLRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	rc, err := h.remoteConfigs.Create(c.UserContext(), userID(c), req.Name, req.URL)
	if err != nil {
		h.logger.Error("failed to create remote config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create remote config",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(rc)
}

// ListRemoteConfigs handles GET /api/remote-configs
func (h *CatalogHandler) ListRemoteConfigs(c *fiber.Ctx) error {
	configs, err := h.remoteConfigs.List(c.UserContext(), userID(c))
	if err != nil {
		h.logger.Error("failed to list remote configs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list remote configs",
		})
	}
	return c.JSON(fiber.Map{"remote_configs": configs, "count": len(configs)})
}

// DeleteRemoteConfig handles DELETE /api/remote-configs/:id
func (h *CatalogHandler) DeleteRemoteConfig(c *fiber.Ctx) error {
	err := h.remoteConfigs.Delete(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrRemoteConfigNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "remote config not found",
			})
		}
		h.logger.Error("failed to delete remote config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete remote config",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	return id
}

// requestBaseURL reconstructs the externally visible origin, honouring the
// proxy headers a typical deployment sits behind.
func requestBaseURL(c *fiber.Ctx) string {
	scheme := c.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = c.Protocol()
	}
	return scheme + "://" + c.Hostname()
}
