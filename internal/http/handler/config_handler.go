package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"github.com/yuwei031/SubForge/internal/app/service"
	"github.com/yuwei031/SubForge/internal/converter"
	"go.uber.org/zap"
)

// ConfigDeps groups dependencies required by the generated-config handlers.
type ConfigDeps struct {
	Logger    *zap.Logger
	Generator service.GeneratorService
}

// ConfigHandler implements the conversion pipeline endpoints.
type ConfigHandler struct {
	logger    *zap.Logger
	generator service.GeneratorService
}

// NewConfigHandler creates a config handler with the provided dependencies.
func NewConfigHandler(deps ConfigDeps) *ConfigHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigHandler{logger: logger, generator: deps.Generator}
}

// Register wires config routes onto the provided (authenticated) router.
func (h *ConfigHandler) Register(router fiber.Router) {
	configs := router.Group("/configs")
	configs.Get("/", h.List)
	configs.Post("/", h.Generate)
	configs.Post("/:id/refresh", h.Refresh)
	configs.Delete("/:id", h.Delete)
}

// GenerateRequest represents the request body for a conversion.
type GenerateRequest struct {
	BackendURL   string                `json:"backendUrl"`
	Target       string                `json:"target"`
	URLs         []string              `json:"urls"`
	ConfigURL    string                `json:"configUrl,omitempty"`
	Exclude      string                `json:"exclude,omitempty"`
	Include      string                `json:"include,omitempty"`
	Filename     string                `json:"filename,omitempty"`
	Advanced     *model.AdvancedParams `json:"advanced,omitempty"`
	CustomParams map[string]string     `json:"customParams,omitempty"`
}

func (r GenerateRequest) params() model.GenerateParams {
	return model.GenerateParams{
		BackendURL:   r.BackendURL,
		Target:       r.Target,
		URLs:         r.URLs,
		ConfigURL:    r.ConfigURL,
		Exclude:      r.Exclude,
		Include:      r.Include,
		Filename:     r.Filename,
		Advanced:     r.Advanced,
		CustomParams: r.CustomParams,
	}
}

// ConfigResponse is the management view of a generated config.
type ConfigResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Target    string    `json:"target"`
	Filename  string    `json:"filename"`
	Version   int       `json:"version"`
	ShareURL  string    `json:"share_url"`
	CreatedAt time.Time `json:"created_at"`
}

func configResponse(c *fiber.Ctx, cfg *model.GeneratedConfig) ConfigResponse {
	return ConfigResponse{
		ID:        cfg.ID,
		Name:      cfg.Name,
		Target:    cfg.Target,
		Filename:  cfg.DisplayFilename(),
		Version:   cfg.Version,
		ShareURL:  fmt.Sprintf("%s/api/s/%s?key=%s", requestBaseURL(c), cfg.ID, cfg.Token),
		CreatedAt: cfg.CreatedAt,
	}
}

// Generate handles POST /api/configs
func (h *ConfigHandler) Generate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	cfg, err := h.generator.Generate(c.UserContext(), userID(c), req.params())
	if err != nil {
		return h.conversionError(c, err, "generate")
	}
	return c.Status(fiber.StatusCreated).JSON(configResponse(c, cfg))
}

// List handles GET /api/configs
func (h *ConfigHandler) List(c *fiber.Ctx) error {
	configs, err := h.generator.List(c.UserContext(), userID(c))
	if err != nil {
		h.logger.Error("failed to list configs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list configs",
		})
	}

	response := make([]ConfigResponse, len(configs))
	for i := range configs {
		response[i] = configResponse(c, &configs[i])
	}
	return c.JSON(fiber.Map{"configs": response, "count": len(response)})
}

// Refresh handles POST /api/configs/:id/refresh
func (h *ConfigHandler) Refresh(c *fiber.Ctx) error {
	cfg, err := h.generator.Refresh(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return h.conversionError(c, err, "refresh")
	}
	return c.JSON(configResponse(c, cfg))
}

// Delete handles DELETE /api/configs/:id
func (h *ConfigHandler) Delete(c *fiber.Ctx) error {
	if err := h.generator.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "config not found",
			})
		}
		h.logger.Error("failed to delete config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete config",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// conversionError maps pipeline failures onto HTTP statuses that tell the
// caller whether the fault is theirs, the backend's or ours.
func (h *ConfigHandler) conversionError(c *fiber.Ctx, err error, action string) error {
	var connErr *converter.ConnectError
	var backendErr *converter.BackendError

	switch {
	case errors.Is(err, service.ErrInvalidParams):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, repository.ErrConfigNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "config not found",
		})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "config was modified concurrently, retry",
		})
	case errors.Is(err, converter.ErrTimeout):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "conversion backend timed out",
		})
	case errors.As(err, &connErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("cannot reach conversion backend %s", connErr.Backend),
		})
	case errors.As(err, &backendErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("conversion backend returned %d: %s", backendErr.Status, backendErr.Snippet),
		})
	}

	h.logger.Error("conversion failed", zap.String("action", action), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "conversion failed",
	})
}
