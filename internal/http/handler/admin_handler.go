package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"github.com/yuwei031/SubForge/internal/app/service"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by the admin handlers.
type AdminDeps struct {
	Logger *zap.Logger
	Admin  service.AdminService
	Events repository.ConversionEventRepository
}

// AdminHandler implements the admin-only management endpoints.
type AdminHandler struct {
	logger *zap.Logger
	admin  service.AdminService
	events repository.ConversionEventRepository
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{logger: logger, admin: deps.Admin, events: deps.Events}
}

// Register wires admin routes onto the provided router. The router must
// already enforce RequireAuth + RequireAdmin.
func (h *AdminHandler) Register(router fiber.Router) {
	users := router.Group("/users")
	users.Get("/", h.ListUsers)
	users.Post("/", h.CreateUser)
	users.Delete("/:id", h.DeleteUser)
	users.Put("/:id/password", h.SetUserPassword)

	router.Put("/settings/registration", h.SetRegistration)
	router.Get("/events", h.ListEvents)
}

// ListEvents handles GET /api/admin/events
func (h *AdminHandler) ListEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	events, err := h.events.ListRecent(c.UserContext(), limit)
	if err != nil {
		h.logger.Error("failed to list conversion events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list events",
		})
	}
	return c.JSON(fiber.Map{"events": events, "count": len(events)})
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.admin.ListUsers(c.UserContext())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list users",
		})
	}

	response := make([]UserResponse, len(users))
	for i := range users {
		response[i] = userResponse(&users[i])
	}
	return c.JSON(fiber.Map{"users": response, "count": len(response)})
}

// CreateUserRequest represents the request body for creating an account.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser handles POST /api/admin/users
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email and password are required",
		})
	}

	user, err := h.admin.CreateUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "email is already registered",
			})
		}
		h.logger.Error("failed to create user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create user",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(userResponse(user))
}

// DeleteUser handles DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	err := h.admin.DeleteUser(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "you cannot delete your own account",
			})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		h.logger.Error("failed to delete user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete user",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// SetPasswordRequest represents the request body for resetting a password.
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// SetUserPassword handles PUT /api/admin/users/:id/password
func (h *AdminHandler) SetUserPassword(c *fiber.Ctx) error {
	var req SetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password is required",
		})
	}

	if err := h.admin.SetUserPassword(c.UserContext(), c.Params("id"), req.Password); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		h.logger.Error("failed to set user password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to set password",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// SetRegistrationRequest represents the request body for the registration toggle.
type SetRegistrationRequest struct {
	Enabled bool `json:"enabled"`
}

// SetRegistration handles PUT /api/admin/settings/registration
func (h *AdminHandler) SetRegistration(c *fiber.Ctx) error {
	var req SetRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.admin.SetRegistrationEnabled(c.UserContext(), req.Enabled); err != nil {
		h.logger.Error("failed to update registration setting", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update setting",
		})
	}
	return c.JSON(fiber.Map{"enabled": req.Enabled})
}
