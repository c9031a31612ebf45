package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/service"
	"github.com/xingxinag/onebooknav/internal/http/middleware"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by the admin endpoints.
type AdminDeps struct {
	Logger      *zap.Logger
	Users       service.UserService
	Settings    *service.SettingsService
	Invitations service.InvitationService
	Checks      *service.LinkCheckService
	Stats       *service.StatsService
}

// AdminHandler implements the management endpoints behind the admin gate.
type AdminHandler struct {
	logger      *zap.Logger
	users       service.UserService
	settings    *service.SettingsService
	invitations service.InvitationService
	checks      *service.LinkCheckService
	stats       *service.StatsService
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger:      logger,
		users:       deps.Users,
		settings:    deps.Settings,
		invitations: deps.Invitations,
		checks:      deps.Checks,
		stats:       deps.Stats,
	}
}

// Register wires admin routes onto the provided router. Every route requires
// an admin session.
func (h *AdminHandler) Register(router fiber.Router) {
	admin := router.Group("/admin", middleware.RequireAdmin())
	{
		admin.Get("/dashboard", h.Dashboard)

		admin.Get("/users", h.ListUsers)
		admin.Post("/users/:id/toggle-status", h.ToggleUserStatus)

		admin.Get("/settings", h.ListSettings)
		admin.Put("/settings", h.UpdateSettings)

		admin.Get("/invitation-codes", h.ListInvitationCodes)
		admin.Post("/invitation-codes", h.CreateInvitationCode)
	}
}

// Dashboard handles GET /admin/stats
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.stats.Admin(c.UserContext())
	if err != nil {
		h.logger.Error("failed to compute admin stats", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(stats)
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, perPage := pageParams(c)

	users, total, err := h.users.List(c.UserContext(), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": newPageMeta(page, perPage, total),
	})
}

// ToggleUserStatus handles POST /admin/users/:id/toggle-status
func (h *AdminHandler) ToggleUserStatus(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	actor := middleware.CurrentUser(c)
	target, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return failJSON(c, err)
	}

	updated, err := h.users.SetActive(c.UserContext(), actor, id, !target.IsActive)
	if err != nil {
		return failJSON(c, err)
	}

	h.logger.Info("user status toggled",
		zap.Uint("user_id", updated.ID),
		zap.Bool("is_active", updated.IsActive),
		zap.Uint("actor_id", actor.ID),
	)
	return c.JSON(updated)
}

// ListSettings handles GET /admin/settings
func (h *AdminHandler) ListSettings(c *fiber.Ctx) error {
	settings, err := h.settings.All(c.UserContext())
	if err != nil {
		h.logger.Error("failed to list settings", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// SettingUpdate is one entry in the settings update request.
type SettingUpdate struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	ValueType   string      `json:"value_type,omitempty"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`
	IsPublic    bool        `json:"is_public,omitempty"`
}

// UpdateSettingsRequest represents the request body for settings updates.
type UpdateSettingsRequest struct {
	Settings []SettingUpdate `json:"settings"`
}

// UpdateSettings handles PUT /admin/settings
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.Settings) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "settings are required"})
	}

	for _, update := range req.Settings {
		if update.Key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "setting key is required"})
		}
		err := h.settings.Set(c.UserContext(), service.SetSettingInput{
			Key:         update.Key,
			Value:       update.Value,
			ValueType:   model.SettingType(update.ValueType),
			Description: update.Description,
			Category:    update.Category,
			IsPublic:    update.IsPublic,
		})
		if err != nil {
			h.logger.Error("failed to store setting", zap.String("key", update.Key), zap.Error(err))
			return failJSON(c, err)
		}
	}
	return c.JSON(fiber.Map{"updated": len(req.Settings)})
}

// ListInvitationCodes handles GET /admin/invitation-codes
func (h *AdminHandler) ListInvitationCodes(c *fiber.Ctx) error {
	page, perPage := pageParams(c)

	codes, total, err := h.invitations.List(c.UserContext(), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("failed to list invitation codes", zap.Error(err))
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"codes":      codes,
		"pagination": newPageMeta(page, perPage, total),
	})
}

// CreateInvitationCodeRequest represents the request body for code creation.
type CreateInvitationCodeRequest struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateInvitationCode handles POST /admin/invitation-codes
func (h *AdminHandler) CreateInvitationCode(c *fiber.Ctx) error {
	var req CreateInvitationCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expires_at must be in the future"})
	}

	code, err := h.invitations.Generate(c.UserContext(), middleware.CurrentUser(c), req.ExpiresAt)
	if err != nil {
		h.logger.Error("failed to generate invitation code", zap.Error(err))
		return failJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(code)
}
