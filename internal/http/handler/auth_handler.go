package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xingxinag/onebooknav/internal/app/service"
	"github.com/xingxinag/onebooknav/internal/http/middleware"
	"go.uber.org/zap"
)

// AuthDeps groups dependencies required by the auth endpoints.
type AuthDeps struct {
	Logger      *zap.Logger
	Auth        *service.AuthService
	Invitations service.InvitationService
	Users       service.UserService
}

// AuthHandler implements registration, login and profile endpoints.
type AuthHandler struct {
	logger      *zap.Logger
	auth        *service.AuthService
	invitations service.InvitationService
	users       service.UserService
}

// NewAuthHandler creates an auth handler with the provided dependencies.
func NewAuthHandler(deps AuthDeps) *AuthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		logger:      logger,
		auth:        deps.Auth,
		invitations: deps.Invitations,
		users:       deps.Users,
	}
}

// Register wires auth routes onto the provided router.
func (h *AuthHandler) Register(router fiber.Router) {
	auth := router.Group("/auth")
	{
		auth.Post("/register", h.RegisterAccount)
		auth.Post("/login", h.Login)
		auth.Post("/logout", h.Logout)
		auth.Get("/check-username", h.CheckUsername)
		auth.Get("/check-email", h.CheckEmail)
		auth.Post("/verify-invitation", h.VerifyInvitation)
		auth.Post("/forgot-password", h.ForgotPassword)

		auth.Get("/profile", middleware.RequireAuth(), h.Profile)
		auth.Put("/profile", middleware.RequireAuth(), h.UpdateProfile)
	}
}

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Nickname       string `json:"nickname,omitempty"`
	InvitationCode string `json:"invitation_code,omitempty"`
}

// RegisterAccount handles POST /auth/register
func (h *AuthHandler) RegisterAccount(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "username, email and a password of at least 6 characters are required",
		})
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		Nickname:       req.Nickname,
		InvitationCode: req.InvitationCode,
	})
	if err != nil {
		return failJSON(c, err)
	}

	h.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return c.Status(fiber.StatusCreated).JSON(user)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Login == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "login and password are required",
		})
	}

	user, token, err := h.auth.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return failJSON(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "onebooknav_token",
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /auth/logout by clearing the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.ClearCookie("onebooknav_token")
	return c.JSON(fiber.Map{"status": "ok"})
}

// Profile handles GET /auth/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// UpdateProfileRequest represents the request body for profile updates.
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname,omitempty"`
	Theme    *string `json:"theme,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UpdateProfile handles PUT /auth/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Password != nil && len(*req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password must be at least 6 characters",
		})
	}

	user := middleware.CurrentUser(c)
	updated, err := h.users.UpdateProfile(c.UserContext(), user.ID, service.UpdateProfileInput{
		Nickname: req.Nickname,
		Theme:    req.Theme,
		Password: req.Password,
	})
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(updated)
}

// CheckUsername handles GET /auth/check-username?username=
func (h *AuthHandler) CheckUsername(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "username is required",
		})
	}

	available, err := h.auth.UsernameAvailable(c.UserContext(), username)
	if err != nil {
		h.logger.Error("username check failed", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

// CheckEmail handles GET /auth/check-email?email=
func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email is required",
		})
	}

	available, err := h.auth.EmailAvailable(c.UserContext(), email)
	if err != nil {
		h.logger.Error("email check failed", zap.Error(err))
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

// VerifyInvitationRequest represents the request body for code verification.
type VerifyInvitationRequest struct {
	Code string `json:"code"`
}

// VerifyInvitation handles POST /auth/verify-invitation
func (h *AuthHandler) VerifyInvitation(c *fiber.Ctx) error {
	var req VerifyInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	if err := h.invitations.Verify(c.UserContext(), req.Code); err != nil {
		return c.JSON(fiber.Map{"valid": false})
	}
	return c.JSON(fiber.Map{"valid": true})
}

// ForgotPasswordRequest represents the request body for password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /auth/forgot-password. No mail transport is
// configured, so the request is acknowledged without revealing whether the
// address exists. TODO: send a reset link once SMTP settings land.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email is required",
		})
	}

	h.logger.Info("password reset requested", zap.String("email", req.Email))
	return c.JSON(fiber.Map{
		"message": "if the address is registered, reset instructions will be sent",
	})
}
