package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/service"
)

const (
	// UserKey holds the authenticated *model.User in fiber locals.
	UserKey = "auth_user"
	// ScopeKey holds the request's model.Scope in fiber locals.
	ScopeKey = "auth_scope"
)

// Authenticate resolves the bearer token if present and stores the account
// and its visibility scope in locals. Anonymous requests pass through with
// the anonymous scope; only a token that fails validation is rejected.
func Authenticate(auth *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(ScopeKey, model.AnonymousScope())

		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(UserKey, user)
		c.Locals(ScopeKey, model.ScopeFor(user))
		return c.Next()
	}
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		return c.Next()
	}
}

// RequireAdmin rejects requests whose account is not an admin.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated account, or nil for anonymous.
func CurrentUser(c *fiber.Ctx) *model.User {
	if user, ok := c.Locals(UserKey).(*model.User); ok {
		return user
	}
	return nil
}

// CurrentScope returns the request's visibility scope.
func CurrentScope(c *fiber.Ctx) model.Scope {
	if scope, ok := c.Locals(ScopeKey).(model.Scope); ok {
		return scope
	}
	return model.AnonymousScope()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	// Browser sessions carry the token in a cookie instead.
	return c.Cookies("onebooknav_token")
}
