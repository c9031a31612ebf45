package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	"github.com/xingxinag/onebooknav/internal/app/service"
)

type stubUserRepository struct {
	getFn func(ctx context.Context, id uint) (*model.User, error)
}

func (s *stubUserRepository) Create(ctx context.Context, user *model.User) error { return nil }

func (s *stubUserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUserRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (s *stubUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (s *stubUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (s *stubUserRepository) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (s *stubUserRepository) Update(ctx context.Context, user *model.User) error { return nil }

func (s *stubUserRepository) SetActive(ctx context.Context, id uint, active bool) error { return nil }

func (s *stubUserRepository) TouchLastSeen(ctx context.Context, id uint, at time.Time) error {
	return nil
}

func (s *stubUserRepository) Identifiers(ctx context.Context) ([]string, []string, error) {
	return nil, nil, nil
}

func (s *stubUserRepository) Delete(ctx context.Context, id uint) error { return nil }

type requestTagKey struct{}

func TestAuthenticate_BearerToken(t *testing.T) {
	account := &model.User{ID: 5, Username: "alice", IsActive: true, Role: model.RoleUser}

	var lookupCtx context.Context
	users := &stubUserRepository{
		getFn: func(ctx context.Context, id uint) (*model.User, error) {
			lookupCtx = ctx
			if id == 5 {
				return account, nil
			}
			return nil, repository.ErrUserNotFound
		},
	}
	auth := service.NewAuthService(users, nil, nil, nil, service.AuthConfig{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
	})

	token, err := auth.IssueToken(account)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	app := fiber.New()
	// Tag the request context upstream so the lookup below can prove the
	// middleware hands the user context, not the raw fasthttp one, to the
	// service layer.
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(context.WithValue(c.UserContext(), requestTagKey{}, "tagged"))
		return c.Next()
	})
	app.Use(Authenticate(auth))
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"username": CurrentUser(c).Username})
	})

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("authenticated request = %d, want 200", resp.StatusCode)
	}
	if lookupCtx == nil || lookupCtx.Value(requestTagKey{}) != "tagged" {
		t.Fatal("user lookup should run under the request's user context")
	}
}

func TestAuthenticate_RejectsBadToken(t *testing.T) {
	auth := service.NewAuthService(&stubUserRepository{}, nil, nil, nil, service.AuthConfig{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
	})

	app := fiber.New()
	app.Use(Authenticate(auth))
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", resp.StatusCode)
	}
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	auth := service.NewAuthService(&stubUserRepository{}, nil, nil, nil, service.AuthConfig{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
	})

	app := fiber.New()
	app.Use(Authenticate(auth))
	app.Get("/open", func(c *fiber.Ctx) error {
		if CurrentUser(c) != nil {
			t.Error("anonymous request should carry no user")
		}
		if CurrentScope(c).CanView(1, false) {
			t.Error("anonymous scope should not see private rows")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/open", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("anonymous request = %d, want 200", resp.StatusCode)
	}
}
