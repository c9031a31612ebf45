package service

import (
	"context"
	"fmt"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService covers account management beyond the auth flows.
type UserService interface {
	Get(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int64, error)
	UpdateProfile(ctx context.Context, id uint, input UpdateProfileInput) (*model.User, error)
	SetActive(ctx context.Context, actor *model.User, id uint, active bool) (*model.User, error)
}

type userService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService returns a service backed by the given repository.
func NewUserService(users repository.UserRepository, bcryptCost int) UserService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{users: users, bcryptCost: bcryptCost}
}

// UpdateProfileInput captures the self-service profile fields.
type UpdateProfileInput struct {
	Nickname *string
	Theme    *string
	Password *string
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

func (s *userService) UpdateProfile(ctx context.Context, id uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Nickname != nil {
		user.Nickname = *input.Nickname
	}
	if input.Theme != nil {
		user.Theme = *input.Theme
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// SetActive toggles an account. Admins manage users, but a superadmin can
// only be disabled by another superadmin, and never by themselves.
func (s *userService) SetActive(ctx context.Context, actor *model.User, id uint, active bool) (*model.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if actor.ID == id && !active {
		return nil, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsSuperadmin() && !actor.IsSuperadmin() {
		return nil, ErrForbidden
	}

	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	user.IsActive = active
	return user, nil
}
