package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	infraprometheus "github.com/xingxinag/onebooknav/internal/infra/prometheus"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload carried by session tokens.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig drives token issuance and password hashing.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthService handles registration, login and session tokens.
type AuthService struct {
	users       repository.UserRepository
	invitations InvitationService
	settings    *SettingsService
	filter      *ExistenceFilter
	cfg         AuthConfig
}

// NewAuthService wires the identity flows. The existence filter is optional.
func NewAuthService(
	users repository.UserRepository,
	invitations InvitationService,
	settings *SettingsService,
	filter *ExistenceFilter,
	cfg AuthConfig,
) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:       users,
		invitations: invitations,
		settings:    settings,
		filter:      filter,
		cfg:         cfg,
	}
}

// RegisterInput captures a registration request.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	Nickname       string
	InvitationCode string
}

// Register creates a new user account. It honors the registration_enabled
// setting and, when configured or when a code is supplied, the invitation
// code lifecycle.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if s.settings != nil && !s.settings.GetBool(ctx, SettingRegistrationEnabled, true) {
		return nil, ErrRegistrationDisabled
	}

	required := s.settings != nil && s.settings.GetBool(ctx, SettingInvitationRequired, false)
	if required && input.InvitationCode == "" {
		return nil, ErrInvalidInvitation
	}
	if input.InvitationCode != "" {
		if err := s.invitations.Verify(ctx, input.InvitationCode); err != nil {
			return nil, err
		}
	}

	if taken, err := s.usernameTaken(ctx, input.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.emailTaken(ctx, input.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Nickname:     input.Nickname,
		Role:         model.RoleUser,
		IsActive:     true,
		Theme:        "default",
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if input.InvitationCode != "" {
		if err := s.invitations.Consume(ctx, input.InvitationCode, user.ID); err != nil {
			// A concurrent registration won the code; roll the account back.
			_ = s.users.Delete(ctx, user.ID)
			return nil, err
		}
	}

	if s.filter != nil {
		s.filter.Add(user.Username)
		s.filter.Add(user.Email)
	}
	infraprometheus.RegistrationsTotal.Inc()
	return user, nil
}

// Login authenticates by username or email and returns a signed token.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*model.User, string, error) {
	user, err := s.users.GetByLogin(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.TouchLastSeen(ctx, user.ID, time.Now().UTC()); err != nil {
		return nil, "", fmt.Errorf("touch last seen: %w", err)
	}
	return user, token, nil
}

// IssueToken signs a session token for the user.
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			Issuer:    "onebooknav",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate validates a token and loads the account behind it.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// UsernameAvailable reports whether the username is free.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.usernameTaken(ctx, username)
	return !taken, err
}

// EmailAvailable reports whether the email is free.
func (s *AuthService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.emailTaken(ctx, email)
	return !taken, err
}

func (s *AuthService) usernameTaken(ctx context.Context, username string) (bool, error) {
	if s.filter != nil && !s.filter.MightContain(username) {
		return false, nil
	}
	return s.users.ExistsByUsername(ctx, username)
}

func (s *AuthService) emailTaken(ctx context.Context, email string) (bool, error) {
	if s.filter != nil && !s.filter.MightContain(email) {
		return false, nil
	}
	return s.users.ExistsByEmail(ctx, email)
}
