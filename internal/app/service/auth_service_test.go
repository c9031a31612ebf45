package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getFn           func(ctx context.Context, id uint) (*model.User, error)
	getByLoginFn    func(ctx context.Context, usernameOrEmail string) (*model.User, error)
	existsUserFn    func(ctx context.Context, username string) (bool, error)
	existsEmailFn   func(ctx context.Context, email string) (bool, error)
	listFn          func(ctx context.Context, limit, offset int) ([]model.User, int64, error)
	updateFn        func(ctx context.Context, user *model.User) error
	setActiveFn     func(ctx context.Context, id uint, active bool) error
	touchFn         func(ctx context.Context, id uint, at time.Time) error
	identifiersFn   func(ctx context.Context) ([]string, []string, error)
	deleteFn        func(ctx context.Context, id uint) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*model.User, error) {
	if m.getByLoginFn != nil {
		return m.getByLoginFn(ctx, usernameOrEmail)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsUserFn != nil {
		return m.existsUserFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsEmailFn != nil {
		return m.existsEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) List(ctx context.Context, limit, offset int) ([]model.User, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockUserRepository) TouchLastSeen(ctx context.Context, id uint, at time.Time) error {
	if m.touchFn != nil {
		return m.touchFn(ctx, id, at)
	}
	return nil
}

func (m *mockUserRepository) Identifiers(ctx context.Context) ([]string, []string, error) {
	if m.identifiersFn != nil {
		return m.identifiersFn(ctx)
	}
	return nil, nil, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:     "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func boolSettings(values map[string]string) *SettingsService {
	rows := map[string]model.Setting{}
	for key, raw := range values {
		rows[key] = model.Setting{Key: key, Value: raw, ValueType: model.SettingTypeBool}
	}
	return settingsWith(rows)
}

func TestAuthService_Register_DisabledRegistration(t *testing.T) {
	settings := boolSettings(map[string]string{SettingRegistrationEnabled: "false"})
	svc := NewAuthService(&mockUserRepository{}, NewInvitationService(&mockInvitationRepository{}, nil), settings, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "secret1",
	})
	if !errors.Is(err, ErrRegistrationDisabled) {
		t.Fatalf("expected ErrRegistrationDisabled, got %v", err)
	}
}

func TestAuthService_Register_InvitationRequired(t *testing.T) {
	settings := boolSettings(map[string]string{
		SettingRegistrationEnabled: "true",
		SettingInvitationRequired:  "true",
	})
	svc := NewAuthService(&mockUserRepository{}, NewInvitationService(&mockInvitationRepository{}, nil), settings, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "secret1",
	})
	if !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("expected ErrInvalidInvitation without a code, got %v", err)
	}
}

func TestAuthService_Register_ConsumesInvitation(t *testing.T) {
	settings := boolSettings(map[string]string{
		SettingRegistrationEnabled: "true",
		SettingInvitationRequired:  "true",
	})

	var consumedBy uint
	invitations := NewInvitationService(&mockInvitationRepository{
		getFn: func(ctx context.Context, code string) (*model.InvitationCode, error) {
			return &model.InvitationCode{Code: code}, nil
		},
		consumeFn: func(ctx context.Context, code string, userID uint, at time.Time) error {
			consumedBy = userID
			return nil
		},
	}, nil)

	users := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 7
			return nil
		},
	}

	svc := NewAuthService(users, invitations, settings, nil, testAuthConfig())
	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "secret1",
		InvitationCode: "GOOD0000",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != model.RoleUser || !user.IsActive {
		t.Fatalf("new account should be an active regular user, got %+v", user)
	}
	if consumedBy != 7 {
		t.Fatalf("invitation should be consumed by the new user, got %d", consumedBy)
	}
}

func TestAuthService_Register_RollsBackOnConsumeRace(t *testing.T) {
	settings := boolSettings(map[string]string{SettingRegistrationEnabled: "true"})

	invitations := NewInvitationService(&mockInvitationRepository{
		getFn: func(ctx context.Context, code string) (*model.InvitationCode, error) {
			return &model.InvitationCode{Code: code}, nil
		},
		consumeFn: func(ctx context.Context, code string, userID uint, at time.Time) error {
			return repository.ErrInvitationConsumed
		},
	}, nil)

	var deleted uint
	users := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 7
			return nil
		},
		deleteFn: func(ctx context.Context, id uint) error {
			deleted = id
			return nil
		},
	}

	svc := NewAuthService(users, invitations, settings, nil, testAuthConfig())
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "secret1",
		InvitationCode: "RACE0000",
	})
	if !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("expected ErrInvalidInvitation, got %v", err)
	}
	if deleted != 7 {
		t.Fatalf("account should be rolled back after losing the code race, got %d", deleted)
	}
}

func TestAuthService_Register_TakenIdentifiers(t *testing.T) {
	settings := boolSettings(map[string]string{SettingRegistrationEnabled: "true"})
	users := &mockUserRepository{
		existsUserFn: func(ctx context.Context, username string) (bool, error) {
			return username == "taken", nil
		},
		existsEmailFn: func(ctx context.Context, email string) (bool, error) {
			return email == "taken@example.com", nil
		},
	}
	svc := NewAuthService(users, NewInvitationService(&mockInvitationRepository{}, nil), settings, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "taken", Email: "new@example.com", Password: "secret1",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "new", Email: "taken@example.com", Password: "secret1",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	account := &model.User{ID: 1, Username: "alice", PasswordHash: string(hash), IsActive: true, Role: model.RoleUser}

	users := &mockUserRepository{
		getByLoginFn: func(ctx context.Context, usernameOrEmail string) (*model.User, error) {
			if usernameOrEmail == "alice" || usernameOrEmail == "alice@example.com" {
				u := *account
				return &u, nil
			}
			return nil, repository.ErrUserNotFound
		},
	}
	svc := NewAuthService(users, NewInvitationService(&mockInvitationRepository{}, nil), nil, nil, testAuthConfig())

	if _, _, err := svc.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password should be invalid credentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown login should be invalid credentials, got %v", err)
	}

	account.IsActive = false
	if _, _, err := svc.Login(context.Background(), "alice", "secret1"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("disabled account should not log in, got %v", err)
	}
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	account := &model.User{ID: 5, Username: "alice", IsActive: true, Role: model.RoleAdmin}
	users := &mockUserRepository{
		getFn: func(ctx context.Context, id uint) (*model.User, error) {
			if id == 5 {
				return account, nil
			}
			return nil, repository.ErrUserNotFound
		},
	}
	svc := NewAuthService(users, NewInvitationService(&mockInvitationRepository{}, nil), nil, nil, testAuthConfig())

	token, err := svc.IssueToken(account)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	got, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if got.ID != 5 {
		t.Fatalf("expected user 5, got %d", got.ID)
	}

	if _, err := svc.Authenticate(context.Background(), token+"tampered"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("tampered token should be rejected, got %v", err)
	}

	other := NewAuthService(users, nil, nil, nil, AuthConfig{Secret: "other-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	if _, err := other.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("token signed with another secret should be rejected, got %v", err)
	}
}
