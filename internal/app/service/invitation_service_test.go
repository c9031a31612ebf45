package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
)

type mockInvitationRepository struct {
	createFn    func(ctx context.Context, code *model.InvitationCode) error
	getFn       func(ctx context.Context, code string) (*model.InvitationCode, error)
	existsFn    func(ctx context.Context, code string) (bool, error)
	listFn      func(ctx context.Context, limit, offset int) ([]model.InvitationCode, int64, error)
	consumeFn   func(ctx context.Context, code string, userID uint, at time.Time) error
}

func (m *mockInvitationRepository) Create(ctx context.Context, code *model.InvitationCode) error {
	if m.createFn != nil {
		return m.createFn(ctx, code)
	}
	return nil
}

func (m *mockInvitationRepository) GetByCode(ctx context.Context, code string) (*model.InvitationCode, error) {
	if m.getFn != nil {
		return m.getFn(ctx, code)
	}
	return nil, repository.ErrInvitationNotFound
}

func (m *mockInvitationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, code)
	}
	return false, nil
}

func (m *mockInvitationRepository) List(ctx context.Context, limit, offset int) ([]model.InvitationCode, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockInvitationRepository) Consume(ctx context.Context, code string, userID uint, at time.Time) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, code, userID, at)
	}
	return nil
}

func TestInvitationService_Generate(t *testing.T) {
	var stored *model.InvitationCode
	repo := &mockInvitationRepository{
		createFn: func(ctx context.Context, code *model.InvitationCode) error {
			stored = code
			return nil
		},
	}
	svc := NewInvitationService(repo, nil)

	creator := &model.User{ID: 3, Role: model.RoleAdmin}
	code, err := svc.Generate(context.Background(), creator, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(code.Code) != codeLength {
		t.Fatalf("expected %d characters, got %q", codeLength, code.Code)
	}
	for _, r := range code.Code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", code.Code, r)
		}
	}
	if stored == nil || stored.CreatorID != 3 {
		t.Fatalf("expected stored code with creator 3, got %+v", stored)
	}
}

func TestRandomCode_DiscardsBiasedBytes(t *testing.T) {
	// 252..255 sit past the largest multiple of the alphabet size; folding
	// them in would skew the draw toward the first four characters. The
	// generator must skip them and keep reading.
	source := bytes.NewReader([]byte{
		252, 253, 254, 255, 0, 1, 2, 3,
		4, 5, 6, 7, 8, 9, 10, 11,
	})

	code, err := randomCodeFrom(source)
	if err != nil {
		t.Fatalf("randomCodeFrom returned error: %v", err)
	}
	if code != "ABCDEFGH" {
		t.Fatalf("expected the biased bytes to be rejected, got %q", code)
	}
}

func TestRandomCode_ErrsOnExhaustedSource(t *testing.T) {
	if _, err := randomCodeFrom(bytes.NewReader([]byte{0, 1, 2})); err == nil {
		t.Fatal("expected an error when the random source runs dry")
	}
}

func TestInvitationService_Generate_RetriesOnCollision(t *testing.T) {
	calls := 0
	repo := &mockInvitationRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			calls++
			return calls == 1, nil
		},
	}
	svc := NewInvitationService(repo, nil)

	if _, err := svc.Generate(context.Background(), &model.User{ID: 1}, nil); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if calls < 2 {
		t.Fatalf("expected a retry after collision, got %d lookups", calls)
	}
}

func TestInvitationService_Verify(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	codes := map[string]*model.InvitationCode{
		"FRESH000": {Code: "FRESH000"},
		"EXPIRED0": {Code: "EXPIRED0", ExpiresAt: &past},
		"UNTIL000": {Code: "UNTIL000", ExpiresAt: &future},
		"USED0000": {Code: "USED0000", IsUsed: true},
	}
	repo := &mockInvitationRepository{
		getFn: func(ctx context.Context, code string) (*model.InvitationCode, error) {
			if c, ok := codes[code]; ok {
				return c, nil
			}
			return nil, repository.ErrInvitationNotFound
		},
	}
	svc := NewInvitationService(repo, nil)

	if err := svc.Verify(context.Background(), "FRESH000"); err != nil {
		t.Fatalf("code without expiry should verify: %v", err)
	}
	if err := svc.Verify(context.Background(), "UNTIL000"); err != nil {
		t.Fatalf("unexpired code should verify: %v", err)
	}
	if err := svc.Verify(context.Background(), "EXPIRED0"); !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("expired code should be invalid, got %v", err)
	}
	if err := svc.Verify(context.Background(), "USED0000"); !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("used code should be invalid, got %v", err)
	}
	if err := svc.Verify(context.Background(), "MISSING0"); !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("unknown code should be invalid, got %v", err)
	}
}

func TestInvitationService_Consume_LosesRace(t *testing.T) {
	repo := &mockInvitationRepository{
		getFn: func(ctx context.Context, code string) (*model.InvitationCode, error) {
			return &model.InvitationCode{Code: code}, nil
		},
		consumeFn: func(ctx context.Context, code string, userID uint, at time.Time) error {
			// Another request consumed the code between Verify and Consume.
			return repository.ErrInvitationConsumed
		},
	}
	svc := NewInvitationService(repo, nil)

	err := svc.Consume(context.Background(), "RACE0000", 5)
	if !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("lost race should surface as invalid invitation, got %v", err)
	}
}

func TestInvitationService_Consume(t *testing.T) {
	var consumedBy uint
	repo := &mockInvitationRepository{
		getFn: func(ctx context.Context, code string) (*model.InvitationCode, error) {
			return &model.InvitationCode{Code: code}, nil
		},
		consumeFn: func(ctx context.Context, code string, userID uint, at time.Time) error {
			consumedBy = userID
			return nil
		},
	}
	svc := NewInvitationService(repo, nil)

	if err := svc.Consume(context.Background(), "GOOD0000", 9); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if consumedBy != 9 {
		t.Fatalf("expected consume by user 9, got %d", consumedBy)
	}
}
