package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	// Retries before giving up on finding an unused random code.
	codeGenerateAttempts = 5
)

// InvitationService manages the single-use registration codes.
type InvitationService interface {
	Generate(ctx context.Context, creator *model.User, expiresAt *time.Time) (*model.InvitationCode, error)
	Verify(ctx context.Context, code string) error
	Consume(ctx context.Context, code string, userID uint) error
	List(ctx context.Context, limit, offset int) ([]model.InvitationCode, int64, error)
}

type invitationService struct {
	invitations repository.InvitationRepository
	filter      *ExistenceFilter
	now         func() time.Time
}

// NewInvitationService returns a service backed by the given repository. The
// existence filter is optional and only short-circuits uniqueness probes.
func NewInvitationService(invitations repository.InvitationRepository, filter *ExistenceFilter) InvitationService {
	return &invitationService{
		invitations: invitations,
		filter:      filter,
		now:         time.Now,
	}
}

// randomCode draws codeLength characters from [A-Z0-9].
func randomCode() (string, error) {
	return randomCodeFrom(rand.Reader)
}

// randomCodeFrom maps random bytes onto the alphabet with rejection
// sampling: bytes beyond the largest multiple of the alphabet size are
// discarded, so every character is equally likely.
func randomCodeFrom(r io.Reader) (string, error) {
	limit := 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(out) < codeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}
	return string(out), nil
}

// Generate mints a fresh unique code. Uniqueness is the caller side of the
// contract: the generator retries against the store until the code is free.
func (s *invitationService) Generate(ctx context.Context, creator *model.User, expiresAt *time.Time) (*model.InvitationCode, error) {
	for attempt := 0; attempt < codeGenerateAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		if s.filter == nil || s.filter.MightContain(code) {
			exists, err := s.invitations.ExistsByCode(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("check code: %w", err)
			}
			if exists {
				continue
			}
		}

		invitation := &model.InvitationCode{
			Code:      code,
			CreatorID: creator.ID,
			ExpiresAt: expiresAt,
		}
		if err := s.invitations.Create(ctx, invitation); err != nil {
			return nil, fmt.Errorf("store code: %w", err)
		}
		if s.filter != nil {
			s.filter.Add(code)
		}
		return invitation, nil
	}
	return nil, errors.New("failed to generate a unique invitation code")
}

// Verify reports whether the code could be consumed right now. Expiry is
// computed lazily from expires_at; nothing is purged proactively.
func (s *invitationService) Verify(ctx context.Context, code string) error {
	invitation, err := s.invitations.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return ErrInvalidInvitation
		}
		return fmt.Errorf("load code: %w", err)
	}
	if !invitation.IsValid(s.now()) {
		return ErrInvalidInvitation
	}
	return nil
}

// Consume transitions unused → used. The update is conditional on is_used,
// so of two concurrent callers exactly one succeeds.
func (s *invitationService) Consume(ctx context.Context, code string, userID uint) error {
	if err := s.Verify(ctx, code); err != nil {
		return err
	}
	err := s.invitations.Consume(ctx, code, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrInvitationConsumed) || errors.Is(err, repository.ErrInvitationNotFound) {
			return ErrInvalidInvitation
		}
		return fmt.Errorf("consume code: %w", err)
	}
	return nil
}

func (s *invitationService) List(ctx context.Context, limit, offset int) ([]model.InvitationCode, int64, error) {
	return s.invitations.List(ctx, limit, offset)
}
