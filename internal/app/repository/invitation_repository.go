package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrInvitationNotFound signals that the requested code does not exist.
	ErrInvitationNotFound = errors.New("invitation code not found")
	// ErrInvitationConsumed signals a consume attempt on a code that was
	// already used, possibly by a concurrent request.
	ErrInvitationConsumed = errors.New("invitation code already used")
)

// InvitationRepository defines the data access contract for invitation codes.
type InvitationRepository interface {
	Create(ctx context.Context, code *model.InvitationCode) error
	GetByCode(ctx context.Context, code string) (*model.InvitationCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]model.InvitationCode, int64, error)
	Consume(ctx context.Context, code string, userID uint, at time.Time) error
}

type invitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository returns a GORM-backed InvitationRepository.
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, code *model.InvitationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *invitationRepository) GetByCode(ctx context.Context, code string) (*model.InvitationCode, error) {
	var invitation model.InvitationCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *invitationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.InvitationCode{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *invitationRepository) List(ctx context.Context, limit, offset int) ([]model.InvitationCode, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.InvitationCode{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var codes []model.InvitationCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&codes).Error
	if err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// Consume marks the code used with a conditional update. Two concurrent
// calls cannot both succeed: the second sees zero rows affected.
func (r *invitationRepository) Consume(ctx context.Context, code string, userID uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.InvitationCode{}).
		Where("code = ? AND is_used = ?", code, false).
		Updates(map[string]interface{}{
			"is_used":    true,
			"used_at":    at,
			"used_by_id": userID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		exists, err := r.ExistsByCode(ctx, code)
		if err != nil {
			return err
		}
		if !exists {
			return ErrInvitationNotFound
		}
		return ErrInvitationConsumed
	}
	return nil
}
