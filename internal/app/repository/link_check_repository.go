package repository

import (
	"context"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
)

// LinkCheckRepository defines the data access contract for the append-only
// link check history.
type LinkCheckRepository interface {
	Create(ctx context.Context, check *model.LinkCheck) error
	ListByWebsite(ctx context.Context, websiteID uint, limit int) ([]model.LinkCheck, error)
}

type linkCheckRepository struct {
	db *gorm.DB
}

// NewLinkCheckRepository returns a GORM-backed LinkCheckRepository.
func NewLinkCheckRepository(db *gorm.DB) LinkCheckRepository {
	return &linkCheckRepository{db: db}
}

func (r *linkCheckRepository) Create(ctx context.Context, check *model.LinkCheck) error {
	return r.db.WithContext(ctx).Create(check).Error
}

func (r *linkCheckRepository) ListByWebsite(ctx context.Context, websiteID uint, limit int) ([]model.LinkCheck, error) {
	if limit <= 0 {
		limit = 20
	}

	var checks []model.LinkCheck
	err := r.db.WithContext(ctx).
		Where("website_id = ?", websiteID).
		Order("created_at DESC").
		Limit(limit).
		Find(&checks).Error
	if err != nil {
		return nil, err
	}
	return checks, nil
}
