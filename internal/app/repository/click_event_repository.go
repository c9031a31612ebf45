package repository

import (
	"context"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
)

// ClickEventRepository defines the data access contract for the append-only
// click log fed by the JetStream consumer.
type ClickEventRepository interface {
	Create(ctx context.Context, event *model.ClickEvent) error
	ListByWebsite(ctx context.Context, websiteID uint, limit int) ([]model.ClickEvent, error)
}

type clickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository returns a GORM-backed ClickEventRepository.
func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &clickEventRepository{db: db}
}

func (r *clickEventRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *clickEventRepository) ListByWebsite(ctx context.Context, websiteID uint, limit int) ([]model.ClickEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []model.ClickEvent
	err := r.db.WithContext(ctx).
		Where("website_id = ?", websiteID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
