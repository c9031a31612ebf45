package repository

import (
	"context"
	"errors"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrTagNotFound signals that the requested tag does not exist.
	ErrTagNotFound = errors.New("tag not found")
)

// TagRepository defines the data access contract for tags.
type TagRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Tag, error)
	FindOrCreate(ctx context.Context, name string) (*model.Tag, error)
	ListUsed(ctx context.Context, scope model.Scope) ([]model.Tag, error)
	AdjustUsage(ctx context.Context, id uint, delta int) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a GORM-backed TagRepository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&tag, model.Tag{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListUsed returns tags attached to at least one active website the scope
// may see, most used first.
func (r *tagRepository) ListUsed(ctx context.Context, scope model.Scope) ([]model.Tag, error) {
	visible := scoped(
		r.db.Table("websites").Select("id").Where("is_active = ?", true),
		scope,
	)

	var tags []model.Tag
	err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Where("id IN (?)", r.db.Table("website_tags").
			Select("tag_id").
			Where("website_id IN (?)", visible)).
		Order("usage_count DESC, name").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) AdjustUsage(ctx context.Context, id uint, delta int) error {
	return r.db.WithContext(ctx).Model(&model.Tag{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + ?", delta)).Error
}
