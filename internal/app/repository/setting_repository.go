package repository

import (
	"context"
	"errors"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSettingNotFound signals that the requested key does not exist.
	ErrSettingNotFound = errors.New("setting not found")
)

// SettingRepository defines the data access contract for site settings.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	Upsert(ctx context.Context, setting *model.Setting) error
	List(ctx context.Context) ([]model.Setting, error)
	ListPublic(ctx context.Context) ([]model.Setting, error)
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository returns a GORM-backed SettingRepository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	var setting model.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return &setting, nil
}

// Upsert rewrites value and value_type together so the decoder can never
// drift from the stored payload.
func (r *settingRepository) Upsert(ctx context.Context, setting *model.Setting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "value_type", "description", "category", "is_public", "updated_at",
		}),
	}).Create(setting).Error
}

func (r *settingRepository) List(ctx context.Context) ([]model.Setting, error) {
	var settings []model.Setting
	err := r.db.WithContext(ctx).
		Order("category, key").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingRepository) ListPublic(ctx context.Context) ([]model.Setting, error) {
	var settings []model.Setting
	err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("key").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}
