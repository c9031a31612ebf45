package repository

import (
	"context"
	"errors"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrCategoryNotFound signals that the requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryListFilter narrows category list queries.
type CategoryListFilter struct {
	Scope       model.Scope
	VisibleOnly bool
	RootsOnly   bool
	UserID      *uint
}

// CategoryRepository defines the data access contract for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uint) (*model.Category, error)
	List(ctx context.Context, filter CategoryListFilter) ([]model.Category, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	DeleteMany(ctx context.Context, ids []uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a GORM-backed CategoryRepository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, filter CategoryListFilter) ([]model.Category, error) {
	q := scoped(r.db.WithContext(ctx).Model(&model.Category{}), filter.Scope)
	if filter.VisibleOnly {
		q = q.Where("is_visible = ?", true)
	}
	if filter.RootsOnly {
		q = q.Where("parent_id IS NULL")
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}

	var categories []model.Category
	if err := q.Order("sort_order, created_at").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sort_order, created_at").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	result := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]interface{}{
			"name":        category.Name,
			"description": category.Description,
			"icon":        category.Icon,
			"sort_order":  category.SortOrder,
			"is_visible":  category.IsVisible,
			"is_public":   category.IsPublic,
			"parent_id":   category.ParentID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *categoryRepository) DeleteMany(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&model.Category{}, ids).Error
}
