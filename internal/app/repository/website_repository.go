package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrWebsiteNotFound signals that the requested website does not exist.
	ErrWebsiteNotFound = errors.New("website not found")
)

// WebsiteListFilter narrows website list queries. Scope is always pushed
// into the SQL predicate so offsets and totals stay consistent.
type WebsiteListFilter struct {
	Scope        model.Scope
	ActiveOnly   bool
	FeaturedOnly bool
	PublicOnly   bool
	CategoryIDs  []uint
	TagID        *uint
	UserID       *uint
	Search       string
	OrderByClick bool
	OrderRecent  bool
	Limit        int
	Offset       int
}

// WebsiteRepository defines the data access contract for websites.
type WebsiteRepository interface {
	Create(ctx context.Context, website *model.Website) error
	GetByID(ctx context.Context, id uint) (*model.Website, error)
	List(ctx context.Context, filter WebsiteListFilter) ([]model.Website, int64, error)
	Update(ctx context.Context, website *model.Website) error
	Delete(ctx context.Context, id uint) error
	DeleteByCategoryIDs(ctx context.Context, categoryIDs []uint) error
	IncrementClick(ctx context.Context, id uint, at time.Time) (int64, error)
	SetStatus(ctx context.Context, id uint, status model.LinkStatus) error
	FinishCheck(ctx context.Context, id uint, status model.LinkStatus, responseTime *float64, at time.Time) error
	RevertStaleChecking(ctx context.Context, before time.Time) (int64, error)
	ReplaceTags(ctx context.Context, website *model.Website, tags []model.Tag) error
}

type websiteRepository struct {
	db *gorm.DB
}

// NewWebsiteRepository returns a GORM-backed WebsiteRepository.
func NewWebsiteRepository(db *gorm.DB) WebsiteRepository {
	return &websiteRepository{db: db}
}

func (r *websiteRepository) Create(ctx context.Context, website *model.Website) error {
	return r.db.WithContext(ctx).Create(website).Error
}

func (r *websiteRepository) GetByID(ctx context.Context, id uint) (*model.Website, error) {
	var website model.Website
	err := r.db.WithContext(ctx).Preload("Tags").First(&website, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebsiteNotFound
		}
		return nil, err
	}
	return &website, nil
}

func (r *websiteRepository) List(ctx context.Context, filter WebsiteListFilter) ([]model.Website, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	q := scoped(r.db.WithContext(ctx).Model(&model.Website{}), filter.Scope)
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if filter.PublicOnly {
		q = q.Where("is_public = ?", true)
	}
	if len(filter.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.TagID != nil {
		q = q.Where("id IN (?)", r.db.Table("website_tags").
			Select("website_id").
			Where("tag_id = ?", *filter.TagID))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ? OR keywords LIKE ? OR url LIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch {
	case filter.OrderByClick:
		q = q.Order("click_count DESC, created_at DESC")
	case filter.OrderRecent:
		q = q.Order("created_at DESC")
	default:
		q = q.Order("sort_order, created_at DESC")
	}

	var websites []model.Website
	err := q.Preload("Tags").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&websites).Error
	if err != nil {
		return nil, 0, err
	}
	return websites, total, nil
}

func (r *websiteRepository) Update(ctx context.Context, website *model.Website) error {
	result := r.db.WithContext(ctx).
		Model(&model.Website{}).
		Where("id = ?", website.ID).
		Updates(map[string]interface{}{
			"title":       website.Title,
			"url":         website.URL,
			"description": website.Description,
			"icon":        website.Icon,
			"keywords":    website.Keywords,
			"is_active":   website.IsActive,
			"is_public":   website.IsPublic,
			"is_featured": website.IsFeatured,
			"sort_order":  website.SortOrder,
			"category_id": website.CategoryID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWebsiteNotFound
	}
	return nil
}

func (r *websiteRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Website{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWebsiteNotFound
	}
	return nil
}

func (r *websiteRepository) DeleteByCategoryIDs(ctx context.Context, categoryIDs []uint) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("category_id IN ?", categoryIDs).
		Delete(&model.Website{}).Error
}

// IncrementClick bumps the counter with a SQL expression so concurrent
// clicks never lose updates, then reads the fresh count back.
func (r *websiteRepository) IncrementClick(ctx context.Context, id uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Website{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"click_count":     gorm.Expr("click_count + 1"),
			"last_clicked_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrWebsiteNotFound
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Website{}).
		Where("id = ?", id).
		Pluck("click_count", &count).Error
	return count, err
}

func (r *websiteRepository) SetStatus(ctx context.Context, id uint, status model.LinkStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Website{}).
		Where("id = ?", id).
		Update("link_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWebsiteNotFound
	}
	return nil
}

func (r *websiteRepository) FinishCheck(ctx context.Context, id uint, status model.LinkStatus, responseTime *float64, at time.Time) error {
	updates := map[string]interface{}{
		"link_status":     status,
		"last_checked_at": at,
		"check_count":     gorm.Expr("check_count + 1"),
	}
	if responseTime != nil {
		updates["response_time_ms"] = *responseTime
	}

	result := r.db.WithContext(ctx).Model(&model.Website{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWebsiteNotFound
	}
	return nil
}

func (r *websiteRepository) RevertStaleChecking(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Website{}).
		Where("link_status = ? AND updated_at < ?", model.LinkStatusChecking, before).
		Update("link_status", model.LinkStatusUnknown)
	return result.RowsAffected, result.Error
}

func (r *websiteRepository) ReplaceTags(ctx context.Context, website *model.Website, tags []model.Tag) error {
	return r.db.WithContext(ctx).Model(website).Association("Tags").Replace(tags)
}
