package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	infraprometheus "github.com/xingxinag/onebooknav/internal/infra/prometheus"
	"go.uber.org/zap"
)

// WebsiteService defines behaviour-level operations on websites.
type WebsiteService interface {
	Create(ctx context.Context, actor *model.User, input CreateWebsiteInput) (*model.Website, error)
	Get(ctx context.Context, scope model.Scope, id uint) (*model.Website, error)
	List(ctx context.Context, filter repository.WebsiteListFilter) ([]model.Website, int64, error)
	Update(ctx context.Context, actor *model.User, id uint, input UpdateWebsiteInput) (*model.Website, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	Click(ctx context.Context, scope model.Scope, id uint, ip, userAgent string) (*ClickResult, error)
	SetTags(ctx context.Context, actor *model.User, id uint, names []string) (*model.Website, error)
}

type websiteService struct {
	websites   repository.WebsiteRepository
	categories repository.CategoryRepository
	tags       repository.TagRepository
	publisher  *ClickPublisher
	logger     *zap.Logger
}

// NewWebsiteService returns a service implementation backed by the given
// repositories. The publisher may be nil when NATS is not configured.
func NewWebsiteService(
	websites repository.WebsiteRepository,
	categories repository.CategoryRepository,
	tags repository.TagRepository,
	publisher *ClickPublisher,
	logger *zap.Logger,
) WebsiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &websiteService{
		websites:   websites,
		categories: categories,
		tags:       tags,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreateWebsiteInput captures data required to create a website.
type CreateWebsiteInput struct {
	Title       string
	URL         string
	Description string
	Icon        string
	Keywords    string
	IsPublic    bool
	IsFeatured  bool
	SortOrder   int
	CategoryID  uint
	Tags        []string
}

// UpdateWebsiteInput captures fields that can be changed on a website.
type UpdateWebsiteInput struct {
	Title       *string
	URL         *string
	Description *string
	Icon        *string
	Keywords    *string
	IsActive    *bool
	IsPublic    *bool
	IsFeatured  *bool
	SortOrder   *int
	CategoryID  *uint
}

// ClickResult carries what the click endpoints need: the redirect target and
// the fresh counter value.
type ClickResult struct {
	TargetURL  string
	ClickCount int64
}

func (s *websiteService) Create(ctx context.Context, actor *model.User, input CreateWebsiteInput) (*model.Website, error) {
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if category.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	website := &model.Website{
		Title:       input.Title,
		URL:         input.URL,
		Description: input.Description,
		Icon:        input.Icon,
		Keywords:    input.Keywords,
		IsActive:    true,
		IsPublic:    input.IsPublic,
		IsFeatured:  input.IsFeatured,
		SortOrder:   input.SortOrder,
		LinkStatus:  model.LinkStatusUnknown,
		UserID:      actor.ID,
		CategoryID:  input.CategoryID,
	}
	if err := s.websites.Create(ctx, website); err != nil {
		return nil, fmt.Errorf("create website: %w", err)
	}

	if len(input.Tags) > 0 {
		if _, err := s.SetTags(ctx, actor, website.ID, input.Tags); err != nil {
			return nil, err
		}
	}
	return website, nil
}

// Get returns the website or ErrWebsiteNotFound for a missing id and
// ErrForbidden for an existing one the scope may not see.
func (s *websiteService) Get(ctx context.Context, scope model.Scope, id uint) (*model.Website, error) {
	website, err := s.websites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanView(website.UserID, website.IsPublic) {
		return nil, ErrForbidden
	}
	return website, nil
}

func (s *websiteService) List(ctx context.Context, filter repository.WebsiteListFilter) ([]model.Website, int64, error) {
	return s.websites.List(ctx, filter)
}

func (s *websiteService) Update(ctx context.Context, actor *model.User, id uint, input UpdateWebsiteInput) (*model.Website, error) {
	website, err := s.websites.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load website: %w", err)
	}
	if website.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if input.CategoryID != nil && *input.CategoryID != website.CategoryID {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("load category: %w", err)
		}
		if category.UserID != actor.ID && !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		website.CategoryID = *input.CategoryID
	}

	if input.Title != nil {
		website.Title = *input.Title
	}
	if input.URL != nil {
		website.URL = *input.URL
	}
	if input.Description != nil {
		website.Description = *input.Description
	}
	if input.Icon != nil {
		website.Icon = *input.Icon
	}
	if input.Keywords != nil {
		website.Keywords = *input.Keywords
	}
	if input.IsActive != nil {
		website.IsActive = *input.IsActive
	}
	if input.IsPublic != nil {
		website.IsPublic = *input.IsPublic
	}
	if input.IsFeatured != nil {
		website.IsFeatured = *input.IsFeatured
	}
	if input.SortOrder != nil {
		website.SortOrder = *input.SortOrder
	}

	if err := s.websites.Update(ctx, website); err != nil {
		return nil, fmt.Errorf("update website: %w", err)
	}
	return website, nil
}

func (s *websiteService) Delete(ctx context.Context, actor *model.User, id uint) error {
	website, err := s.websites.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load website: %w", err)
	}
	if website.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	for _, tag := range website.Tags {
		if err := s.tags.AdjustUsage(ctx, tag.ID, -1); err != nil {
			s.logger.Warn("failed to adjust tag usage", zap.Uint("tag_id", tag.ID), zap.Error(err))
		}
	}
	return s.websites.Delete(ctx, id)
}

// Click increments the counter and hands back the target URL. The counter
// moves by a SQL expression, so two sequential clicks always add exactly two.
func (s *websiteService) Click(ctx context.Context, scope model.Scope, id uint, ip, userAgent string) (*ClickResult, error) {
	website, err := s.websites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanView(website.UserID, website.IsPublic) {
		return nil, ErrForbidden
	}

	count, err := s.websites.IncrementClick(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("increment click: %w", err)
	}
	infraprometheus.ClicksTotal.Inc()

	if s.publisher != nil {
		if err := s.publisher.Publish(id, ip, userAgent); err != nil {
			s.logger.Error("failed to publish click event", zap.Uint("website_id", id), zap.Error(err))
		}
	}

	return &ClickResult{TargetURL: website.URL, ClickCount: count}, nil
}

// SetTags replaces the website's tag set and keeps usage counters in step.
func (s *websiteService) SetTags(ctx context.Context, actor *model.User, id uint, names []string) (*model.Website, error) {
	website, err := s.websites.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load website: %w", err)
	}
	if website.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	current := make(map[string]model.Tag, len(website.Tags))
	for _, tag := range website.Tags {
		current[tag.Name] = tag
	}

	next := make([]model.Tag, 0, len(names))
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || wanted[name] {
			continue
		}
		wanted[name] = true

		tag, err := s.tags.FindOrCreate(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		next = append(next, *tag)
		if _, had := current[name]; !had {
			if err := s.tags.AdjustUsage(ctx, tag.ID, 1); err != nil {
				return nil, fmt.Errorf("adjust tag usage: %w", err)
			}
		}
	}
	for name, tag := range current {
		if !wanted[name] {
			if err := s.tags.AdjustUsage(ctx, tag.ID, -1); err != nil {
				return nil, fmt.Errorf("adjust tag usage: %w", err)
			}
		}
	}

	if err := s.websites.ReplaceTags(ctx, website, next); err != nil {
		return nil, fmt.Errorf("replace tags: %w", err)
	}
	website.Tags = next
	return website, nil
}
