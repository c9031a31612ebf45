package service

import (
	"context"
	"fmt"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
)

// TagService exposes read paths over tags. Tag creation happens implicitly
// through website tagging.
type TagService interface {
	Get(ctx context.Context, id uint) (*model.Tag, error)
	ListUsed(ctx context.Context, scope model.Scope) ([]model.Tag, error)
}

type tagService struct {
	tags repository.TagRepository
}

// NewTagService returns a service backed by the given repository.
func NewTagService(tags repository.TagRepository) TagService {
	return &tagService{tags: tags}
}

func (s *tagService) Get(ctx context.Context, id uint) (*model.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

func (s *tagService) ListUsed(ctx context.Context, scope model.Scope) ([]model.Tag, error) {
	tags, err := s.tags.ListUsed(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
