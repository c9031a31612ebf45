package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
)

const pathSeparator = " / "

// CategoryService maintains a forest of categories per owner. Tree walks run
// over an in-memory arena keyed by id, loaded once per operation.
type CategoryService interface {
	Create(ctx context.Context, actor *model.User, input CreateCategoryInput) (*model.Category, error)
	Get(ctx context.Context, scope model.Scope, id uint) (*model.Category, error)
	List(ctx context.Context, scope model.Scope, rootsOnly bool) ([]model.Category, error)
	ListOwned(ctx context.Context, userID uint) ([]model.Category, error)
	Children(ctx context.Context, scope model.Scope, id uint) ([]model.Category, error)
	Path(ctx context.Context, id uint) (string, error)
	Subtree(ctx context.Context, id uint) ([]model.Category, error)
	Update(ctx context.Context, actor *model.User, id uint, input UpdateCategoryInput) (*model.Category, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
}

type categoryService struct {
	categories repository.CategoryRepository
	websites   repository.WebsiteRepository
}

// NewCategoryService returns a service backed by the given repositories.
func NewCategoryService(categories repository.CategoryRepository, websites repository.WebsiteRepository) CategoryService {
	return &categoryService{categories: categories, websites: websites}
}

// CreateCategoryInput captures data required to create a category.
type CreateCategoryInput struct {
	Name        string
	Description string
	Icon        string
	SortOrder   int
	IsVisible   bool
	IsPublic    bool
	ParentID    *uint
}

// UpdateCategoryInput captures fields that can be changed on a category.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	Icon        *string
	SortOrder   *int
	IsVisible   *bool
	IsPublic    *bool
	ParentID    *uint
	ClearParent bool
}

func (s *categoryService) Create(ctx context.Context, actor *model.User, input CreateCategoryInput) (*model.Category, error) {
	if input.ParentID != nil {
		parent, err := s.categories.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("load parent: %w", err)
		}
		if parent.UserID != actor.ID && !actor.IsAdmin() {
			return nil, ErrForbidden
		}
	}

	category := &model.Category{
		Name:        input.Name,
		Description: input.Description,
		Icon:        input.Icon,
		SortOrder:   input.SortOrder,
		IsVisible:   input.IsVisible,
		IsPublic:    input.IsPublic,
		UserID:      actor.ID,
		ParentID:    input.ParentID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Get returns the category or ErrCategoryNotFound for a missing id and
// ErrForbidden for an existing one the scope may not see.
func (s *categoryService) Get(ctx context.Context, scope model.Scope, id uint) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanView(category.UserID, category.IsPublic) {
		return nil, ErrForbidden
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context, scope model.Scope, rootsOnly bool) ([]model.Category, error) {
	return s.categories.List(ctx, repository.CategoryListFilter{
		Scope:       scope,
		VisibleOnly: true,
		RootsOnly:   rootsOnly,
	})
}

func (s *categoryService) ListOwned(ctx context.Context, userID uint) ([]model.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

func (s *categoryService) Children(ctx context.Context, scope model.Scope, id uint) ([]model.Category, error) {
	parent, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	arena, err := s.loadArena(ctx, parent.UserID)
	if err != nil {
		return nil, err
	}

	// A public parent may hold private children; each child is gated on its
	// own visibility, not the parent's.
	var children []model.Category
	for _, child := range arena.children[parent.ID] {
		if child.IsVisible && scope.CanView(child.UserID, child.IsPublic) {
			children = append(children, *child)
		}
	}
	return children, nil
}

// Path walks parent references to the root and joins names, O(depth).
func (s *categoryService) Path(ctx context.Context, id uint) (string, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	arena, err := s.loadArena(ctx, category.UserID)
	if err != nil {
		return "", err
	}

	names := []string{category.Name}
	seen := map[uint]bool{category.ID: true}
	for cur := category; cur.ParentID != nil; {
		parent, ok := arena.nodes[*cur.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		names = append([]string{parent.Name}, names...)
		cur = parent
	}
	return strings.Join(names, pathSeparator), nil
}

// Subtree collects the category and all its descendants in pre-order.
func (s *categoryService) Subtree(ctx context.Context, id uint) ([]model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	arena, err := s.loadArena(ctx, category.UserID)
	if err != nil {
		return nil, err
	}
	return arena.subtree(category.ID), nil
}

func (s *categoryService) Update(ctx context.Context, actor *model.User, id uint, input UpdateCategoryInput) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if category.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if input.Name != nil {
		category.Name = *input.Name
	}
	if input.Description != nil {
		category.Description = *input.Description
	}
	if input.Icon != nil {
		category.Icon = *input.Icon
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsVisible != nil {
		category.IsVisible = *input.IsVisible
	}
	if input.IsPublic != nil {
		category.IsPublic = *input.IsPublic
	}

	switch {
	case input.ClearParent:
		category.ParentID = nil
	case input.ParentID != nil:
		arena, err := s.loadArena(ctx, category.UserID)
		if err != nil {
			return nil, err
		}
		if !arena.canReparent(category.ID, *input.ParentID) {
			return nil, ErrInvalidParent
		}
		category.ParentID = input.ParentID
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete cascades over the whole subtree: websites first, then the
// categories themselves, so no child is ever left with a dangling parent.
func (s *categoryService) Delete(ctx context.Context, actor *model.User, id uint) error {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if category.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	subtree, err := s.Subtree(ctx, id)
	if err != nil {
		return err
	}

	ids := make([]uint, 0, len(subtree))
	for _, c := range subtree {
		ids = append(ids, c.ID)
	}

	if err := s.websites.DeleteByCategoryIDs(ctx, ids); err != nil {
		return fmt.Errorf("delete websites: %w", err)
	}
	if err := s.categories.DeleteMany(ctx, ids); err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	return nil
}

// arena indexes one owner's forest by id for pointer-free tree walks.
type categoryArena struct {
	nodes    map[uint]*model.Category
	children map[uint][]*model.Category
}

func (s *categoryService) loadArena(ctx context.Context, userID uint) (*categoryArena, error) {
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	arena := &categoryArena{
		nodes:    make(map[uint]*model.Category, len(categories)),
		children: make(map[uint][]*model.Category),
	}
	for i := range categories {
		arena.nodes[categories[i].ID] = &categories[i]
	}
	for i := range categories {
		c := &categories[i]
		if c.ParentID != nil {
			arena.children[*c.ParentID] = append(arena.children[*c.ParentID], c)
		}
	}
	return arena, nil
}

// canReparent rejects self-assignment and any parent that sits inside the
// node's own subtree, checking the cycle from both directions.
func (a *categoryArena) canReparent(nodeID, parentID uint) bool {
	if nodeID == parentID {
		return false
	}
	parent, ok := a.nodes[parentID]
	if !ok {
		return false
	}

	// Walk up from the proposed parent; hitting the node means the parent
	// is one of the node's descendants.
	seen := map[uint]bool{}
	for cur := parent; cur != nil; {
		if cur.ID == nodeID || seen[cur.ID] {
			return false
		}
		seen[cur.ID] = true
		if cur.ParentID == nil {
			break
		}
		cur = a.nodes[*cur.ParentID]
	}
	return true
}

func (a *categoryArena) subtree(rootID uint) []model.Category {
	root, ok := a.nodes[rootID]
	if !ok {
		return nil
	}

	var out []model.Category
	stack := []*model.Category{root}
	visited := map[uint]bool{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur.ID] {
			continue
		}
		visited[cur.ID] = true
		out = append(out, *cur)

		kids := a.children[cur.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}
