package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
)

type mockCategoryRepository struct {
	createFn     func(ctx context.Context, category *model.Category) error
	getFn        func(ctx context.Context, id uint) (*model.Category, error)
	listFn       func(ctx context.Context, filter repository.CategoryListFilter) ([]model.Category, error)
	listByUserFn func(ctx context.Context, userID uint) ([]model.Category, error)
	updateFn     func(ctx context.Context, category *model.Category) error
	deleteManyFn func(ctx context.Context, ids []uint) error
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) List(ctx context.Context, filter repository.CategoryListFilter) ([]model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockCategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *model.Category) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepository) DeleteMany(ctx context.Context, ids []uint) error {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, ids)
	}
	return nil
}

func uintPtr(v uint) *uint { return &v }

// sampleForest is Dev(1) -> Go(2) -> Tools(3), plus a sibling root Misc(4).
func sampleForest() []model.Category {
	return []model.Category{
		{ID: 1, Name: "Dev", UserID: 1, IsVisible: true},
		{ID: 2, Name: "Go", UserID: 1, ParentID: uintPtr(1), IsVisible: true},
		{ID: 3, Name: "Tools", UserID: 1, ParentID: uintPtr(2), IsVisible: true},
		{ID: 4, Name: "Misc", UserID: 1, IsVisible: true},
	}
}

func forestRepo() *mockCategoryRepository {
	forest := sampleForest()
	return &mockCategoryRepository{
		getFn: func(ctx context.Context, id uint) (*model.Category, error) {
			for i := range forest {
				if forest[i].ID == id {
					c := forest[i]
					return &c, nil
				}
			}
			return nil, repository.ErrCategoryNotFound
		},
		listByUserFn: func(ctx context.Context, userID uint) ([]model.Category, error) {
			return sampleForest(), nil
		},
	}
}

func TestCategoryService_Path(t *testing.T) {
	svc := NewCategoryService(forestRepo(), &mockWebsiteRepository{})

	path, err := svc.Path(context.Background(), 3)
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	if path != "Dev / Go / Tools" {
		t.Fatalf("expected full path, got %q", path)
	}

	path, err = svc.Path(context.Background(), 1)
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	if path != "Dev" {
		t.Fatalf("expected root-only path, got %q", path)
	}
}

func TestCategoryService_Update_RejectsCycle(t *testing.T) {
	owner := &model.User{ID: 1, Role: model.RoleUser}
	svc := NewCategoryService(forestRepo(), &mockWebsiteRepository{})

	// Moving Dev under its own grandchild would close a cycle.
	_, err := svc.Update(context.Background(), owner, 1, UpdateCategoryInput{ParentID: uintPtr(3)})
	if !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent for descendant parent, got %v", err)
	}

	// A category can never be its own parent.
	_, err = svc.Update(context.Background(), owner, 2, UpdateCategoryInput{ParentID: uintPtr(2)})
	if !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent for self parent, got %v", err)
	}
}

func TestCategoryService_Update_ReparentToSibling(t *testing.T) {
	owner := &model.User{ID: 1, Role: model.RoleUser}
	repo := forestRepo()

	var saved *model.Category
	repo.updateFn = func(ctx context.Context, category *model.Category) error {
		saved = category
		return nil
	}

	svc := NewCategoryService(repo, &mockWebsiteRepository{})
	_, err := svc.Update(context.Background(), owner, 3, UpdateCategoryInput{ParentID: uintPtr(4)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if saved == nil || saved.ParentID == nil || *saved.ParentID != 4 {
		t.Fatalf("expected parent to be 4, got %+v", saved)
	}
}

func TestCategoryService_Update_ForbiddenForOtherUser(t *testing.T) {
	other := &model.User{ID: 2, Role: model.RoleUser}
	svc := NewCategoryService(forestRepo(), &mockWebsiteRepository{})

	_, err := svc.Update(context.Background(), other, 1, UpdateCategoryInput{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCategoryService_Delete_CascadesSubtree(t *testing.T) {
	owner := &model.User{ID: 1, Role: model.RoleUser}
	repo := forestRepo()
	websites := &mockWebsiteRepository{}

	var deletedCategoryIDs []uint
	repo.deleteManyFn = func(ctx context.Context, ids []uint) error {
		deletedCategoryIDs = ids
		return nil
	}
	var deletedWebsiteCategoryIDs []uint
	websites.deleteByCategoryIDsFn = func(ctx context.Context, ids []uint) error {
		deletedWebsiteCategoryIDs = ids
		return nil
	}

	svc := NewCategoryService(repo, websites)
	if err := svc.Delete(context.Background(), owner, 1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	want := map[uint]bool{1: true, 2: true, 3: true}
	if len(deletedCategoryIDs) != len(want) {
		t.Fatalf("expected subtree ids %v, got %v", want, deletedCategoryIDs)
	}
	for _, id := range deletedCategoryIDs {
		if !want[id] {
			t.Fatalf("unexpected deleted category id %d", id)
		}
	}
	if len(deletedWebsiteCategoryIDs) != len(want) {
		t.Fatalf("websites should be deleted for the whole subtree, got %v", deletedWebsiteCategoryIDs)
	}
}

func TestCategoryService_Children_FiltersByScope(t *testing.T) {
	mixed := []model.Category{
		{ID: 1, Name: "Shared", UserID: 1, IsVisible: true, IsPublic: true},
		{ID: 2, Name: "Public child", UserID: 1, ParentID: uintPtr(1), IsVisible: true, IsPublic: true},
		{ID: 3, Name: "Private child", UserID: 1, ParentID: uintPtr(1), IsVisible: true, IsPublic: false},
	}
	repo := &mockCategoryRepository{
		getFn: func(ctx context.Context, id uint) (*model.Category, error) {
			for i := range mixed {
				if mixed[i].ID == id {
					c := mixed[i]
					return &c, nil
				}
			}
			return nil, repository.ErrCategoryNotFound
		},
		listByUserFn: func(ctx context.Context, userID uint) ([]model.Category, error) {
			return mixed, nil
		},
	}
	svc := NewCategoryService(repo, &mockWebsiteRepository{})

	children, err := svc.Children(context.Background(), model.AnonymousScope(), 1)
	if err != nil {
		t.Fatalf("Children returned error: %v", err)
	}
	if len(children) != 1 || children[0].ID != 2 {
		t.Fatalf("anonymous scope should only see the public child, got %+v", children)
	}

	owner := &model.User{ID: 1, Role: model.RoleUser}
	children, err = svc.Children(context.Background(), model.ScopeFor(owner), 1)
	if err != nil {
		t.Fatalf("Children returned error: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("owner should see both children, got %+v", children)
	}
}

func TestCategoryService_Get_ForbiddenVsNotFound(t *testing.T) {
	repo := &mockCategoryRepository{
		getFn: func(ctx context.Context, id uint) (*model.Category, error) {
			if id == 7 {
				return &model.Category{ID: 7, UserID: 1, IsPublic: false}, nil
			}
			return nil, repository.ErrCategoryNotFound
		},
	}
	svc := NewCategoryService(repo, &mockWebsiteRepository{})

	_, err := svc.Get(context.Background(), model.AnonymousScope(), 7)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("private category should be forbidden, got %v", err)
	}

	_, err = svc.Get(context.Background(), model.AnonymousScope(), 99)
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		t.Fatalf("missing category should be not found, got %v", err)
	}
}
