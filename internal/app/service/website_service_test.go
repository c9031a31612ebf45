package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
)

type mockWebsiteRepository struct {
	createFn              func(ctx context.Context, website *model.Website) error
	getFn                 func(ctx context.Context, id uint) (*model.Website, error)
	listFn                func(ctx context.Context, filter repository.WebsiteListFilter) ([]model.Website, int64, error)
	updateFn              func(ctx context.Context, website *model.Website) error
	deleteFn              func(ctx context.Context, id uint) error
	deleteByCategoryIDsFn func(ctx context.Context, categoryIDs []uint) error
	incrementClickFn      func(ctx context.Context, id uint, at time.Time) (int64, error)
	setStatusFn           func(ctx context.Context, id uint, status model.LinkStatus) error
	finishCheckFn         func(ctx context.Context, id uint, status model.LinkStatus, responseTime *float64, at time.Time) error
	revertStaleFn         func(ctx context.Context, before time.Time) (int64, error)
	replaceTagsFn         func(ctx context.Context, website *model.Website, tags []model.Tag) error
}

func (m *mockWebsiteRepository) Create(ctx context.Context, website *model.Website) error {
	if m.createFn != nil {
		return m.createFn(ctx, website)
	}
	return nil
}

func (m *mockWebsiteRepository) GetByID(ctx context.Context, id uint) (*model.Website, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrWebsiteNotFound
}

func (m *mockWebsiteRepository) List(ctx context.Context, filter repository.WebsiteListFilter) ([]model.Website, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockWebsiteRepository) Update(ctx context.Context, website *model.Website) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, website)
	}
	return nil
}

func (m *mockWebsiteRepository) Delete(ctx context.Context, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockWebsiteRepository) DeleteByCategoryIDs(ctx context.Context, categoryIDs []uint) error {
	if m.deleteByCategoryIDsFn != nil {
		return m.deleteByCategoryIDsFn(ctx, categoryIDs)
	}
	return nil
}

func (m *mockWebsiteRepository) IncrementClick(ctx context.Context, id uint, at time.Time) (int64, error) {
	if m.incrementClickFn != nil {
		return m.incrementClickFn(ctx, id, at)
	}
	return 0, nil
}

func (m *mockWebsiteRepository) SetStatus(ctx context.Context, id uint, status model.LinkStatus) error {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockWebsiteRepository) FinishCheck(ctx context.Context, id uint, status model.LinkStatus, responseTime *float64, at time.Time) error {
	if m.finishCheckFn != nil {
		return m.finishCheckFn(ctx, id, status, responseTime, at)
	}
	return nil
}

func (m *mockWebsiteRepository) RevertStaleChecking(ctx context.Context, before time.Time) (int64, error) {
	if m.revertStaleFn != nil {
		return m.revertStaleFn(ctx, before)
	}
	return 0, nil
}

func (m *mockWebsiteRepository) ReplaceTags(ctx context.Context, website *model.Website, tags []model.Tag) error {
	if m.replaceTagsFn != nil {
		return m.replaceTagsFn(ctx, website, tags)
	}
	return nil
}

type mockTagRepository struct {
	getFn          func(ctx context.Context, id uint) (*model.Tag, error)
	findOrCreateFn func(ctx context.Context, name string) (*model.Tag, error)
	listUsedFn     func(ctx context.Context, scope model.Scope) ([]model.Tag, error)
	adjustUsageFn  func(ctx context.Context, id uint, delta int) error
}

func (m *mockTagRepository) GetByID(ctx context.Context, id uint) (*model.Tag, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrTagNotFound
}

func (m *mockTagRepository) FindOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	if m.findOrCreateFn != nil {
		return m.findOrCreateFn(ctx, name)
	}
	return &model.Tag{Name: name}, nil
}

func (m *mockTagRepository) ListUsed(ctx context.Context, scope model.Scope) ([]model.Tag, error) {
	if m.listUsedFn != nil {
		return m.listUsedFn(ctx, scope)
	}
	return nil, nil
}

func (m *mockTagRepository) AdjustUsage(ctx context.Context, id uint, delta int) error {
	if m.adjustUsageFn != nil {
		return m.adjustUsageFn(ctx, id, delta)
	}
	return nil
}

func TestWebsiteService_Click_CountsEveryClick(t *testing.T) {
	count := int64(0)
	repo := &mockWebsiteRepository{
		getFn: func(ctx context.Context, id uint) (*model.Website, error) {
			return &model.Website{ID: id, URL: "https://example.com", UserID: 1, IsPublic: true}, nil
		},
		incrementClickFn: func(ctx context.Context, id uint, at time.Time) (int64, error) {
			count++
			return count, nil
		},
	}
	svc := NewWebsiteService(repo, &mockCategoryRepository{}, &mockTagRepository{}, nil, nil)

	first, err := svc.Click(context.Background(), model.AnonymousScope(), 1, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Click returned error: %v", err)
	}
	second, err := svc.Click(context.Background(), model.AnonymousScope(), 1, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Click returned error: %v", err)
	}

	if first.ClickCount != 1 || second.ClickCount != 2 {
		t.Fatalf("expected counts 1 and 2, got %d and %d", first.ClickCount, second.ClickCount)
	}
	if second.TargetURL != "https://example.com" {
		t.Fatalf("unexpected target url %q", second.TargetURL)
	}
}

func TestWebsiteService_Click_PrivateIsForbidden(t *testing.T) {
	repo := &mockWebsiteRepository{
		getFn: func(ctx context.Context, id uint) (*model.Website, error) {
			return &model.Website{ID: id, URL: "https://example.com", UserID: 1, IsPublic: false}, nil
		},
	}
	svc := NewWebsiteService(repo, &mockCategoryRepository{}, &mockTagRepository{}, nil, nil)

	_, err := svc.Click(context.Background(), model.AnonymousScope(), 1, "", "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// The owner can still click their own private bookmark.
	owner := model.ScopeFor(&model.User{ID: 1, Role: model.RoleUser})
	if _, err := svc.Click(context.Background(), owner, 1, "", ""); err != nil {
		t.Fatalf("owner click returned error: %v", err)
	}
}

func TestWebsiteService_Click_MissingIsNotFound(t *testing.T) {
	svc := NewWebsiteService(&mockWebsiteRepository{}, &mockCategoryRepository{}, &mockTagRepository{}, nil, nil)

	_, err := svc.Click(context.Background(), model.AnonymousScope(), 42, "", "")
	if !errors.Is(err, repository.ErrWebsiteNotFound) {
		t.Fatalf("expected ErrWebsiteNotFound, got %v", err)
	}
}

func TestWebsiteService_Create_RequiresOwnCategory(t *testing.T) {
	actor := &model.User{ID: 2, Role: model.RoleUser}
	categories := &mockCategoryRepository{
		getFn: func(ctx context.Context, id uint) (*model.Category, error) {
			return &model.Category{ID: id, UserID: 1}, nil
		},
	}
	svc := NewWebsiteService(&mockWebsiteRepository{}, categories, &mockTagRepository{}, nil, nil)

	_, err := svc.Create(context.Background(), actor, CreateWebsiteInput{
		Title:      "Example",
		URL:        "https://example.com",
		CategoryID: 1,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign category, got %v", err)
	}
}

func TestWebsiteService_SetTags_AdjustsUsage(t *testing.T) {
	actor := &model.User{ID: 1, Role: model.RoleUser}
	repo := &mockWebsiteRepository{
		getFn: func(ctx context.Context, id uint) (*model.Website, error) {
			return &model.Website{
				ID:     id,
				UserID: 1,
				Tags:   []model.Tag{{ID: 10, Name: "old"}, {ID: 11, Name: "keep"}},
			}, nil
		},
	}

	adjustments := map[uint]int{}
	tags := &mockTagRepository{
		findOrCreateFn: func(ctx context.Context, name string) (*model.Tag, error) {
			switch name {
			case "keep":
				return &model.Tag{ID: 11, Name: name}, nil
			case "new":
				return &model.Tag{ID: 12, Name: name}, nil
			}
			t.Fatalf("unexpected tag %q", name)
			return nil, nil
		},
		adjustUsageFn: func(ctx context.Context, id uint, delta int) error {
			adjustments[id] += delta
			return nil
		},
	}

	var replaced []model.Tag
	repo.replaceTagsFn = func(ctx context.Context, website *model.Website, next []model.Tag) error {
		replaced = next
		return nil
	}

	svc := NewWebsiteService(repo, &mockCategoryRepository{}, tags, nil, nil)
	website, err := svc.SetTags(context.Background(), actor, 1, []string{"keep", "new"})
	if err != nil {
		t.Fatalf("SetTags returned error: %v", err)
	}

	if adjustments[10] != -1 {
		t.Fatalf("removed tag should lose a use, got %d", adjustments[10])
	}
	if adjustments[11] != 0 {
		t.Fatalf("kept tag should be untouched, got %d", adjustments[11])
	}
	if adjustments[12] != 1 {
		t.Fatalf("new tag should gain a use, got %d", adjustments[12])
	}
	if len(replaced) != 2 || len(website.Tags) != 2 {
		t.Fatalf("expected 2 tags after replace, got %d", len(replaced))
	}
}
