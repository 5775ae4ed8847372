package application

import (
	"context"
	"errors"
	"sync"

	"github.com/dfryer1193/esatsite/content/domain"
)

var errUpstream = errors.New("upstream unavailable")

// fakeSource is an in-memory domain.ContentSource that counts calls.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int

	posts             []domain.Post
	categories        []domain.Category
	products          []domain.Product
	productCategories []domain.ProductCategory
	featured          []domain.Product
	meta              *domain.PaginationMeta
	settings          *domain.SettingsConfig
	menus             []domain.MenuItem
	components        []domain.HomeComponent

	lastProductParams domain.ListParams
	lastPostParams    domain.ListParams

	failLists    bool
	failHomeData bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(map[string]int)}
}

func (f *fakeSource) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeSource) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) ListPosts(_ context.Context, params domain.ListParams) (*domain.Page[domain.Post], error) {
	f.record("ListPosts")
	if f.failLists {
		return nil, errUpstream
	}
	f.mu.Lock()
	f.lastPostParams = params
	f.mu.Unlock()
	return &domain.Page[domain.Post]{Items: f.posts, Meta: f.meta}, nil
}

func (f *fakeSource) GetPost(_ context.Context, slug string) (*domain.Post, error) {
	f.record("GetPost")
	for i := range f.posts {
		if f.posts[i].Slug == slug {
			return &f.posts[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSource) LatestPosts(_ context.Context, limit int) ([]domain.Post, error) {
	f.record("LatestPosts")
	return f.posts[:min(limit, len(f.posts))], nil
}

func (f *fakeSource) ListCategories(_ context.Context, _ domain.ListParams) (*domain.Page[domain.Category], error) {
	f.record("ListCategories")
	if f.failLists {
		return nil, errUpstream
	}
	return &domain.Page[domain.Category]{Items: f.categories}, nil
}

func (f *fakeSource) GetCategory(_ context.Context, slug string) (*domain.Category, error) {
	f.record("GetCategory")
	for i := range f.categories {
		if f.categories[i].Slug == slug {
			return &f.categories[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSource) ListProducts(_ context.Context, params domain.ListParams) (*domain.Page[domain.Product], error) {
	f.record("ListProducts")
	if f.failLists {
		return nil, errUpstream
	}
	f.mu.Lock()
	f.lastProductParams = params
	f.mu.Unlock()
	return &domain.Page[domain.Product]{Items: f.products, Meta: f.meta}, nil
}

func (f *fakeSource) GetProduct(_ context.Context, slug string) (*domain.Product, error) {
	f.record("GetProduct")
	for i := range f.products {
		if f.products[i].Slug == slug {
			return &f.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSource) FeaturedProducts(_ context.Context, limit int) ([]domain.Product, error) {
	f.record("FeaturedProducts")
	return f.featured[:min(limit, len(f.featured))], nil
}

func (f *fakeSource) ListProductCategories(_ context.Context, _ domain.ListParams) (*domain.Page[domain.ProductCategory], error) {
	f.record("ListProductCategories")
	if f.failLists {
		return nil, errUpstream
	}
	return &domain.Page[domain.ProductCategory]{Items: f.productCategories}, nil
}

func (f *fakeSource) GetProductCategory(_ context.Context, slug string) (*domain.ProductCategory, error) {
	f.record("GetProductCategory")
	for i := range f.productCategories {
		if f.productCategories[i].Slug == slug {
			return &f.productCategories[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSource) Settings(_ context.Context) (*domain.SettingsConfig, error) {
	f.record("Settings")
	if f.failHomeData {
		return nil, errUpstream
	}
	return f.settings, nil
}

func (f *fakeSource) Menus(_ context.Context) ([]domain.MenuItem, error) {
	f.record("Menus")
	if f.failHomeData {
		return nil, errUpstream
	}
	return f.menus, nil
}

func (f *fakeSource) HomeComponents(_ context.Context) ([]domain.HomeComponent, error) {
	f.record("HomeComponents")
	if f.failHomeData {
		return nil, errUpstream
	}
	return f.components, nil
}

func (f *fakeSource) HomeComponent(_ context.Context, t domain.ComponentType) (*domain.HomeComponent, error) {
	f.record("HomeComponent")
	for i := range f.components {
		if f.components[i].Type == t {
			return &f.components[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func strPtr(s string) *string {
	return &s
}
