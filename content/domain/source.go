package domain

import "context"

// ContentSource defines the interface for reading content from the remote CMS.
// This allows the application to be decoupled from the HTTP client.
//
// Single-entity lookups return an error wrapping ErrNotFound when the slug
// does not exist.
type ContentSource interface {
	ListPosts(ctx context.Context, params ListParams) (*Page[Post], error)
	GetPost(ctx context.Context, slug string) (*Post, error)
	LatestPosts(ctx context.Context, limit int) ([]Post, error)

	ListCategories(ctx context.Context, params ListParams) (*Page[Category], error)
	GetCategory(ctx context.Context, slug string) (*Category, error)

	ListProducts(ctx context.Context, params ListParams) (*Page[Product], error)
	GetProduct(ctx context.Context, slug string) (*Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]Product, error)

	ListProductCategories(ctx context.Context, params ListParams) (*Page[ProductCategory], error)
	GetProductCategory(ctx context.Context, slug string) (*ProductCategory, error)

	Settings(ctx context.Context) (*SettingsConfig, error)
	Menus(ctx context.Context) ([]MenuItem, error)
	HomeComponents(ctx context.Context) ([]HomeComponent, error)
	HomeComponent(ctx context.Context, t ComponentType) (*HomeComponent, error)
}
