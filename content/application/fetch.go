package application

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/rs/zerolog/log"
)

// Fetcher wraps a ContentSource with the site's failure policy: list and
// aggregate reads degrade to empty values, single lookups degrade to nil.
// Failures are logged, never returned.
type Fetcher struct {
	source domain.ContentSource
}

func NewFetcher(source domain.ContentSource) *Fetcher {
	return &Fetcher{source: source}
}

func (f *Fetcher) Posts(ctx context.Context, params domain.ListParams) *domain.Page[domain.Post] {
	page, err := f.source.ListPosts(ctx, params)
	return pageOrEmpty(ctx, page, err, "posts")
}

func (f *Fetcher) Post(ctx context.Context, slug string) *domain.Post {
	post, err := f.source.GetPost(ctx, slug)
	return oneOrNil(ctx, post, err, "post", slug)
}

func (f *Fetcher) LatestPosts(ctx context.Context, limit int) []domain.Post {
	posts, err := f.source.LatestPosts(ctx, limit)
	return listOrEmpty(ctx, posts, err, "latest posts")
}

func (f *Fetcher) Categories(ctx context.Context, params domain.ListParams) *domain.Page[domain.Category] {
	page, err := f.source.ListCategories(ctx, params)
	return pageOrEmpty(ctx, page, err, "categories")
}

func (f *Fetcher) Products(ctx context.Context, params domain.ListParams) *domain.Page[domain.Product] {
	page, err := f.source.ListProducts(ctx, params)
	return pageOrEmpty(ctx, page, err, "products")
}

func (f *Fetcher) Product(ctx context.Context, slug string) *domain.Product {
	product, err := f.source.GetProduct(ctx, slug)
	return oneOrNil(ctx, product, err, "product", slug)
}

func (f *Fetcher) FeaturedProducts(ctx context.Context, limit int) []domain.Product {
	products, err := f.source.FeaturedProducts(ctx, limit)
	return listOrEmpty(ctx, products, err, "featured products")
}

func (f *Fetcher) ProductCategories(ctx context.Context, params domain.ListParams) *domain.Page[domain.ProductCategory] {
	page, err := f.source.ListProductCategories(ctx, params)
	return pageOrEmpty(ctx, page, err, "product categories")
}

type degradedCtxKey struct{}

// trackDegraded returns a context under which every fallback read is
// recorded in the returned flag.
func trackDegraded(ctx context.Context) (context.Context, *atomic.Bool) {
	flag := new(atomic.Bool)
	return context.WithValue(ctx, degradedCtxKey{}, flag), flag
}

func markDegraded(ctx context.Context) {
	if flag, ok := ctx.Value(degradedCtxKey{}).(*atomic.Bool); ok {
		flag.Store(true)
	}
}

func pageOrEmpty[T any](ctx context.Context, page *domain.Page[T], err error, what string) *domain.Page[T] {
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("resource", what).Msg("Failed to fetch list")
		markDegraded(ctx)
		return &domain.Page[T]{Items: []T{}}
	}
	if page == nil {
		return &domain.Page[T]{Items: []T{}}
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func listOrEmpty[T any](ctx context.Context, items []T, err error, what string) []T {
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("resource", what).Msg("Failed to fetch list")
		markDegraded(ctx)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func oneOrNil[T any](ctx context.Context, v *T, err error, what, slug string) *T {
	if err == nil {
		return v
	}

	if errors.Is(err, domain.ErrNotFound) {
		log.Ctx(ctx).Debug().Str("resource", what).Str("slug", slug).Msg("Content not found")
	} else {
		log.Ctx(ctx).Error().Err(err).Str("resource", what).Str("slug", slug).Msg("Failed to fetch content")
		markDegraded(ctx)
	}
	return nil
}
