package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	ListPerPage       = 12
	CategoriesPerPage = 100
	featuredForDetail = 5
	maxRelated        = 4
	searchLimit       = 5
)

// ListRequest is what a list page asks for. Category and Page go to the CMS;
// Filter is applied locally to the fetched page.
type ListRequest struct {
	Category string
	Page     int
	Filter   domain.ListFilterState
}

// ListPage is one fetched page of items with its category filter bar.
// Items is the filtered and sorted view of Fetched. Degraded is set when any
// read fell back to an empty value.
type ListPage[T any, C any] struct {
	Home            *domain.HomePageData
	Items           []T
	Fetched         int
	Categories      []C
	CurrentCategory string
	Meta            *domain.PaginationMeta
	Filter          domain.ListFilterState
	Degraded        bool
}

type ProductsPage = ListPage[domain.Product, domain.ProductCategory]

type PostsPage = ListPage[domain.Post, domain.Category]

type ProductDetail struct {
	Home     *domain.HomePageData
	Product  *domain.Product
	Related  []domain.Product
	Degraded bool
}

type PostDetail struct {
	Home     *domain.HomePageData
	Post     *domain.Post
	Degraded bool
}

type SearchResult struct {
	Query    string           `json:"query"`
	Products []domain.Product `json:"products"`
	Posts    []domain.Post    `json:"posts"`
	Degraded bool             `json:"-"`
}

// PageLoader gathers everything a server-rendered page needs in one call.
type PageLoader struct {
	fetch    *Fetcher
	homeData HomeDataFetchFunc
}

func NewPageLoader(fetch *Fetcher, homeData HomeDataFetchFunc) *PageLoader {
	return &PageLoader{
		fetch:    fetch,
		homeData: homeData,
	}
}

// loadHome fetches fresh home data for seeding. Failure yields nil, which
// pages render as empty sections, and marks ctx degraded.
func (l *PageLoader) loadHome(ctx context.Context) *domain.HomePageData {
	data, err := l.homeData(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to load home data")
		markDegraded(ctx)
		return nil
	}
	return data
}

func (l *PageLoader) LoadContactPage(ctx context.Context) *domain.HomePageData {
	return l.loadHome(ctx)
}

func (l *PageLoader) LoadProductsPage(ctx context.Context, req ListRequest) *ProductsPage {
	ctx, degraded := trackDegraded(ctx)
	out := &ProductsPage{
		Home:            l.loadHome(ctx),
		CurrentCategory: req.Category,
		Filter:          req.Filter.Normalize(),
	}

	out.Categories = l.fetch.ProductCategories(ctx, domain.ListParams{PerPage: CategoriesPerPage}).Items

	params := domain.ListParams{PerPage: ListPerPage, Page: max(req.Page, 1)}
	if req.Category != "" {
		for _, c := range out.Categories {
			if c.Slug == req.Category {
				params.CategoryID = c.ID
				break
			}
		}
	}

	page := l.fetch.Products(ctx, params)
	out.Meta = page.Meta
	out.Fetched = len(page.Items)
	out.Items = ComputeState(page.Items, out.Filter)
	out.Degraded = degraded.Load()
	return out
}

func (l *PageLoader) LoadPostsPage(ctx context.Context, req ListRequest) *PostsPage {
	ctx, degraded := trackDegraded(ctx)
	out := &PostsPage{
		Home:            l.loadHome(ctx),
		CurrentCategory: req.Category,
		Filter:          req.Filter.Normalize(),
	}

	out.Categories = l.fetch.Categories(ctx, domain.ListParams{PerPage: CategoriesPerPage}).Items

	params := domain.ListParams{PerPage: ListPerPage, Page: max(req.Page, 1)}
	if req.Category != "" {
		for _, c := range out.Categories {
			if c.Slug == req.Category {
				params.CategoryID = c.ID
				break
			}
		}
	}

	page := l.fetch.Posts(ctx, params)
	out.Meta = page.Meta
	out.Fetched = len(page.Items)
	out.Items = Compute(page.Items, out.Filter.Query, out.Filter.Sort)
	out.Degraded = degraded.Load()
	return out
}

// LoadProductDetail returns domain.ErrNotFound when the product does not exist.
func (l *PageLoader) LoadProductDetail(ctx context.Context, productSlug string) (*ProductDetail, error) {
	if !slug.IsSlug(productSlug) {
		return nil, fmt.Errorf("invalid product slug %q: %w", productSlug, domain.ErrNotFound)
	}

	ctx, degraded := trackDegraded(ctx)
	out := &ProductDetail{}
	var featured []domain.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Home = l.loadHome(gctx)
		return nil
	})
	g.Go(func() error {
		out.Product = l.fetch.Product(gctx, productSlug)
		return nil
	})
	g.Go(func() error {
		featured = l.fetch.FeaturedProducts(gctx, featuredForDetail)
		return nil
	})
	_ = g.Wait()

	if out.Product == nil {
		return nil, fmt.Errorf("product %q: %w", productSlug, domain.ErrNotFound)
	}

	out.Related = make([]domain.Product, 0, maxRelated)
	for _, p := range featured {
		if p.ID == out.Product.ID {
			continue
		}
		out.Related = append(out.Related, p)
		if len(out.Related) == maxRelated {
			break
		}
	}

	out.Degraded = degraded.Load()
	return out, nil
}

// LoadPostDetail returns domain.ErrNotFound when the post does not exist.
func (l *PageLoader) LoadPostDetail(ctx context.Context, postSlug string) (*PostDetail, error) {
	if !slug.IsSlug(postSlug) {
		return nil, fmt.Errorf("invalid post slug %q: %w", postSlug, domain.ErrNotFound)
	}

	ctx, degraded := trackDegraded(ctx)
	out := &PostDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Home = l.loadHome(gctx)
		return nil
	})
	g.Go(func() error {
		out.Post = l.fetch.Post(gctx, postSlug)
		return nil
	})
	_ = g.Wait()

	if out.Post == nil {
		return nil, fmt.Errorf("post %q: %w", postSlug, domain.ErrNotFound)
	}

	out.Degraded = degraded.Load()
	return out, nil
}

// Search matches the query against a small window of the newest products and
// posts. A blank query returns nothing without calling the CMS.
func (l *PageLoader) Search(ctx context.Context, query string) *SearchResult {
	out := &SearchResult{
		Query:    strings.TrimSpace(query),
		Products: []domain.Product{},
		Posts:    []domain.Post{},
	}
	if out.Query == "" {
		return out
	}

	ctx, degraded := trackDegraded(ctx)
	var products *domain.Page[domain.Product]
	var posts *domain.Page[domain.Post]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products = l.fetch.Products(gctx, domain.ListParams{PerPage: searchLimit})
		return nil
	})
	g.Go(func() error {
		posts = l.fetch.Posts(gctx, domain.ListParams{PerPage: searchLimit})
		return nil
	})
	_ = g.Wait()

	needle := strings.ToLower(out.Query)
	for _, p := range products.Items {
		if containsFold(p.Name, needle) || (p.Description != nil && containsFold(*p.Description, needle)) {
			out.Products = append(out.Products, p)
		}
		if len(out.Products) == searchLimit {
			break
		}
	}
	for _, p := range posts.Items {
		if containsFold(p.Title, needle) || containsFold(p.Content, needle) {
			out.Posts = append(out.Posts, p)
		}
		if len(out.Posts) == searchLimit {
			break
		}
	}

	out.Degraded = degraded.Load()
	return out
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
