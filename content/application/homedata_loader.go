package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// HomeDataLoader assembles the home data aggregate from its three sources.
type HomeDataLoader struct {
	source domain.ContentSource
	fetch  *Fetcher
}

func NewHomeDataLoader(source domain.ContentSource) *HomeDataLoader {
	return &HomeDataLoader{
		source: source,
		fetch:  NewFetcher(source),
	}
}

// Display modes of the featured products and news sections. A section in
// one of these modes with no hand-picked entries is filled from the CMS.
const (
	DisplayModeFeatured = "featured"
	DisplayModeLatest   = "latest"

	defaultSectionLimit = 4
)

// Load fetches settings, menus and home components concurrently. A part that
// fails is left empty; an error is returned only when every part failed.
func (l *HomeDataLoader) Load(ctx context.Context) (*domain.HomePageData, error) {
	data := &domain.HomePageData{Menus: []domain.MenuItem{}}
	var raw []domain.HomeComponent
	var settingsErr, menusErr, componentsErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data.Settings, settingsErr = l.source.Settings(gctx)
		return nil
	})
	g.Go(func() error {
		menus, err := l.source.Menus(gctx)
		if err == nil && menus != nil {
			data.Menus = menus
		}
		menusErr = err
		return nil
	})
	g.Go(func() error {
		raw, componentsErr = l.source.HomeComponents(gctx)
		return nil
	})
	_ = g.Wait()

	if settingsErr != nil && menusErr != nil && componentsErr != nil {
		return nil, fmt.Errorf("failed to load home data: %w", errors.Join(settingsErr, menusErr, componentsErr))
	}

	logger := log.Ctx(ctx)
	if settingsErr != nil || menusErr != nil || componentsErr != nil {
		markDegraded(ctx)
	}
	if settingsErr != nil {
		logger.Error().Err(settingsErr).Msg("Failed to fetch settings")
		data.Settings = nil
	}
	if menusErr != nil {
		logger.Error().Err(menusErr).Msg("Failed to fetch menus")
	}
	if componentsErr != nil {
		logger.Error().Err(componentsErr).Msg("Failed to fetch home components")
		return data, nil
	}

	components, err := domain.DecodeHomeComponents(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("Some home components could not be decoded")
	}
	data.Components = components
	l.fillSections(ctx, &data.Components)

	return data, nil
}

func sectionLimit(n int) int {
	if n <= 0 {
		return defaultSectionLimit
	}
	return n
}

func (l *HomeDataLoader) fillSections(ctx context.Context, c *domain.HomeComponents) {
	if cfg, ok := c.FeaturedProducts.Get(); ok && cfg.DisplayMode == DisplayModeFeatured && len(cfg.Products) == 0 {
		for _, p := range l.fetch.FeaturedProducts(ctx, sectionLimit(cfg.Limit)) {
			cfg.Products = append(cfg.Products, domain.ProductItem{
				Image: deref(p.Thumbnail),
				Name:  p.Name,
				Price: p.Price,
				Link:  "/san-pham/" + p.Slug,
			})
		}
		c.FeaturedProducts = domain.NewBlock(cfg)
	}

	if cfg, ok := c.News.Get(); ok && cfg.DisplayMode == DisplayModeLatest && len(cfg.Posts) == 0 {
		for _, p := range l.fetch.LatestPosts(ctx, sectionLimit(cfg.Limit)) {
			cfg.Posts = append(cfg.Posts, domain.NewsPost{
				Image:   deref(p.Thumbnail),
				Title:   p.Title,
				Link:    "/bai-viet/" + p.Slug,
				Excerpt: Excerpt(p.Content),
				Date:    p.CreatedAt,
			})
		}
		c.News = domain.NewBlock(cfg)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
