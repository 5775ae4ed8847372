package application

import (
	"context"
	"fmt"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/rs/zerolog/log"
)

// RevalidationType is a symbolic group of pages to invalidate.
type RevalidationType string

const (
	RevalidateHome    RevalidationType = "home"
	RevalidateProduct RevalidationType = "product"
	RevalidatePost    RevalidationType = "post"
	RevalidateAll     RevalidationType = "all"
)

// HomeDataTag invalidates the shared home data aggregate.
const HomeDataTag = "home-data"

// RevalidationRequest names what to invalidate. Any combination of fields
// may be set; empty fields are ignored.
type RevalidationRequest struct {
	Path string
	Tag  string
	Type RevalidationType
}

type pathTarget struct {
	path  string
	scope domain.CacheScope
}

var typeTargets = map[RevalidationType]pathTarget{
	RevalidateHome:    {path: "/", scope: domain.ScopePage},
	RevalidateProduct: {path: "/san-pham", scope: domain.ScopeLayout},
	RevalidatePost:    {path: "/bai-viet", scope: domain.ScopeLayout},
}

// RevalidationService maps revalidation requests onto the page cache and the
// home data cache.
type RevalidationService struct {
	pages    domain.PageCache
	homeData *HomeDataCache
}

func NewRevalidationService(pages domain.PageCache, homeData *HomeDataCache) *RevalidationService {
	return &RevalidationService{
		pages:    pages,
		homeData: homeData,
	}
}

func (s *RevalidationService) Revalidate(ctx context.Context, req RevalidationRequest) error {
	logger := log.Ctx(ctx)

	if req.Path != "" {
		n, err := s.pages.InvalidatePath(ctx, req.Path, domain.ScopePage)
		if err != nil {
			return fmt.Errorf("failed to revalidate path %s: %w", req.Path, err)
		}
		logger.Info().Str("path", req.Path).Int("removed", n).Msg("Path revalidated")
	}

	if req.Tag != "" {
		n, err := s.pages.InvalidateTag(ctx, req.Tag)
		if err != nil {
			return fmt.Errorf("failed to revalidate tag %s: %w", req.Tag, err)
		}
		if req.Tag == HomeDataTag {
			s.invalidateHomeData()
		}
		logger.Info().Str("tag", req.Tag).Int("removed", n).Msg("Tag revalidated")
	}

	for _, t := range []RevalidationType{RevalidateHome, RevalidateProduct, RevalidatePost} {
		if req.Type != t && req.Type != RevalidateAll {
			continue
		}

		target := typeTargets[t]
		n, err := s.pages.InvalidatePath(ctx, target.path, target.scope)
		if err != nil {
			return fmt.Errorf("failed to revalidate %s pages: %w", t, err)
		}
		if t == RevalidateHome {
			s.invalidateHomeData()
		}
		logger.Info().
			Str("type", string(t)).
			Str("path", target.path).
			Str("scope", string(target.scope)).
			Int("removed", n).
			Msg("Pages revalidated")
	}

	return nil
}

func (s *RevalidationService) invalidateHomeData() {
	if s.homeData != nil {
		s.homeData.Invalidate()
	}
}
