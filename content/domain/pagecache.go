package domain

import (
	"context"
	"strings"
	"time"
)

// CacheScope selects how a path invalidation matches cached pages.
type CacheScope string

const (
	// ScopePage matches the exact path only.
	ScopePage CacheScope = "page"
	// ScopeLayout matches the path and every path beneath it.
	ScopeLayout CacheScope = "layout"
)

// CachedPage is a rendered response kept until it expires or is invalidated.
// Key is the path plus the canonical query string.
type CachedPage struct {
	Key         string
	Path        string
	Tags        []string
	Status      int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (p *CachedPage) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

type PageCache interface {
	// Get returns the cached page for key, or nil if there is none or it expired.
	Get(ctx context.Context, key string) (*CachedPage, error)

	Put(ctx context.Context, page *CachedPage) error

	// InvalidatePath drops pages matching path under scope and returns how many were removed.
	InvalidatePath(ctx context.Context, path string, scope CacheScope) (int, error)

	// InvalidateTag drops every page carrying tag and returns how many were removed.
	InvalidateTag(ctx context.Context, tag string) (int, error)

	Purge(ctx context.Context) error
}

// Matches reports whether a page cached under pagePath is covered by an
// invalidation of target with this scope.
func (s CacheScope) Matches(target, pagePath string) bool {
	if pagePath == target {
		return true
	}
	if s != ScopeLayout {
		return false
	}
	return strings.HasPrefix(pagePath, LayoutPrefix(target))
}

// LayoutPrefix is the prefix shared by every path beneath target.
func LayoutPrefix(target string) string {
	return strings.TrimSuffix(target, "/") + "/"
}
