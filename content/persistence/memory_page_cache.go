package persistence

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dfryer1193/esatsite/content/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxPages bounds a page cache built with a non-positive size.
const DefaultMaxPages = 1000

var _ domain.PageCache = (*MemoryPageCache)(nil)

// MemoryPageCache keeps rendered pages in process memory. Once full, the
// least recently used page is evicted.
type MemoryPageCache struct {
	mu    sync.Mutex
	pages *lru.Cache[string, *domain.CachedPage]
	now   func() time.Time
}

func NewMemoryPageCache(maxPages int) *MemoryPageCache {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	// lru.New only fails on a non-positive size.
	pages, _ := lru.New[string, *domain.CachedPage](maxPages)
	return &MemoryPageCache{
		pages: pages,
		now:   time.Now,
	}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) (*domain.CachedPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.pages.Get(key)
	if !ok {
		return nil, nil
	}

	if page.Expired(c.now()) {
		c.pages.Remove(key)
		return nil, nil
	}

	return clonePage(page), nil
}

func (c *MemoryPageCache) Put(_ context.Context, page *domain.CachedPage) error {
	if page == nil || page.Key == "" {
		return errInvalidPage
	}

	stored := clonePage(page)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = c.now()
	}

	c.mu.Lock()
	c.pages.Add(page.Key, stored)
	c.mu.Unlock()
	return nil
}

func (c *MemoryPageCache) InvalidatePath(_ context.Context, path string, scope domain.CacheScope) (int, error) {
	return c.deleteWhere(func(p *domain.CachedPage) bool {
		return scope.Matches(path, p.Path)
	}), nil
}

func (c *MemoryPageCache) InvalidateTag(_ context.Context, tag string) (int, error) {
	return c.deleteWhere(func(p *domain.CachedPage) bool {
		return slices.Contains(p.Tags, tag)
	}), nil
}

func (c *MemoryPageCache) Purge(_ context.Context) error {
	c.mu.Lock()
	c.pages.Purge()
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored pages, expired ones included.
func (c *MemoryPageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages.Len()
}

func (c *MemoryPageCache) deleteWhere(match func(*domain.CachedPage) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.pages.Keys() {
		page, ok := c.pages.Peek(key)
		if ok && match(page) {
			c.pages.Remove(key)
			removed++
		}
	}
	return removed
}

func clonePage(p *domain.CachedPage) *domain.CachedPage {
	out := *p
	out.Tags = slices.Clone(p.Tags)
	out.Body = slices.Clone(p.Body)
	return &out
}
