package persistence

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/dfryer1193/esatsite/shared/db/sqlite"
)

type pageCacheFactory func(t *testing.T, now func() time.Time, maxPages int) domain.PageCache

func pageCacheFactories() map[string]pageCacheFactory {
	return map[string]pageCacheFactory{
		"memory": func(t *testing.T, now func() time.Time, maxPages int) domain.PageCache {
			c := NewMemoryPageCache(maxPages)
			c.now = now
			return c
		},
		"sqlite": func(t *testing.T, now func() time.Time, maxPages int) domain.PageCache {
			database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{
				Path: filepath.Join(t.TempDir(), "cache.db"),
			})
			if err := database.Connect(context.Background()); err != nil {
				t.Fatalf("failed to connect test database: %v", err)
			}
			t.Cleanup(func() { database.Close() })

			c := NewSQLitePageCache(database.DB(), maxPages)
			c.now = now
			return c
		},
	}
}

func seedPages(t *testing.T, cache domain.PageCache, expires time.Time) {
	t.Helper()

	pages := []*domain.CachedPage{
		{Key: "/", Path: "/", Tags: []string{"home"}},
		{Key: "/san-pham", Path: "/san-pham", Tags: []string{"products"}},
		{Key: "/san-pham?page=2", Path: "/san-pham", Tags: []string{"products"}},
		{Key: "/san-pham/ban-xoay", Path: "/san-pham/ban-xoay", Tags: []string{"products", "product:ban-xoay"}},
		{Key: "/san-pham-moi", Path: "/san-pham-moi"},
		{Key: "/bai-viet/tin-tuc", Path: "/bai-viet/tin-tuc", Tags: []string{"posts"}},
	}

	for _, p := range pages {
		p.Status = 200
		p.ContentType = "text/html; charset=utf-8"
		p.Body = []byte("<p>" + p.Key + "</p>")
		p.ExpiresAt = expires
		if err := cache.Put(context.Background(), p); err != nil {
			t.Fatalf("Put(%q) error = %v", p.Key, err)
		}
	}
}

func TestPageCache_GetPut(t *testing.T) {
	for name, factory := range pageCacheFactories() {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			cache := factory(t, func() time.Time { return now }, 0)
			ctx := context.Background()

			got, err := cache.Get(ctx, "/missing")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != nil {
				t.Errorf("Get(missing) = %+v, want nil", got)
			}

			page := &domain.CachedPage{
				Key:         "/san-pham/ban-xoay",
				Path:        "/san-pham/ban-xoay",
				Tags:        []string{"products", "product:ban-xoay"},
				Status:      200,
				ContentType: "text/html; charset=utf-8",
				Body:        []byte("<h1>Bàn xoay</h1>"),
				ExpiresAt:   now.Add(time.Minute),
			}
			if err := cache.Put(ctx, page); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err = cache.Get(ctx, page.Key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got == nil {
				t.Fatal("Get() = nil, want page")
			}
			if string(got.Body) != string(page.Body) {
				t.Errorf("Body = %q, want %q", got.Body, page.Body)
			}
			if got.Status != 200 || got.ContentType != page.ContentType {
				t.Errorf("Status, ContentType = %d, %q", got.Status, got.ContentType)
			}
			if len(got.Tags) != 2 {
				t.Errorf("Tags = %v, want 2 tags", got.Tags)
			}
			if got.CreatedAt.IsZero() {
				t.Error("CreatedAt should default to now")
			}

			if err := cache.Put(ctx, &domain.CachedPage{}); err == nil {
				t.Error("Put() without key should fail")
			}
		})
	}
}

func TestPageCache_Expiry(t *testing.T) {
	for name, factory := range pageCacheFactories() {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			cache := factory(t, func() time.Time { return now }, 0)
			ctx := context.Background()

			err := cache.Put(ctx, &domain.CachedPage{
				Key:       "/lien-he-mua-hang",
				Path:      "/lien-he-mua-hang",
				Status:    200,
				Body:      []byte("ok"),
				ExpiresAt: now.Add(time.Minute),
			})
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			now = now.Add(59 * time.Second)
			if got, _ := cache.Get(ctx, "/lien-he-mua-hang"); got == nil {
				t.Error("Get() before expiry = nil, want page")
			}

			now = now.Add(time.Second)
			got, err := cache.Get(ctx, "/lien-he-mua-hang")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != nil {
				t.Error("Get() at expiry should miss")
			}
		})
	}
}

func TestPageCache_InvalidatePath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		scope       domain.CacheScope
		wantRemoved int
		wantKept    []string
	}{
		{
			name:        "home page scope",
			path:        "/",
			scope:       domain.ScopePage,
			wantRemoved: 1,
			wantKept:    []string{"/san-pham", "/bai-viet/tin-tuc"},
		},
		{
			name:        "products layout",
			path:        "/san-pham",
			scope:       domain.ScopeLayout,
			wantRemoved: 3,
			wantKept:    []string{"/", "/san-pham-moi", "/bai-viet/tin-tuc"},
		},
		{
			name:        "products page scope keeps details",
			path:        "/san-pham",
			scope:       domain.ScopePage,
			wantRemoved: 2,
			wantKept:    []string{"/san-pham/ban-xoay"},
		},
		{
			name:        "root layout drops everything",
			path:        "/",
			scope:       domain.ScopeLayout,
			wantRemoved: 6,
		},
	}

	for name, factory := range pageCacheFactories() {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
				cache := factory(t, func() time.Time { return now }, 0)
				seedPages(t, cache, now.Add(time.Hour))

				removed, err := cache.InvalidatePath(context.Background(), tt.path, tt.scope)
				if err != nil {
					t.Fatalf("InvalidatePath() error = %v", err)
				}
				if removed != tt.wantRemoved {
					t.Errorf("InvalidatePath(%q, %s) removed %d, want %d", tt.path, tt.scope, removed, tt.wantRemoved)
				}
				for _, key := range tt.wantKept {
					if got, _ := cache.Get(context.Background(), key); got == nil {
						t.Errorf("page %q was removed, want kept", key)
					}
				}
			})
		}
	}
}

func TestPageCache_InvalidateTagAndPurge(t *testing.T) {
	for name, factory := range pageCacheFactories() {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			cache := factory(t, func() time.Time { return now }, 0)
			ctx := context.Background()
			seedPages(t, cache, now.Add(time.Hour))

			removed, err := cache.InvalidateTag(ctx, "products")
			if err != nil {
				t.Fatalf("InvalidateTag() error = %v", err)
			}
			if removed != 3 {
				t.Errorf("InvalidateTag(products) removed %d, want 3", removed)
			}
			if got, _ := cache.Get(ctx, "/bai-viet/tin-tuc"); got == nil {
				t.Error("untagged page was removed")
			}

			if err := cache.Purge(ctx); err != nil {
				t.Fatalf("Purge() error = %v", err)
			}
			if got, _ := cache.Get(ctx, "/"); got != nil {
				t.Error("Get() after Purge() should miss")
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/san-pham/", want: "/san-pham/"},
		{in: "/a_b/", want: `/a\_b/`},
		{in: "/50%/", want: `/50\%/`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func countPages(t *testing.T, cache domain.PageCache) int {
	t.Helper()

	switch c := cache.(type) {
	case *MemoryPageCache:
		return c.Len()
	case *SQLitePageCache:
		n, err := c.Len(context.Background())
		if err != nil {
			t.Fatalf("Len() error = %v", err)
		}
		return n
	}
	t.Fatalf("unexpected cache type %T", cache)
	return 0
}

func TestPageCache_Bounded(t *testing.T) {
	for name, factory := range pageCacheFactories() {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			cache := factory(t, func() time.Time { return now }, 3)
			ctx := context.Background()

			for i := range 10 {
				now = now.Add(time.Second)
				key := fmt.Sprintf("/tim-kiem?q=%d", i)
				err := cache.Put(ctx, &domain.CachedPage{Key: key, Path: "/tim-kiem", Status: 200, Body: []byte("ok")})
				if err != nil {
					t.Fatalf("Put(%q) error = %v", key, err)
				}
			}

			if got := countPages(t, cache); got != 3 {
				t.Errorf("stored pages = %d, want 3", got)
			}
			if got, _ := cache.Get(ctx, "/tim-kiem?q=9"); got == nil {
				t.Error("newest page should be kept")
			}
			if got, _ := cache.Get(ctx, "/tim-kiem?q=0"); got != nil {
				t.Error("oldest page should be evicted")
			}
		})
	}
}

func TestSQLitePageCache_PutSweepsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := pageCacheFactories()["sqlite"](t, func() time.Time { return now }, 0)
	ctx := context.Background()

	for i := range 5 {
		key := fmt.Sprintf("/san-pham?page=%d", i+1)
		err := cache.Put(ctx, &domain.CachedPage{Key: key, Path: "/san-pham", Status: 200, Body: []byte("ok"), ExpiresAt: now.Add(time.Minute)})
		if err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	now = now.Add(2 * time.Minute)
	if err := cache.Put(ctx, &domain.CachedPage{Key: "/", Path: "/", Status: 200, Body: []byte("ok")}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if got := countPages(t, cache); got != 1 {
		t.Errorf("stored pages after sweep = %d, want 1", got)
	}
}
