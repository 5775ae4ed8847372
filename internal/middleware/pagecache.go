package middleware

import (
	"bytes"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	CacheHeader = "X-Cache"
	cacheHit    = "HIT"
	cacheMiss   = "MISS"
)

// cacheableParams are the query parameters the cached pages read.
var cacheableParams = map[string]bool{
	"category": true,
	"page":     true,
	"q":        true,
	"sort":     true,
	"price":    true,
}

// CacheKey is the request path plus its query in canonical (sorted) form.
// ok is false when the query carries a parameter no page reads; such
// requests are served but never stored.
func CacheKey(u *url.URL) (key string, ok bool) {
	query := u.Query()
	if len(query) == 0 {
		return u.Path, true
	}
	for name, values := range query {
		if !cacheableParams[name] {
			return "", false
		}
		slices.Sort(values)
	}
	return u.Path + "?" + query.Encode(), true
}

// NoStore marks the response as not cacheable. Handlers call it when they
// rendered a fallback for failed upstream reads.
func NoStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}

func noStore(h http.Header) bool {
	return strings.Contains(h.Get("Cache-Control"), "no-store")
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// PageCacheMiddleware serves GET responses from cache and stores fresh 200
// responses for ttl unless the handler called NoStore. A ttl of zero keeps entries until they are invalidated.
// Cache failures are logged and the request falls through to the handler.
func PageCacheMiddleware(cache domain.PageCache, ttl time.Duration, tags ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key, ok := CacheKey(c.Request.URL)
		if !ok {
			c.Next()
			return
		}

		page, err := cache.Get(ctx, key)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to read page cache")
		}
		if page != nil {
			c.Header(CacheHeader, cacheHit)
			c.Data(page.Status, page.ContentType, page.Body)
			c.Abort()
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header(CacheHeader, cacheMiss)

		c.Next()

		if w.Status() != http.StatusOK || w.body.Len() == 0 || noStore(w.Header()) {
			return
		}

		now := time.Now()
		entry := &domain.CachedPage{
			Key:         key,
			Path:        c.Request.URL.Path,
			Tags:        tags,
			Status:      http.StatusOK,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
			CreatedAt:   now,
		}
		if ttl > 0 {
			entry.ExpiresAt = now.Add(ttl)
		}

		if err := cache.Put(ctx, entry); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to store page")
		}
	}
}
