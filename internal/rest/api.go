package rest

import (
	"time"

	"github.com/dfryer1193/esatsite/content/application"
	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/dfryer1193/esatsite/internal/middleware"
	"github.com/dfryer1193/esatsite/internal/render"
	"github.com/gin-gonic/gin"
)

// Page cache tags. Every cached page also carries application.HomeDataTag
// because the layout renders home data.
const (
	TagHome     = "home"
	TagProducts = "products"
	TagPosts    = "posts"
	TagContact  = "contact"
)

type Options struct {
	PageCache    domain.PageCache
	PageCacheTTL time.Duration
	AdminSecret  []byte
}

// NewApi registers every site route on router.
func NewApi(router *gin.Engine, site *Site, opts Options) {
	cached := func(tags ...string) gin.HandlerFunc {
		if opts.PageCache == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.PageCacheMiddleware(opts.PageCache, opts.PageCacheTTL, append(tags, application.HomeDataTag)...)
	}

	router.GET("/", cached(TagHome), site.Home)
	router.GET("/lien-he-mua-hang", cached(TagContact), site.Contact)
	router.GET("/tim-kiem", site.Search)

	products := router.Group("/san-pham", cached(TagProducts))
	{
		products.GET("", site.Products)
		products.GET("/:slug", site.Product)
	}

	posts := router.Group("/bai-viet", cached(TagPosts))
	{
		posts.GET("", site.Posts)
		posts.GET("/:slug", site.Post)
	}

	apiV1 := router.Group("/api")
	{
		apiV1.GET("/home-data", site.HomeData)
		apiV1.GET("/search", site.SearchJSON)
	}

	admin := router.Group("/admin", middleware.AdminAuth(opts.AdminSecret))
	{
		admin.GET("", site.Admin)
		admin.GET("/*view", site.Admin)
	}

	router.StaticFS("/static", render.StaticFS())
	router.GET("/healthz", Healthz)
	router.NoRoute(site.NotFound)
}
