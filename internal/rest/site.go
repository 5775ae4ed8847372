package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dfryer1193/esatsite/api"
	"github.com/dfryer1193/esatsite/content/application"
	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/dfryer1193/esatsite/internal/admin"
	"github.com/dfryer1193/esatsite/internal/middleware"
	"github.com/dfryer1193/esatsite/internal/render"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	productsPath = "/san-pham"
	postsPath    = "/bai-viet"

	homeDescription = "ESAT - Đối tác công nghệ chiến lược và toàn diện. Phân phối thiết bị, cung cấp giải pháp công nghệ giúp doanh nghiệp tối ưu vận hành."
)

// Site serves the storefront pages.
type Site struct {
	loader   *application.PageLoader
	homeData *application.HomeDataCache
	renderer *render.Renderer
	now      func() time.Time
}

func NewSite(loader *application.PageLoader, homeData *application.HomeDataCache, renderer *render.Renderer) *Site {
	return &Site{
		loader:   loader,
		homeData: homeData,
		renderer: renderer,
		now:      time.Now,
	}
}

// provide attaches a home data provider to the request and returns the
// layout data built from it. A nil seed falls back to the shared cache.
// A degraded page, or one rendered without home data, is marked no-store so
// the next visit retries upstream.
func (s *Site) provide(c *gin.Context, seed *domain.HomePageData, degraded bool) *render.Page {
	ctx := c.Request.Context()

	p := application.NewHomeDataProvider(ctx, seed, s.homeData)
	if err := p.Wait(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Gave up waiting for home data")
	}
	c.Request = c.Request.WithContext(application.WithHomeData(ctx, p))

	if degraded || !p.Available() {
		middleware.NoStore(c)
	}

	return render.NewPage(c.Request.URL.Path, application.HomeDataFrom(c.Request.Context()).Read())
}

func (s *Site) Home(c *gin.Context) {
	page := s.provide(c, nil, false)
	page.Description = homeDescription
	if st := page.Home.Settings; st != nil && st.SEODescription != nil && *st.SEODescription != "" {
		page.Description = *st.SEODescription
	}

	s.renderer.HTML(c, http.StatusOK, render.PageHome, page)
}

func (s *Site) Contact(c *gin.Context) {
	home := s.loader.LoadContactPage(c.Request.Context())
	page := s.provide(c, home, home == nil)
	page.Title = "Liên hệ mua hàng"

	s.renderer.HTML(c, http.StatusOK, render.PageContact, page)
}

func listRequest(c *gin.Context) application.ListRequest {
	return application.ListRequest{
		Category: c.Query("category"),
		Page:     application.ParsePage(c.Query("page")),
		Filter:   application.ParseFilterState(c.Request.URL.Query()),
	}
}

func (s *Site) Products(c *gin.Context) {
	req := listRequest(c)
	data := s.loader.LoadProductsPage(c.Request.Context(), req)

	nav := application.NewListNavigator(productsPath, c.Request.URL.Query(), data.Meta)
	categories := render.CategoryLinks(nav, data.CurrentCategory, data.Categories,
		func(pc domain.ProductCategory) string { return pc.Name },
		func(pc domain.ProductCategory) string { return pc.Slug })

	page := s.provide(c, data.Home, data.Degraded)
	page.Title = "Sản phẩm"
	page.Content = &render.ListView[domain.Product]{
		BasePath:   productsPath,
		Category:   data.CurrentCategory,
		Query:      data.Filter.Query,
		Categories: categories,
		Sorts:      render.SortOptions(data.Filter.Sort),
		Prices:     render.PriceOptions(data.Filter.Price),
		Items:      data.Items,
		Fetched:    data.Fetched,
		Pager:      render.NewPager(nav),
	}

	s.renderer.HTML(c, http.StatusOK, render.PageProducts, page)
}

func (s *Site) Posts(c *gin.Context) {
	req := listRequest(c)
	data := s.loader.LoadPostsPage(c.Request.Context(), req)

	nav := application.NewListNavigator(postsPath, c.Request.URL.Query(), data.Meta)
	categories := render.CategoryLinks(nav, data.CurrentCategory, data.Categories,
		func(pc domain.Category) string { return pc.Name },
		func(pc domain.Category) string { return pc.Slug })

	page := s.provide(c, data.Home, data.Degraded)
	page.Title = "Bài viết"
	page.Content = &render.ListView[domain.Post]{
		BasePath:   postsPath,
		Category:   data.CurrentCategory,
		Query:      data.Filter.Query,
		Categories: categories,
		Sorts:      render.SortOptions(data.Filter.Sort),
		Items:      data.Items,
		Fetched:    data.Fetched,
		Pager:      render.NewPager(nav),
	}

	s.renderer.HTML(c, http.StatusOK, render.PagePosts, page)
}

func (s *Site) Product(c *gin.Context) {
	data, err := s.loader.LoadProductDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.notFoundOr500(c, err)
		return
	}

	page := s.provide(c, data.Home, data.Degraded)
	page.Title = data.Product.Name
	page.Description = application.MetaDescription(data.Product.Description, data.Product.Content)
	page.Content = data

	s.renderer.HTML(c, http.StatusOK, render.PageProduct, page)
}

func (s *Site) Post(c *gin.Context) {
	data, err := s.loader.LoadPostDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.notFoundOr500(c, err)
		return
	}

	page := s.provide(c, data.Home, data.Degraded)
	page.Title = data.Post.Title
	page.Description = application.MetaDescription(nil, data.Post.Content)
	page.Content = data

	s.renderer.HTML(c, http.StatusOK, render.PagePost, page)
}

func (s *Site) Search(c *gin.Context) {
	result := s.loader.Search(c.Request.Context(), c.Query("q"))

	page := s.provide(c, nil, result.Degraded)
	page.Title = "Tìm kiếm"
	page.Content = result

	s.renderer.HTML(c, http.StatusOK, render.PageSearch, page)
}

func (s *Site) SearchJSON(c *gin.Context) {
	result := s.loader.Search(c.Request.Context(), c.Query("q"))
	if result.Degraded {
		middleware.NoStore(c)
	}
	c.JSON(http.StatusOK, result)
}

// HomeData serves the client refetch path: an unseeded provider read once
// its initial fetch, if any, has resolved.
func (s *Site) HomeData(c *gin.Context) {
	ctx := c.Request.Context()

	p := application.NewHomeDataProvider(ctx, nil, s.homeData)
	if err := p.Wait(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Gave up waiting for home data")
	}

	c.JSON(http.StatusOK, p.Read())
}

func (s *Site) notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		log.Ctx(c.Request.Context()).Debug().Err(err).Msg("Page not found")
		s.NotFound(c)
		return
	}

	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "Internal server error")
}

// NotFound renders the 404 page with home data from the shared cache. API
// paths get a JSON body instead.
func (s *Site) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Success: false, Message: "Not found"})
		return
	}

	page := s.provide(c, nil, false)
	page.Title = "Không tìm thấy trang"

	s.renderer.HTML(c, http.StatusNotFound, render.PageNotFound, page)
}

// Admin renders the admin shell for an authenticated user.
func (s *Site) Admin(c *gin.Context) {
	user := ""
	if claims, ok := middleware.AdminClaims(c); ok {
		user, _ = claims.GetSubject()
	}

	themeCookie, _ := c.Cookie(admin.ThemeCookie)
	theme := admin.Theme(themeCookie, c.GetHeader(admin.ThemeHintHeader))

	view := admin.NewPage(c.Request.URL.Path, theme, user, s.now())

	page := render.NewPage(c.Request.URL.Path, application.HomeDataView{})
	page.Title = view.Title
	page.Content = view

	c.Header("Accept-CH", admin.ThemeHintHeader)
	s.renderer.HTML(c, http.StatusOK, render.PageAdmin, page)
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
