package application

import (
	"context"
	"errors"
	"testing"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/goccy/go-json"
)

func newTestLoader(src *fakeSource) *PageLoader {
	return NewPageLoader(NewFetcher(src), NewHomeDataLoader(src).Load)
}

func catalogSource() *fakeSource {
	src := newFakeSource()
	src.settings = &domain.SettingsConfig{SiteName: strPtr("ESAT")}
	src.productCategories = []domain.ProductCategory{
		{ID: 7, Name: "Máy chủ", Slug: "may-chu"},
		{ID: 9, Name: "Camera", Slug: "camera"},
	}
	src.categories = []domain.Category{{ID: 3, Name: "Tin tức", Slug: "tin-tuc"}}
	src.products = []domain.Product{
		{ID: 1, Name: "Máy chủ Dell", Slug: "may-chu-dell", Price: "25000000", CreatedAt: "2024-01-01", Description: strPtr("Máy chủ rack 2U")},
		{ID: 2, Name: "Bàn xoay", Slug: "ban-xoay", Price: "10000000", CreatedAt: "2024-06-01"},
		{ID: 3, Name: "Camera IP", Slug: "camera-ip", Price: "Liên hệ", CreatedAt: "2024-03-01", Description: strPtr("Quan sát ngày đêm")},
	}
	src.featured = []domain.Product{src.products[0], src.products[1], src.products[2], {ID: 4, Slug: "a"}, {ID: 5, Slug: "b"}}
	src.posts = []domain.Post{
		{ID: 10, Title: "Khai trương", Slug: "khai-truong", Content: "<p>ESAT khai trương chi nhánh</p>", CreatedAt: "2024-01-01"},
		{ID: 11, Title: "Triển lãm", Slug: "trien-lam", Content: "<p>Gian hàng camera</p>", CreatedAt: "2024-05-01"},
	}
	src.meta = &domain.PaginationMeta{CurrentPage: 2, LastPage: 3, PerPage: 12, Total: 30}
	return src
}

func TestLoadProductsPage(t *testing.T) {
	src := catalogSource()
	loader := newTestLoader(src)

	page := loader.LoadProductsPage(context.Background(), ListRequest{
		Category: "camera",
		Page:     2,
		Filter:   domain.ListFilterState{Sort: domain.SortNameAsc, Price: "nonsense"},
	})

	want := domain.ListParams{PerPage: ListPerPage, Page: 2, CategoryID: 9}
	if src.lastProductParams != want {
		t.Errorf("product params = %+v, want %+v", src.lastProductParams, want)
	}
	if page.Filter.Price != domain.BucketAll {
		t.Errorf("Filter.Price = %q, want all", page.Filter.Price)
	}
	if page.Fetched != 3 || len(page.Items) != 3 {
		t.Errorf("Fetched, len(Items) = %d, %d", page.Fetched, len(page.Items))
	}
	if page.Items[0].Name != "Bàn xoay" {
		t.Errorf("first item = %q, want Bàn xoay", page.Items[0].Name)
	}
	if len(page.Categories) != 2 || page.Home == nil || *page.Home.Settings.SiteName != "ESAT" {
		t.Errorf("page = %+v", page)
	}
	if page.Meta.CurrentPage != 2 {
		t.Errorf("Meta.CurrentPage = %d", page.Meta.CurrentPage)
	}
}

func TestLoadProductsPage_UnknownCategoryAndFailures(t *testing.T) {
	src := catalogSource()
	loader := newTestLoader(src)

	loader.LoadProductsPage(context.Background(), ListRequest{Category: "khong-ton-tai"})
	if src.lastProductParams.CategoryID != 0 || src.lastProductParams.Page != 1 {
		t.Errorf("params = %+v, want no category on page 1", src.lastProductParams)
	}

	src.failLists = true
	page := loader.LoadProductsPage(context.Background(), ListRequest{Page: 1})
	if page.Items == nil || len(page.Items) != 0 || len(page.Categories) != 0 {
		t.Errorf("failed list should degrade to empty, got %+v", page)
	}
}

func TestPageLoader_Degraded(t *testing.T) {
	tests := []struct {
		name         string
		failLists    bool
		failHomeData bool
		want         bool
	}{
		{name: "healthy"},
		{name: "lists down", failLists: true, want: true},
		{name: "home data down", failHomeData: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := catalogSource()
			src.failLists = tt.failLists
			src.failHomeData = tt.failHomeData
			loader := newTestLoader(src)
			ctx := context.Background()

			if got := loader.LoadProductsPage(ctx, ListRequest{Page: 1}).Degraded; got != tt.want {
				t.Errorf("products page Degraded = %v, want %v", got, tt.want)
			}
			if got := loader.LoadPostsPage(ctx, ListRequest{Page: 1}).Degraded; got != tt.want {
				t.Errorf("posts page Degraded = %v, want %v", got, tt.want)
			}

			detail, err := loader.LoadPostDetail(ctx, "khai-truong")
			if err != nil {
				t.Fatalf("LoadPostDetail() error = %v", err)
			}
			if want := tt.failHomeData; detail.Degraded != want {
				t.Errorf("post detail Degraded = %v, want %v", detail.Degraded, want)
			}

			if got, want := loader.Search(ctx, "camera").Degraded, tt.failLists; got != want {
				t.Errorf("search Degraded = %v, want %v", got, want)
			}
		})
	}
}

func TestLoadPostsPage(t *testing.T) {
	src := catalogSource()
	loader := newTestLoader(src)

	page := loader.LoadPostsPage(context.Background(), ListRequest{
		Category: "tin-tuc",
		Page:     1,
		Filter:   domain.ListFilterState{Query: "triển"},
	})

	if src.lastPostParams.CategoryID != 3 {
		t.Errorf("CategoryID = %d, want 3", src.lastPostParams.CategoryID)
	}
	if len(page.Items) != 1 || page.Items[0].Slug != "trien-lam" {
		t.Errorf("Items = %+v", page.Items)
	}
}

func TestLoadProductDetail(t *testing.T) {
	src := catalogSource()
	loader := newTestLoader(src)

	detail, err := loader.LoadProductDetail(context.Background(), "ban-xoay")
	if err != nil {
		t.Fatalf("LoadProductDetail() error = %v", err)
	}
	if detail.Product.ID != 2 {
		t.Errorf("Product.ID = %d, want 2", detail.Product.ID)
	}
	if len(detail.Related) != 4 {
		t.Fatalf("len(Related) = %d, want 4", len(detail.Related))
	}
	for _, p := range detail.Related {
		if p.ID == 2 {
			t.Error("Related contains the current product")
		}
	}
}

func TestLoadDetail_NotFound(t *testing.T) {
	tests := []struct {
		name      string
		slug      string
		wantCalls int
	}{
		{name: "missing", slug: "khong-co", wantCalls: 1},
		{name: "malformed", slug: "Bad Slug!", wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := catalogSource()
			loader := newTestLoader(src)

			if _, err := loader.LoadProductDetail(context.Background(), tt.slug); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("LoadProductDetail(%q) error = %v, want ErrNotFound", tt.slug, err)
			}
			if _, err := loader.LoadPostDetail(context.Background(), tt.slug); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("LoadPostDetail(%q) error = %v, want ErrNotFound", tt.slug, err)
			}
			if n := src.count("GetProduct"); n != tt.wantCalls {
				t.Errorf("GetProduct calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestLoadPostDetail(t *testing.T) {
	loader := newTestLoader(catalogSource())

	detail, err := loader.LoadPostDetail(context.Background(), "khai-truong")
	if err != nil {
		t.Fatalf("LoadPostDetail() error = %v", err)
	}
	if detail.Post.Title != "Khai trương" || detail.Home == nil {
		t.Errorf("detail = %+v", detail)
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantProducts []int
		wantPosts    []int
	}{
		{name: "blank", query: "   "},
		{name: "name match", query: "DELL", wantProducts: []int{1}},
		{name: "description match", query: "ngày đêm", wantProducts: []int{3}},
		{name: "product and post", query: "camera", wantProducts: []int{3}, wantPosts: []int{11}},
		{name: "post content", query: "chi nhánh", wantPosts: []int{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := catalogSource()
			got := newTestLoader(src).Search(context.Background(), tt.query)

			if len(got.Products) != len(tt.wantProducts) || len(got.Posts) != len(tt.wantPosts) {
				t.Fatalf("Search(%q) = %d products, %d posts", tt.query, len(got.Products), len(got.Posts))
			}
			for i, id := range tt.wantProducts {
				if got.Products[i].ID != id {
					t.Errorf("Products[%d] = %d, want %d", i, got.Products[i].ID, id)
				}
			}
			for i, id := range tt.wantPosts {
				if got.Posts[i].ID != id {
					t.Errorf("Posts[%d] = %d, want %d", i, got.Posts[i].ID, id)
				}
			}
			if tt.query == "   " && src.count("ListProducts") != 0 {
				t.Error("blank query should not call the CMS")
			}
		})
	}
}

func TestHomeDataLoader(t *testing.T) {
	src := newFakeSource()
	src.settings = &domain.SettingsConfig{Phone: strPtr("0900000000")}
	src.menus = []domain.MenuItem{{Label: "Sản phẩm", Href: "/san-pham"}}
	src.components = []domain.HomeComponent{
		{Type: domain.ComponentFooter, Order: 2, Active: true, Config: json.RawMessage(`{"company_name":"ESAT"}`)},
		{Type: domain.ComponentStats, Order: 1, Active: true, Config: json.RawMessage(`{"items":[{"value":"10+","label":"Năm"}]}`)},
	}

	data, err := NewHomeDataLoader(src).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *data.Settings.Phone != "0900000000" || len(data.Menus) != 1 {
		t.Errorf("data = %+v", data)
	}
	if len(data.Components.Order) != 2 || data.Components.Order[0] != domain.ComponentStats {
		t.Errorf("Order = %v", data.Components.Order)
	}
	if !data.Components.Footer.IsPresent() {
		t.Error("Footer should be present")
	}
}

func TestHomeDataLoader_Failures(t *testing.T) {
	src := newFakeSource()
	src.failHomeData = true

	if _, err := NewHomeDataLoader(src).Load(context.Background()); err == nil {
		t.Error("Load() error = nil when every part failed")
	}
}

func TestHomeDataLoader_FillsDynamicSections(t *testing.T) {
	src := newFakeSource()
	src.featured = []domain.Product{
		{ID: 1, Name: "Camera IP", Slug: "camera-ip", Price: "1500000", Thumbnail: strPtr("p/1.jpg")},
		{ID: 2, Name: "Đầu ghi", Slug: "dau-ghi", Price: "0"},
		{ID: 3, Name: "Ổ cứng", Slug: "o-cung", Price: "900000"},
	}
	src.posts = []domain.Post{
		{ID: 1, Title: "Tin A", Slug: "tin-a", Content: "<p>Nội dung A</p>", CreatedAt: "2024-01-01"},
		{ID: 2, Title: "Tin B", Slug: "tin-b", Content: "<p>Nội dung B</p>", CreatedAt: "2024-01-02"},
	}
	src.components = []domain.HomeComponent{
		{Type: domain.ComponentFeaturedProducts, Order: 1, Active: true, Config: json.RawMessage(`{"title":"Nổi bật","display_mode":"featured","limit":2}`)},
		{Type: domain.ComponentNews, Order: 2, Active: true, Config: json.RawMessage(`{"title":"Tin tức","display_mode":"latest","limit":0}`)},
	}

	data, err := NewHomeDataLoader(src).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	products, _ := data.Components.FeaturedProducts.Get()
	if len(products.Products) != 2 {
		t.Fatalf("featured products = %d, want 2", len(products.Products))
	}
	if got := products.Products[0]; got.Link != "/san-pham/camera-ip" || got.Image != "p/1.jpg" || got.Price != "1500000" {
		t.Errorf("first featured = %+v", got)
	}

	news, _ := data.Components.News.Get()
	if len(news.Posts) != 2 {
		t.Fatalf("news posts = %d, want 2", len(news.Posts))
	}
	if got := news.Posts[1]; got.Link != "/bai-viet/tin-b" || got.Excerpt != "Nội dung B" || got.Date != "2024-01-02" {
		t.Errorf("second news post = %+v", got)
	}
}

func TestHomeDataLoader_KeepsHandPickedSections(t *testing.T) {
	src := newFakeSource()
	src.featured = []domain.Product{{ID: 1, Name: "Camera IP", Slug: "camera-ip"}}
	src.components = []domain.HomeComponent{
		{Type: domain.ComponentFeaturedProducts, Order: 1, Active: true, Config: json.RawMessage(`{"display_mode":"featured","products":[{"name":"Chọn tay","link":"/x"}]}`)},
		{Type: domain.ComponentNews, Order: 2, Active: true, Config: json.RawMessage(`{"display_mode":"manual"}`)},
	}

	data, err := NewHomeDataLoader(src).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	products, _ := data.Components.FeaturedProducts.Get()
	if len(products.Products) != 1 || products.Products[0].Name != "Chọn tay" {
		t.Errorf("featured products = %+v, want the hand-picked entry", products.Products)
	}
	if src.count("FeaturedProducts") != 0 || src.count("LatestPosts") != 0 {
		t.Error("hand-picked or manual sections must not call the CMS")
	}
}
