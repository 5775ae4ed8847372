package domain

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// SettingsConfig is the site-wide settings record.
type SettingsConfig struct {
	SiteName       *string `json:"site_name"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	SEOTitle       *string `json:"seo_title"`
	SEODescription *string `json:"seo_description"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	Email          *string `json:"email"`
	Logo           *string `json:"logo"`
	Favicon        *string `json:"favicon"`
	Placeholder    *string `json:"placeholder"`
	UpdatedAt      *string `json:"updated_at"`
}

// MenuChild is a second-level menu entry.
type MenuChild struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// MenuItem is a top-level navigation entry with at most one level of children.
type MenuItem struct {
	Label    string      `json:"label"`
	Href     string      `json:"href"`
	Children []MenuChild `json:"children,omitempty"`
}

type HeroSlide struct {
	Image      string `json:"image"`
	Alt        string `json:"alt"`
	Title      string `json:"title,omitempty"`
	Subtitle   string `json:"subtitle,omitempty"`
	Link       string `json:"link,omitempty"`
	ButtonText string `json:"button_text,omitempty"`
}

type HeroConfig struct {
	Slides []HeroSlide `json:"slides"`
}

type StatItem struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type StatsConfig struct {
	Items []StatItem `json:"items"`
}

type AboutFeature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AboutConfig struct {
	Badge       string         `json:"badge"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle,omitempty"`
	Description string         `json:"description"`
	Quote       string         `json:"quote"`
	Image       string         `json:"image,omitempty"`
	Features    []AboutFeature `json:"features"`
}

type CategoryItem struct {
	Image       string `json:"image"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link"`
}

type ProductCategoriesConfig struct {
	Title      string         `json:"title"`
	Categories []CategoryItem `json:"categories"`
}

type ProductItem struct {
	Image string `json:"image"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Link  string `json:"link"`
}

type FeaturedProductsConfig struct {
	Title       string        `json:"title"`
	Subtitle    string        `json:"subtitle,omitempty"`
	DisplayMode string        `json:"display_mode"`
	Limit       int           `json:"limit"`
	ViewAllLink string        `json:"view_all_link"`
	Products    []ProductItem `json:"products"`
}

type PartnerItem struct {
	Logo string `json:"logo"`
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

type PartnersConfig struct {
	Title      string        `json:"title"`
	AutoScroll bool          `json:"auto_scroll,omitempty"`
	Partners   []PartnerItem `json:"partners"`
}

type NewsPost struct {
	Image   string `json:"image"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Excerpt string `json:"excerpt,omitempty"`
	Date    string `json:"date,omitempty"`
}

type NewsConfig struct {
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	DisplayMode string     `json:"display_mode"`
	Limit       int        `json:"limit"`
	ViewAllLink string     `json:"view_all_link"`
	Posts       []NewsPost `json:"posts,omitempty"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type PolicyLink struct {
	Label string `json:"label"`
	Link  string `json:"link"`
}

// FooterConfig also carries the legacy per-network URLs older CMS records use.
type FooterConfig struct {
	CompanyName  string       `json:"company_name"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	Hotline      string       `json:"hotline,omitempty"`
	Email        string       `json:"email"`
	Copyright    string       `json:"copyright,omitempty"`
	SocialLinks  []SocialLink `json:"social_links,omitempty"`
	Policies     []PolicyLink `json:"policies,omitempty"`
	FacebookURL  string       `json:"facebook_url,omitempty"`
	MessengerURL string       `json:"messenger_url,omitempty"`
	ZaloURL      string       `json:"zalo_url,omitempty"`
}

// ComponentType identifies a home page section.
type ComponentType string

const (
	ComponentHero              ComponentType = "hero_carousel"
	ComponentStats             ComponentType = "stats"
	ComponentAbout             ComponentType = "about"
	ComponentProductCategories ComponentType = "product_categories"
	ComponentFeaturedProducts  ComponentType = "featured_products"
	ComponentPartners          ComponentType = "partners"
	ComponentNews              ComponentType = "news"
	ComponentFooter            ComponentType = "footer"
)

// KnownComponent reports whether t is a section type the site can render.
func KnownComponent(t ComponentType) bool {
	switch t {
	case ComponentHero, ComponentStats, ComponentAbout, ComponentProductCategories,
		ComponentFeaturedProducts, ComponentPartners, ComponentNews, ComponentFooter:
		return true
	}
	return false
}

// HomeComponent is one raw home-component record. Config is decoded lazily
// because its shape depends on Type.
type HomeComponent struct {
	ID     int             `json:"id"`
	Type   ComponentType   `json:"type"`
	Order  int             `json:"order"`
	Active bool            `json:"active"`
	Config json.RawMessage `json:"config"`
}

// HomeComponents holds every section config. Missing sections are absent
// blocks, never errors.
type HomeComponents struct {
	Order             []ComponentType                `json:"order"`
	Hero              Block[HeroConfig]              `json:"hero_carousel"`
	Stats             Block[StatsConfig]             `json:"stats"`
	About             Block[AboutConfig]             `json:"about"`
	ProductCategories Block[ProductCategoriesConfig] `json:"product_categories"`
	FeaturedProducts  Block[FeaturedProductsConfig]  `json:"featured_products"`
	Partners          Block[PartnersConfig]          `json:"partners"`
	News              Block[NewsConfig]              `json:"news"`
	Footer            Block[FooterConfig]            `json:"footer"`
}

// HomePageData is the aggregate of site-wide data fetched once per request.
type HomePageData struct {
	Settings   *SettingsConfig `json:"settings"`
	Menus      []MenuItem      `json:"menus"`
	Components HomeComponents  `json:"components"`
}

// DecodeHomeComponents turns raw component records into typed blocks.
// Inactive and unknown components are skipped. Order follows the `order`
// field. A component whose config fails to decode is left absent and its
// error is returned alongside the partial result.
func DecodeHomeComponents(raw []HomeComponent) (HomeComponents, error) {
	active := make([]HomeComponent, 0, len(raw))
	for _, c := range raw {
		if c.Active && KnownComponent(c.Type) {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Order < active[j].Order
	})

	var out HomeComponents
	var firstErr error
	for _, c := range active {
		if err := out.decode(c); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to decode %s config: %w", c.Type, err)
			}
			continue
		}
		out.Order = append(out.Order, c.Type)
	}
	return out, firstErr
}

func (h *HomeComponents) decode(c HomeComponent) error {
	switch c.Type {
	case ComponentHero:
		return decodeBlock(c.Config, &h.Hero)
	case ComponentStats:
		return decodeBlock(c.Config, &h.Stats)
	case ComponentAbout:
		return decodeBlock(c.Config, &h.About)
	case ComponentProductCategories:
		return decodeBlock(c.Config, &h.ProductCategories)
	case ComponentFeaturedProducts:
		return decodeBlock(c.Config, &h.FeaturedProducts)
	case ComponentPartners:
		return decodeBlock(c.Config, &h.Partners)
	case ComponentNews:
		return decodeBlock(c.Config, &h.News)
	case ComponentFooter:
		return decodeBlock(c.Config, &h.Footer)
	}
	return fmt.Errorf("unknown component type %q", c.Type)
}

func decodeBlock[T any](raw json.RawMessage, dst *Block[T]) error {
	if len(raw) == 0 || string(raw) == "null" {
		*dst = Block[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		*dst = Block[T]{}
		return err
	}
	*dst = NewBlock(v)
	return nil
}
