package render

import (
	"github.com/dfryer1193/esatsite/content/application"
	"github.com/dfryer1193/esatsite/content/domain"
)

// Page is the data every page template executes against.
type Page struct {
	Title       string
	Description string
	Path        string
	Home        application.HomeDataView
	Nav         []domain.MenuItem
	Content     any
}

// NewPage builds the layout data from a home data snapshot.
func NewPage(path string, home application.HomeDataView) *Page {
	return &Page{
		Path: path,
		Home: home,
		Nav:  application.NavLinks(home.Menus),
	}
}

type CategoryLink struct {
	Name   string
	URL    string
	Active bool
}

type Option struct {
	Label  string
	Value  string
	Active bool
}

// Pager is the template form of a ListNavigator.
type Pager struct {
	Prev  string
	Next  string
	Last  int
	Pages []application.PageLink
}

func NewPager(nav *application.ListNavigator) Pager {
	p := Pager{Last: nav.Last(), Pages: nav.Pages()}
	p.Prev, _ = nav.Prev()
	p.Next, _ = nav.Next()
	return p
}

// ListView backs the product and post list pages.
type ListView[T any] struct {
	BasePath   string
	Category   string
	Query      string
	Categories []CategoryLink
	Sorts      []Option
	Prices     []Option
	Items      []T
	Fetched    int
	Pager      Pager
}

var sortLabels = []Option{
	{Label: "Mới nhất", Value: string(domain.SortNewest)},
	{Label: "Cũ nhất", Value: string(domain.SortOldest)},
	{Label: "Tên A-Z", Value: string(domain.SortNameAsc)},
	{Label: "Tên Z-A", Value: string(domain.SortNameDesc)},
}

var priceLabels = []Option{
	{Label: "Tất cả mức giá", Value: string(domain.BucketAll)},
	{Label: "Dưới 5 triệu", Value: string(domain.BucketUnder5)},
	{Label: "5 - 20 triệu", Value: string(domain.Bucket5To20)},
	{Label: "Trên 20 triệu", Value: string(domain.BucketOver20)},
	{Label: "Liên hệ", Value: string(domain.BucketContact)},
}

func markActive(options []Option, value string) []Option {
	out := make([]Option, len(options))
	for i, o := range options {
		o.Active = o.Value == value
		out[i] = o
	}
	return out
}

// SortOptions returns the sort choices with current marked.
func SortOptions(current domain.SortKey) []Option {
	return markActive(sortLabels, string(current))
}

// PriceOptions returns the price bucket choices with current marked.
func PriceOptions(current domain.PriceBucket) []Option {
	return markActive(priceLabels, string(current))
}

// CategoryLinks builds the category bar, starting with "Tất cả".
func CategoryLinks[C any](nav *application.ListNavigator, current string, categories []C, name, slug func(C) string) []CategoryLink {
	links := make([]CategoryLink, 0, len(categories)+1)
	links = append(links, CategoryLink{Name: "Tất cả", URL: nav.CategoryURL(""), Active: current == ""})
	for _, c := range categories {
		s := slug(c)
		links = append(links, CategoryLink{Name: name(c), URL: nav.CategoryURL(s), Active: s == current})
	}
	return links
}
