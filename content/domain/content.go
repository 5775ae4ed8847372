package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by a ContentSource when a single entity lookup
// (by slug) does not exist upstream.
var ErrNotFound = errors.New("content not found")

// Category is a post category.
type Category struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	Active      bool    `json:"active"`
	Order       int     `json:"order"`
	PostsCount  *int    `json:"posts_count,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ProductCategory is a product category. It is a separate resource from
// Category upstream, so slugs are only unique within each type.
type ProductCategory struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Description   *string `json:"description"`
	Active        bool    `json:"active"`
	Order         int     `json:"order"`
	ProductsCount *int    `json:"products_count,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// Post is an article. Content is trusted HTML from the CMS.
// The slug is the only key that ever appears in a URL.
type Post struct {
	ID         int       `json:"id"`
	CategoryID int       `json:"category_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Active     bool      `json:"active"`
	Thumbnail  *string   `json:"thumbnail"`
	Order      int       `json:"order"`
	Category   *Category `json:"category,omitempty"`
	CreatedAt  string    `json:"created_at"`
	UpdatedAt  string    `json:"updated_at"`
}

// Product is a catalog item. Price is kept as delivered: the CMS sends a
// decimal string, and anything non-numeric or zero means "contact us".
type Product struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description *string           `json:"description"`
	Content     string            `json:"content"`
	Thumbnail   *string           `json:"thumbnail"`
	Price       string            `json:"price"`
	Active      bool              `json:"active"`
	Order       int               `json:"order"`
	Categories  []ProductCategory `json:"categories,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// PaginationMeta mirrors the pagination block of a CMS list response.
type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	From        int `json:"from"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	To          int `json:"to"`
	Total       int `json:"total"`
}

// Page is one page of a paged list.
type Page[T any] struct {
	Items []T
	Meta  *PaginationMeta
}

// CurrentPage returns the 1-based page number, defaulting to 1.
func (p *Page[T]) CurrentPage() int {
	if p == nil || p.Meta == nil || p.Meta.CurrentPage < 1 {
		return 1
	}
	return p.Meta.CurrentPage
}

// LastPage returns the last page number, defaulting to 1.
func (p *Page[T]) LastPage() int {
	if p == nil || p.Meta == nil || p.Meta.LastPage < 1 {
		return 1
	}
	return p.Meta.LastPage
}

// ListParams are the query parameters accepted by the paged list endpoints.
// Zero values are omitted from the request.
type ListParams struct {
	PerPage    int
	Page       int
	CategoryID int
}

// Listable is implemented by anything the list engine can filter and sort.
type Listable interface {
	DisplayName() string
	CreatedTime() time.Time
}

func (p Post) DisplayName() string {
	return p.Title
}

func (p Post) CreatedTime() time.Time {
	return ParseTimestamp(p.CreatedAt)
}

func (p Product) DisplayName() string {
	return p.Name
}

func (p Product) CreatedTime() time.Time {
	return ParseTimestamp(p.CreatedAt)
}

// PriceValue parses the product price. ok is false when the price is not a
// finite number.
func (p Product) PriceValue() (float64, bool) {
	return ParsePrice(p.Price)
}

// ParsePrice parses a price string as delivered by the CMS.
func ParsePrice(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the CMS emits. Unparseable
// input yields the zero time.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
