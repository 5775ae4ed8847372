package application

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dfryer1193/esatsite/content/domain"
)

// ParsePage reads a 1-based page number, defaulting to 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PageLink is one entry of a pagination bar.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// ListNavigator builds the navigation URLs of a list page. Page and category
// changes are navigations that trigger a new server fetch; they never go
// through Compute.
type ListNavigator struct {
	basePath string
	query    url.Values
	current  int
	last     int
}

func NewListNavigator(basePath string, query url.Values, meta *domain.PaginationMeta) *ListNavigator {
	page := &domain.Page[struct{}]{Meta: meta}
	last := page.LastPage()
	current := min(page.CurrentPage(), last)

	return &ListNavigator{
		basePath: basePath,
		query:    cloneValues(query),
		current:  current,
		last:     last,
	}
}

func (n *ListNavigator) Current() int {
	return n.current
}

func (n *ListNavigator) Last() int {
	return n.last
}

// PageURL returns the URL of page. ok is false when page is outside
// [1, last], in which case the caller must stay where it is.
func (n *ListNavigator) PageURL(page int) (string, bool) {
	if page < 1 || page > n.last {
		return "", false
	}

	q := cloneValues(n.query)
	q.Set("page", strconv.Itoa(page))
	return n.build(q), true
}

// CategoryURL selects a category, or all categories when slug is empty. The
// page always resets to 1.
func (n *ListNavigator) CategoryURL(slug string) string {
	q := cloneValues(n.query)
	if slug != "" {
		q.Set("category", slug)
	} else {
		q.Del("category")
	}
	q.Del("page")
	return n.build(q)
}

// ParamURL sets a local filter parameter (q, sort, price) and keeps the page.
// An empty value removes the parameter.
func (n *ListNavigator) ParamURL(key, value string) string {
	q := cloneValues(n.query)
	if value == "" {
		q.Del(key)
	} else {
		q.Set(key, value)
	}
	return n.build(q)
}

// Prev returns the previous page URL, if there is one.
func (n *ListNavigator) Prev() (string, bool) {
	return n.PageURL(n.current - 1)
}

// Next returns the next page URL, if there is one.
func (n *ListNavigator) Next() (string, bool) {
	return n.PageURL(n.current + 1)
}

// Pages lists every page from 1 to last.
func (n *ListNavigator) Pages() []PageLink {
	links := make([]PageLink, 0, n.last)
	for i := 1; i <= n.last; i++ {
		u, _ := n.PageURL(i)
		links = append(links, PageLink{Number: i, URL: u, Current: i == n.current})
	}
	return links
}

func (n *ListNavigator) build(q url.Values) string {
	if len(q) == 0 {
		return n.basePath
	}
	return n.basePath + "?" + q.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
