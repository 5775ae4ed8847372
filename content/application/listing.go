package application

import (
	"net/url"
	"slices"
	"strings"

	"github.com/dfryer1193/esatsite/content/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ParseFilterState reads the q, sort and price query parameters.
func ParseFilterState(q url.Values) domain.ListFilterState {
	return domain.ListFilterState{
		Query: strings.TrimSpace(q.Get("q")),
		Sort:  domain.SortKey(q.Get("sort")),
		Price: domain.PriceBucket(q.Get("price")),
	}.Normalize()
}

// Compute filters items by query and orders them by sortKey. It returns a new
// slice and never touches items.
func Compute[T domain.Listable](items []T, query string, sortKey domain.SortKey) []T {
	out := make([]T, 0, len(items))
	needle := strings.ToLower(query)
	for _, item := range items {
		if needle == "" || strings.Contains(strings.ToLower(item.DisplayName()), needle) {
			out = append(out, item)
		}
	}

	sortItems(out, sortKey)
	return out
}

// ComputeProducts is Compute with the price bucket applied before sorting.
func ComputeProducts(items []domain.Product, query string, sortKey domain.SortKey, bucket domain.PriceBucket) []domain.Product {
	filtered := Compute(items, query, sortKey)
	if bucket == domain.BucketAll || !knownBucket(bucket) {
		return filtered
	}

	out := filtered[:0]
	for _, p := range filtered {
		if domain.BucketOf(p.Price) == bucket {
			out = append(out, p)
		}
	}
	return out
}

// ComputeState applies a whole filter state to a product page.
func ComputeState(items []domain.Product, state domain.ListFilterState) []domain.Product {
	state = state.Normalize()
	return ComputeProducts(items, state.Query, state.Sort, state.Price)
}

func knownBucket(b domain.PriceBucket) bool {
	return domain.ListFilterState{Price: b}.Normalize().Price == b
}

func sortItems[T domain.Listable](items []T, sortKey domain.SortKey) {
	switch sortKey {
	case domain.SortOldest:
		slices.SortStableFunc(items, func(a, b T) int {
			return a.CreatedTime().Compare(b.CreatedTime())
		})
	case domain.SortNameAsc, domain.SortNameDesc:
		col := collate.New(language.Vietnamese)
		desc := sortKey == domain.SortNameDesc
		slices.SortStableFunc(items, func(a, b T) int {
			c := col.CompareString(a.DisplayName(), b.DisplayName())
			if desc {
				return -c
			}
			return c
		})
	default:
		slices.SortStableFunc(items, func(a, b T) int {
			return b.CreatedTime().Compare(a.CreatedTime())
		})
	}
}
