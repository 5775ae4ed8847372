package domain

// SortKey orders a list page.
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortNameAsc  SortKey = "a-z"
	SortNameDesc SortKey = "z-a"
)

// PriceBucket is a named price tier for product lists.
type PriceBucket string

const (
	BucketAll     PriceBucket = "all"
	BucketUnder5  PriceBucket = "under-5"
	Bucket5To20   PriceBucket = "5-20"
	BucketOver20  PriceBucket = "over-20"
	BucketContact PriceBucket = "contact"
)

// Bucket thresholds in VND.
const (
	PriceThresholdLow  = 5_000_000
	PriceThresholdHigh = 20_000_000
)

// ListFilterState is the per-request filter and sort selection of a list page.
type ListFilterState struct {
	Query string      `json:"q"`
	Sort  SortKey     `json:"sort"`
	Price PriceBucket `json:"price"`
}

// Normalize maps unknown sort keys to newest and unknown buckets to all.
func (s ListFilterState) Normalize() ListFilterState {
	switch s.Sort {
	case SortNewest, SortOldest, SortNameAsc, SortNameDesc:
	default:
		s.Sort = SortNewest
	}
	switch s.Price {
	case BucketAll, BucketUnder5, Bucket5To20, BucketOver20, BucketContact:
	default:
		s.Price = BucketAll
	}
	return s
}

// BucketOf returns the single bucket a price belongs to. Prices that are not
// a positive number are "contact us".
func BucketOf(price string) PriceBucket {
	v, ok := ParsePrice(price)
	switch {
	case !ok || v <= 0:
		return BucketContact
	case v < PriceThresholdLow:
		return BucketUnder5
	case v <= PriceThresholdHigh:
		return Bucket5To20
	default:
		return BucketOver20
	}
}
