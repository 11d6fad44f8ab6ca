package domain

import (
	"cmp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// SortField names the catalog orderings clients may request.
type SortField string

const (
	SortByID           SortField = "id"
	SortByPrice        SortField = "price"
	SortByCount        SortField = "count"
	SortByDate         SortField = "date"
	SortByTitle        SortField = "title"
	SortByRating       SortField = "rating"
	SortByFreeDelivery SortField = "freeDelivery"
)

// ParseSortField maps unknown fields to SortByID.
func ParseSortField(s string) SortField {
	switch f := SortField(s); f {
	case SortByPrice, SortByCount, SortByDate, SortByTitle, SortByRating, SortByFreeDelivery:
		return f
	default:
		return SortByID
	}
}

// CatalogFilter narrows catalog listings. Zero values disable a criterion.
type CatalogFilter struct {
	CategoryID   int64
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	FreeDelivery bool
	Available    bool
	Name         string
	Tags         []string
	Sort         SortField
	Descending   bool
}

// Matches evaluates the filter against a single product.
func (f CatalogFilter) Matches(p Product) bool {
	if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.FreeDelivery && !p.FreeDelivery {
		return false
	}
	if f.Available && p.Count <= 0 {
		return false
	}
	if name := strings.TrimSpace(f.Name); name != "" &&
		!strings.Contains(strings.ToLower(p.Title), strings.ToLower(name)) {
		return false
	}
	for _, tag := range f.Tags {
		if !p.HasTag(tag) {
			return false
		}
	}
	return true
}

// Less orders a before b according to the filter's sort field and direction.
// Ties fall back to ID so listings are stable.
func (f CatalogFilter) Less(a, b Product) bool {
	var c int
	switch f.Sort {
	case SortByPrice:
		c = a.Price.Cmp(b.Price)
	case SortByCount:
		c = cmp.Compare(a.Count, b.Count)
	case SortByDate:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case SortByTitle:
		c = strings.Compare(a.Title, b.Title)
	case SortByRating:
		c = cmp.Compare(a.Rating, b.Rating)
	case SortByFreeDelivery:
		c = cmp.Compare(boolRank(a.FreeDelivery), boolRank(b.FreeDelivery))
	}
	if c == 0 {
		c = cmp.Compare(a.ID, b.ID)
	}
	if f.Descending {
		return c > 0
	}
	return c < 0
}

// Page is one window of a paginated listing.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	LastPage    int
}

// ClampLimit maps a requested page size into [1, MaxLimit], using
// DefaultLimit when none was given.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Paginate clamps the requested page into [1, lastPage] and returns the
// offset of its first element.
func Paginate(total, page, limit int) (current, last, offset int) {
	limit = ClampLimit(limit)
	last = total / limit
	if total%limit != 0 {
		last++
	}
	if last < 1 {
		last = 1
	}

	current = page
	if current < 1 {
		current = DefaultPage
	}
	if current > last {
		current = last
	}
	return current, last, (current - 1) * limit
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
