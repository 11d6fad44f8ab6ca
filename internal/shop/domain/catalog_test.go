package domain_test

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dejobratic/shop/internal/shop/domain"
)

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCatalogFilterMatches(t *testing.T) {
	p := domain.Product{
		ID:           1,
		CategoryID:   2,
		Title:        "Gaming Laptop",
		Price:        decimal.RequireFromString("1500.00"),
		Count:        3,
		FreeDelivery: true,
		Tags:         []string{"electronics", "sale"},
	}

	tests := []struct {
		name   string
		filter domain.CatalogFilter
		want   bool
	}{
		{name: "empty filter", filter: domain.CatalogFilter{}, want: true},
		{name: "category match", filter: domain.CatalogFilter{CategoryID: 2}, want: true},
		{name: "category mismatch", filter: domain.CatalogFilter{CategoryID: 3}, want: false},
		{name: "price within range", filter: domain.CatalogFilter{MinPrice: decimalPtr("1000"), MaxPrice: decimalPtr("1500")}, want: true},
		{name: "price below min", filter: domain.CatalogFilter{MinPrice: decimalPtr("1500.01")}, want: false},
		{name: "price above max", filter: domain.CatalogFilter{MaxPrice: decimalPtr("1499.99")}, want: false},
		{name: "name is case insensitive", filter: domain.CatalogFilter{Name: "laptop"}, want: true},
		{name: "name mismatch", filter: domain.CatalogFilter{Name: "phone"}, want: false},
		{name: "all tags required", filter: domain.CatalogFilter{Tags: []string{"sale", "electronics"}}, want: true},
		{name: "missing tag", filter: domain.CatalogFilter{Tags: []string{"sale", "books"}}, want: false},
		{name: "free delivery", filter: domain.CatalogFilter{FreeDelivery: true}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(p))
		})
	}

	t.Run("available excludes sold out", func(t *testing.T) {
		soldOut := p
		soldOut.Count = 0

		assert.False(t, domain.CatalogFilter{Available: true}.Matches(soldOut))
	})
}

func TestCatalogFilterLess(t *testing.T) {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	products := []domain.Product{
		{ID: 1, Title: "b", Price: decimal.RequireFromString("20"), Count: 5, Rating: 4.5, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 2, Title: "a", Price: decimal.RequireFromString("10"), Count: 9, Rating: 3, CreatedAt: base.Add(time.Hour), FreeDelivery: true},
		{ID: 3, Title: "c", Price: decimal.RequireFromString("10"), Count: 1, Rating: 5, CreatedAt: base},
	}

	tests := []struct {
		name   string
		filter domain.CatalogFilter
		want   []int64
	}{
		{name: "default by id", filter: domain.CatalogFilter{}, want: []int64{1, 2, 3}},
		{name: "price ties fall back to id", filter: domain.CatalogFilter{Sort: domain.SortByPrice}, want: []int64{2, 3, 1}},
		{name: "price descending", filter: domain.CatalogFilter{Sort: domain.SortByPrice, Descending: true}, want: []int64{1, 3, 2}},
		{name: "count", filter: domain.CatalogFilter{Sort: domain.SortByCount}, want: []int64{3, 1, 2}},
		{name: "date", filter: domain.CatalogFilter{Sort: domain.SortByDate}, want: []int64{3, 2, 1}},
		{name: "title", filter: domain.CatalogFilter{Sort: domain.SortByTitle}, want: []int64{2, 1, 3}},
		{name: "rating descending", filter: domain.CatalogFilter{Sort: domain.SortByRating, Descending: true}, want: []int64{3, 1, 2}},
		{name: "free delivery last", filter: domain.CatalogFilter{Sort: domain.SortByFreeDelivery}, want: []int64{1, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted := slices.Clone(products)
			slices.SortFunc(sorted, func(a, b domain.Product) int {
				switch {
				case tt.filter.Less(a, b):
					return -1
				case tt.filter.Less(b, a):
					return 1
				}
				return 0
			})

			ids := make([]int64, 0, len(sorted))
			for _, p := range sorted {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestParseSortField(t *testing.T) {
	assert.Equal(t, domain.SortByPrice, domain.ParseSortField("price"))
	assert.Equal(t, domain.SortByFreeDelivery, domain.ParseSortField("freeDelivery"))
	assert.Equal(t, domain.SortByID, domain.ParseSortField("popularity"))
	assert.Equal(t, domain.SortByID, domain.ParseSortField(""))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		page, limit int
		current     int
		last        int
		offset      int
	}{
		{name: "first page", total: 45, page: 1, limit: 20, current: 1, last: 3, offset: 0},
		{name: "middle page", total: 45, page: 2, limit: 20, current: 2, last: 3, offset: 20},
		{name: "page past the end is clamped", total: 45, page: 9, limit: 20, current: 3, last: 3, offset: 40},
		{name: "zero page defaults to first", total: 45, page: 0, limit: 20, current: 1, last: 3, offset: 0},
		{name: "empty listing has one page", total: 0, page: 1, limit: 20, current: 1, last: 1, offset: 0},
		{name: "zero limit uses default", total: 45, page: 2, limit: 0, current: 2, last: 3, offset: 20},
		{name: "oversized limit is capped", total: 250, page: 2, limit: 1000, current: 2, last: 3, offset: 100},
		{name: "max int limit does not overflow", total: 45, page: 1, limit: math.MaxInt, current: 1, last: 1, offset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, last, offset := domain.Paginate(tt.total, tt.page, tt.limit)

			assert.Equal(t, tt.current, current)
			assert.Equal(t, tt.last, last)
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, domain.DefaultLimit, domain.ClampLimit(0))
	assert.Equal(t, domain.DefaultLimit, domain.ClampLimit(-5))
	assert.Equal(t, 7, domain.ClampLimit(7))
	assert.Equal(t, domain.MaxLimit, domain.ClampLimit(domain.MaxLimit))
	assert.Equal(t, domain.MaxLimit, domain.ClampLimit(math.MaxInt))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, domain.AverageRating(nil))
	assert.Equal(t, 4.0, domain.AverageRating([]int{4}))
	assert.Equal(t, 4.33, domain.AverageRating([]int{5, 4, 4}))
	assert.Equal(t, 3.5, domain.AverageRating([]int{3, 4}))
}

func TestSaleSalePrice(t *testing.T) {
	p := product(1, "100.00", 1)

	assert.Equal(t, "75.00", domain.Sale{Product: p, Discount: decimal.RequireFromString("25")}.SalePrice().StringFixed(2))
	assert.Equal(t, "0.00", domain.Sale{Product: p, Discount: decimal.RequireFromString("150")}.SalePrice().StringFixed(2))
}
