package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as seen by the checkout workflow.
type Product struct {
	ID           int64
	CategoryID   int64
	Title        string
	Description  string
	Price        decimal.Decimal
	Count        int
	FreeDelivery bool
	Tags         []string
	Rating       float64
	CreatedAt    time.Time
}

// Covers reports whether the available stock can satisfy quantity units.
func (p Product) Covers(quantity int) bool {
	return quantity <= p.Count
}

// HasTag reports whether the product carries the given tag.
func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AverageRating is the mean of review rates rounded to two places, or zero without reviews.
func AverageRating(rates []int) float64 {
	if len(rates) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rates {
		sum += r
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(rates)))).Round(2)
	return avg.InexactFloat64()
}

// Sale is a time-boxed discount on a single product.
type Sale struct {
	Product  Product
	DateFrom time.Time
	DateTo   time.Time
	Discount decimal.Decimal
}

// SalePrice is the product price reduced by the discount, never below zero.
func (s Sale) SalePrice() decimal.Decimal {
	price := s.Product.Price.Sub(s.Discount)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}
