package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Basket is the mutable, per-customer collection of desired quantities.
// Items keep insertion order and hold at most one entry per product.
type Basket struct {
	ID         int64
	CustomerID string
	Items      []BasketItem
	CreatedAt  time.Time
}

type BasketItem struct {
	ProductID int64
	Quantity  int
}

// BasketLine is a basket item resolved against live catalog data.
type BasketLine struct {
	Product  Product
	Quantity int
}

// NewBasket returns an empty basket owned by customerID.
func NewBasket(customerID string, now time.Time) *Basket {
	return &Basket{CustomerID: customerID, CreatedAt: now.UTC()}
}

// Quantity returns the quantity held for productID, or zero.
func (b *Basket) Quantity(productID int64) int {
	if i := b.indexOf(productID); i >= 0 {
		return b.Items[i].Quantity
	}
	return 0
}

// Add merges quantity units of product into the basket. The prospective
// quantity must not exceed the product's available stock. Stock itself is
// not touched.
func (b *Basket) Add(product Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	i := b.indexOf(product.ID)
	prospective := quantity
	if i >= 0 {
		prospective += b.Items[i].Quantity
	}
	if !product.Covers(prospective) {
		return fmt.Errorf("product %d: %w", product.ID, ErrInsufficientStock)
	}

	if i >= 0 {
		b.Items[i].Quantity = prospective
		return nil
	}
	b.Items = append(b.Items, BasketItem{ProductID: product.ID, Quantity: quantity})
	return nil
}

// Remove decrements the line for productID, dropping it entirely when
// quantity covers the whole line.
func (b *Basket) Remove(productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	i := b.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("product %d: %w", productID, ErrItemNotFound)
	}

	if quantity >= b.Items[i].Quantity {
		b.Items = append(b.Items[:i], b.Items[i+1:]...)
		return nil
	}
	b.Items[i].Quantity -= quantity
	return nil
}

func (b *Basket) IsEmpty() bool {
	return len(b.Items) == 0
}

// ProductIDs lists the basket's products in insertion order.
func (b *Basket) ProductIDs() []int64 {
	ids := make([]int64, 0, len(b.Items))
	for _, item := range b.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func (b *Basket) indexOf(productID int64) int {
	for i, item := range b.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// ResolveLines pairs every basket item with its live product record.
func ResolveLines(b *Basket, products map[int64]Product) ([]BasketLine, error) {
	lines := make([]BasketLine, 0, len(b.Items))
	for _, item := range b.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrProductNotFound)
		}
		lines = append(lines, BasketLine{Product: product, Quantity: item.Quantity})
	}
	return lines, nil
}

// TotalCost sums unit price times quantity over all lines.
func TotalCost(lines []BasketLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
