package queries

import (
	"context"
	"errors"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

// GetBasketQuery lists the customer's basket lines with live prices.
type GetBasketQuery struct {
	CustomerID string
}

type GetBasketQueryHandler struct {
	products ports.ProductRepository
	baskets  ports.BasketRepository
}

func NewGetBasketQueryHandler(products ports.ProductRepository, baskets ports.BasketRepository) *GetBasketQueryHandler {
	return &GetBasketQueryHandler{products: products, baskets: baskets}
}

// Handle returns an empty list for customers without a basket.
func (h *GetBasketQueryHandler) Handle(ctx context.Context, query GetBasketQuery) ([]domain.BasketLine, error) {
	basket, err := h.baskets.GetByCustomer(ctx, query.CustomerID)
	if errors.Is(err, domain.ErrBasketNotFound) {
		return []domain.BasketLine{}, nil
	}
	if err != nil {
		return nil, err
	}
	if basket.IsEmpty() {
		return []domain.BasketLine{}, nil
	}

	live, err := h.products.GetMany(ctx, basket.ProductIDs())
	if err != nil {
		return nil, err
	}
	return domain.ResolveLines(basket, live)
}
