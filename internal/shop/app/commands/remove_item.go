package commands

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

type RemoveItemCommand struct {
	CustomerID string
	ProductID  int64
	Quantity   int
}

func (c RemoveItemCommand) CommandName() string { return "RemoveItem" }

func (c RemoveItemCommand) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("customer.id", c.CustomerID),
		attribute.Int64("product.id", c.ProductID),
		attribute.Int("quantity", c.Quantity),
	}
}

type RemoveItemHandler struct {
	products ports.ProductRepository
	baskets  ports.BasketRepository
	tx       ports.Transactor
}

func NewRemoveItemHandler(repos ports.Repositories) *RemoveItemHandler {
	return &RemoveItemHandler{
		products: repos.Products,
		baskets:  repos.Baskets,
		tx:       repos.Transactor,
	}
}

// Handle fails with domain.ErrBasketNotFound when the customer never added
// anything, and with domain.ErrItemNotFound when the product is not in the basket.
func (h *RemoveItemHandler) Handle(ctx context.Context, cmd RemoveItemCommand) ([]domain.BasketLine, error) {
	var lines []domain.BasketLine
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		basket, err := h.baskets.GetByCustomerForUpdate(ctx, cmd.CustomerID)
		if err != nil {
			return err
		}

		if err := basket.Remove(cmd.ProductID, cmd.Quantity); err != nil {
			return err
		}
		if err := h.baskets.Save(ctx, basket); err != nil {
			return err
		}

		lines, err = resolveLines(ctx, h.products, basket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}
