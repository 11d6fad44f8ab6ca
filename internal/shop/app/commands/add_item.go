package commands

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

type AddItemCommand struct {
	CustomerID string
	ProductID  int64
	Quantity   int
}

func (c AddItemCommand) CommandName() string { return "AddItem" }

func (c AddItemCommand) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("customer.id", c.CustomerID),
		attribute.Int64("product.id", c.ProductID),
		attribute.Int("quantity", c.Quantity),
	}
}

// AddItemHandler merges a product into the customer's basket, creating the
// basket on first use.
type AddItemHandler struct {
	products ports.ProductRepository
	baskets  ports.BasketRepository
	tx       ports.Transactor
	clock    Clock
}

func NewAddItemHandler(repos ports.Repositories, clock Clock) *AddItemHandler {
	return &AddItemHandler{
		products: repos.Products,
		baskets:  repos.Baskets,
		tx:       repos.Transactor,
		clock:    clock,
	}
}

func (h *AddItemHandler) Handle(ctx context.Context, cmd AddItemCommand) ([]domain.BasketLine, error) {
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var lines []domain.BasketLine
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := h.products.GetByID(ctx, cmd.ProductID)
		if err != nil {
			return err
		}

		basket, err := h.baskets.GetOrCreateForUpdate(ctx, cmd.CustomerID, h.clock.now())
		if err != nil {
			return err
		}

		if err := basket.Add(*product, cmd.Quantity); err != nil {
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
