package commands

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

type CreateOrderCommand struct {
	CustomerID string
}

func (c CreateOrderCommand) CommandName() string { return "CreateOrder" }

func (c CreateOrderCommand) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("customer.id", c.CustomerID)}
}

// CreateOrderHandler turns the customer's basket into an in-progress order
// priced with the configured delivery surcharge.
type CreateOrderHandler struct {
	products ports.ProductRepository
	baskets  ports.BasketRepository
	orders   ports.OrderRepository
	pricing  ports.PricingRepository
	tx       ports.Transactor
	events   ports.EventBus
	clock    Clock
}

func NewCreateOrderHandler(repos ports.Repositories, events ports.EventBus, clock Clock) *CreateOrderHandler {
	return &CreateOrderHandler{
		products: repos.Products,
		baskets:  repos.Baskets,
		orders:   repos.Orders,
		pricing:  repos.Pricing,
		tx:       repos.Transactor,
		events:   events,
		clock:    clock,
	}
}

func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	var order *domain.Order
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		basket, err := h.baskets.GetByCustomerForUpdate(ctx, cmd.CustomerID)
		if errors.Is(err, domain.ErrBasketNotFound) {
			return domain.ErrNoBasket
		}
		if err != nil {
			return err
		}
		if basket.IsEmpty() {
			return domain.ErrNoBasket
		}

		lines, err := resolveLines(ctx, h.products, basket)
		if err != nil {
			return err
		}
		pricing, err := h.pricing.Get(ctx)
		if err != nil {
			return err
		}

		order, err = domain.NewOrder(cmd.CustomerID, basket, lines, pricing, h.clock.now())
		if err != nil {
			return err
		}
		return h.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	// publish failures are recorded by the bus decorator
	_ = h.events.PublishOrderCreated(ctx, order.ID)

	return order, nil
}
