package commands

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

type SetDeliveryDetailsCommand struct {
	CustomerID string
	OrderID    int64
	Details    domain.DeliveryDetails
}

func (c SetDeliveryDetailsCommand) CommandName() string { return "SetDeliveryDetails" }

func (c SetDeliveryDetailsCommand) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("customer.id", c.CustomerID),
		attribute.Int64("order.id", c.OrderID),
		attribute.String("order.delivery_type", string(c.Details.DeliveryType)),
		attribute.String("order.payment_type", string(c.Details.PaymentType)),
	}
}

// SetDeliveryDetailsHandler accepts an order. Express delivery is charged on
// every submission.
type SetDeliveryDetailsHandler struct {
	orders  ports.OrderRepository
	pricing ports.PricingRepository
	tx      ports.Transactor
	events  ports.EventBus
	clock   Clock
}

func NewSetDeliveryDetailsHandler(repos ports.Repositories, events ports.EventBus, clock Clock) *SetDeliveryDetailsHandler {
	return &SetDeliveryDetailsHandler{
		orders:  repos.Orders,
		pricing: repos.Pricing,
		tx:      repos.Transactor,
		events:  events,
		clock:   clock,
	}
}

func (h *SetDeliveryDetailsHandler) Handle(ctx context.Context, cmd SetDeliveryDetailsCommand) (*domain.Order, error) {
	if err := cmd.Details.Validate(); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = h.orders.GetByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if !order.OwnedBy(cmd.CustomerID) {
			return domain.ErrForbidden
		}

		pricing, err := h.pricing.Get(ctx)
		if err != nil {
			return err
		}
		if err := order.ApplyDeliveryDetails(cmd.Details, pricing, h.clock.now()); err != nil {
			return err
		}
		return h.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	_ = h.events.PublishOrderAccepted(ctx, order.ID)

	return order, nil
}
