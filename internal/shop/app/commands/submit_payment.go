package commands

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
	"github.com/dejobratic/shop/internal/telemetry"
)

const (
	eventStockDeducted = "stock.deducted"
	eventPaymentFailed = "payment.failed"
)

type SubmitPaymentCommand struct {
	CustomerID string
	OrderID    int64
	Card       domain.CardDetails
}

func (c SubmitPaymentCommand) CommandName() string { return "SubmitPayment" }

func (c SubmitPaymentCommand) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("customer.id", c.CustomerID),
		attribute.Int64("order.id", c.OrderID),
		attribute.String("payment.card", domain.MaskCardNumber(c.Card.Number)),
	}
}

// PaymentResult describes a finished payment attempt. Payment is nil when the
// card was rejected before an attempt was recorded.
type PaymentResult struct {
	Order         *domain.Order
	Payment       *domain.Payment
	UnitsDeducted int
	FailureReason string
}

// SubmitPaymentHandler validates the card, records the attempt and settles the
// order. Stock for every basket line is checked and deducted in one
// transaction with the product rows locked, so a shortfall on any line leaves
// all stock, the basket and the order status untouched.
type SubmitPaymentHandler struct {
	products ports.ProductRepository
	baskets  ports.BasketRepository
	orders   ports.OrderRepository
	payments ports.PaymentRepository
	tx       ports.Transactor
	events   ports.EventBus
	clock    Clock
	newID    func() string
}

func NewSubmitPaymentHandler(repos ports.Repositories, events ports.EventBus, clock Clock) *SubmitPaymentHandler {
	return &SubmitPaymentHandler{
		products: repos.Products,
		baskets:  repos.Baskets,
		orders:   repos.Orders,
		payments: repos.Payments,
		tx:       repos.Transactor,
		events:   events,
		clock:    clock,
		newID:    uuid.NewString,
	}
}

func (h *SubmitPaymentHandler) Handle(ctx context.Context, cmd SubmitPaymentCommand) (PaymentResult, error) {
	order, err := h.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return PaymentResult{}, err
	}
	if !order.OwnedBy(cmd.CustomerID) {
		return PaymentResult{}, domain.ErrForbidden
	}
	if err := order.CanPay(); err != nil {
		return PaymentResult{Order: order}, err
	}

	now := h.clock.now()
	if err := cmd.Card.CheckExpiry(now); err != nil {
		if !errors.Is(err, domain.ErrPaymentExpired) {
			return PaymentResult{Order: order}, err
		}
		return h.fail(ctx, order, nil, domain.PaymentErrorExpired, err)
	}
	if err := cmd.Card.CheckNumber(); err != nil {
		return PaymentResult{Order: order}, err
	}
	if err := cmd.Card.CheckHolder(); err != nil {
		return PaymentResult{Order: order}, err
	}

	payment := domain.NewPayment(h.newID(), order.ID, cmd.Card, now)
	if err := h.payments.Create(ctx, payment); err != nil {
		return PaymentResult{Order: order}, err
	}

	var lines, units int
	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := h.orders.GetByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := locked.CanPay(); err != nil {
			return err
		}

		basket, err := h.baskets.GetByCustomerForUpdate(ctx, cmd.CustomerID)
		if err != nil {
			return err
		}
		if basket.IsEmpty() {
			return domain.ErrNoBasket
		}

		quantities, err := h.checkStock(ctx, basket)
		if err != nil {
			return err
		}
		if err := h.products.DeductStock(ctx, quantities); err != nil {
			return err
		}
		if err := h.payments.MarkSucceeded(ctx, payment.ID); err != nil {
			return err
		}
		if err := h.baskets.ClearItems(ctx, basket.ID); err != nil {
			return err
		}
		if err := locked.MarkPaid(now); err != nil {
			return err
		}
		if err := h.orders.Update(ctx, locked); err != nil {
			return err
		}

		lines = len(quantities)
		for _, q := range quantities {
			units += q
		}
		order = locked
		return nil
	})
	if errors.Is(err, domain.ErrInsufficientStock) {
		return h.fail(ctx, order, payment, domain.PaymentErrorInsufficientStock, err)
	}
	if err != nil {
		return PaymentResult{Order: order, Payment: payment}, err
	}

	payment.Success = true
	telemetry.RecordEvent(ctx, eventStockDeducted,
		attribute.Int64("order.id", order.ID),
		attribute.Int("stock.lines", lines),
		attribute.Int("stock.units", units),
	)
	_ = h.events.PublishOrderPaid(ctx, order.ID)

	return PaymentResult{Order: order, Payment: payment, UnitsDeducted: units}, nil
}

// checkStock locks every product in the basket and verifies each line is
// covered before anything is deducted.
func (h *SubmitPaymentHandler) checkStock(ctx context.Context, basket *domain.Basket) (map[int64]int, error) {
	ids := basket.ProductIDs()
	slices.Sort(ids)

	products, err := h.products.LockForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	quantities := make(map[int64]int, len(basket.Items))
	for _, item := range basket.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		if !product.Covers(item.Quantity) {
			return nil, domain.ErrInsufficientStock
		}
		quantities[item.ProductID] = item.Quantity
	}
	return quantities, nil
}

// fail records reason on the order without touching its status, then
// returns cause to the caller.
func (h *SubmitPaymentHandler) fail(ctx context.Context, order *domain.Order, payment *domain.Payment, reason string, cause error) (PaymentResult, error) {
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := h.orders.GetByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		if locked.Status == domain.StatusPaid {
			order = locked
			return nil
		}
		locked.RecordPaymentError(reason, h.clock.now())
		if err := h.orders.Update(ctx, locked); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return PaymentResult{Order: order, Payment: payment}, errors.Join(cause, err)
	}

	telemetry.RecordEvent(ctx, eventPaymentFailed,
		attribute.Int64("order.id", order.ID),
		attribute.String("payment.error", reason),
	)
	_ = h.events.PublishPaymentFailed(ctx, order.ID, reason)

	return PaymentResult{Order: order, Payment: payment, FailureReason: reason}, cause
}
