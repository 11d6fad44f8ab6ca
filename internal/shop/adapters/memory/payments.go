package memory

import (
	"context"
	"fmt"

	"github.com/dejobratic/shop/internal/shop/domain"
)

type PaymentRepository struct {
	store *Store
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	defer r.store.lock(ctx)()

	r.store.payments[payment.ID] = *payment
	r.store.paymentSeq = append(r.store.paymentSeq, payment.ID)
	return nil
}

func (r *PaymentRepository) MarkSucceeded(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	p, ok := r.store.payments[id]
	if !ok {
		return fmt.Errorf("payment %s: %w", id, domain.ErrPaymentNotFound)
	}
	p.Success = true
	r.store.payments[id] = p
	return nil
}

// ListByOrder returns attempts in the order they were recorded.
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	defer r.store.lock(ctx)()

	payments := []domain.Payment{}
	for _, id := range r.store.paymentSeq {
		if p := r.store.payments[id]; p.OrderID == orderID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

type PricingRepository struct {
	store *Store
}

func (r *PricingRepository) Get(ctx context.Context) (domain.DeliveryPricing, error) {
	defer r.store.lock(ctx)()

	if r.store.pricing == nil {
		return domain.DeliveryPricing{}, domain.ErrPricingNotConfigured
	}
	return *r.store.pricing, nil
}
