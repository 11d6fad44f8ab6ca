package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/shop/internal/shop/domain"
)

type BasketRepository struct {
	store *Store
}

func (r *BasketRepository) GetByCustomer(ctx context.Context, customerID string) (*domain.Basket, error) {
	defer r.store.lock(ctx)()

	id, ok := r.store.byCustomer[customerID]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", customerID, domain.ErrBasketNotFound)
	}
	b := cloneBasket(r.store.baskets[id])
	return &b, nil
}

func (r *BasketRepository) GetByCustomerForUpdate(ctx context.Context, customerID string) (*domain.Basket, error) {
	return r.GetByCustomer(ctx, customerID)
}

func (r *BasketRepository) GetOrCreateForUpdate(ctx context.Context, customerID string, now time.Time) (*domain.Basket, error) {
	defer r.store.lock(ctx)()

	id, ok := r.store.byCustomer[customerID]
	if !ok {
		r.store.nextBasketID++
		id = r.store.nextBasketID
		b := domain.NewBasket(customerID, now)
		b.ID = id
		r.store.baskets[id] = *b
		r.store.byCustomer[customerID] = id
	}
	b := cloneBasket(r.store.baskets[id])
	return &b, nil
}

func (r *BasketRepository) Save(ctx context.Context, basket *domain.Basket) error {
	defer r.store.lock(ctx)()

	if basket.ID == 0 {
		if existing, ok := r.store.byCustomer[basket.CustomerID]; ok {
			basket.ID = existing
		} else {
			r.store.nextBasketID++
			basket.ID = r.store.nextBasketID
		}
	}
	r.store.baskets[basket.ID] = cloneBasket(*basket)
	r.store.byCustomer[basket.CustomerID] = basket.ID
	return nil
}

func (r *BasketRepository) ClearItems(ctx context.Context, basketID int64) error {
	defer r.store.lock(ctx)()

	b, ok := r.store.baskets[basketID]
	if !ok {
		return fmt.Errorf("basket %d: %w", basketID, domain.ErrBasketNotFound)
	}
	b.Items = nil
	r.store.baskets[basketID] = b
	return nil
}
