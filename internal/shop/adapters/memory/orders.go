package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dejobratic/shop/internal/shop/domain"
)

type OrderRepository struct {
	store *Store
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	defer r.store.lock(ctx)()

	r.store.nextOrderID++
	order.ID = r.store.nextOrderID
	r.store.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	defer r.store.lock(ctx)()

	o, ok := r.store.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.orders[order.ID]; !ok {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrOrderNotFound)
	}
	r.store.orders[order.ID] = cloneOrder(*order)
	return nil
}

// ListByCustomer returns orders newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	defer r.store.lock(ctx)()

	orders := []domain.Order{}
	for _, o := range r.store.orders {
		if o.CustomerID == customerID {
			orders = append(orders, cloneOrder(o))
		}
	}
	slices.SortFunc(orders, func(a, b domain.Order) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return orders, nil
}
