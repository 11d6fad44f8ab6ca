package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/dejobratic/shop/internal/shop/domain"
)

type ProductRepository struct {
	store *Store
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	defer r.store.lock(ctx)()

	p, ok := r.store.product(id)
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
	}
	return &p, nil
}

// GetMany skips unknown identifiers.
func (r *ProductRepository) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	defer r.store.lock(ctx)()

	result := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.store.product(id); ok {
			result[id] = p
		}
	}
	return result, nil
}

// LockForUpdate behaves like GetMany. Callers hold the store lock through
// WithinTransaction.
func (r *ProductRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	return r.GetMany(ctx, ids)
}

func (r *ProductRepository) DeductStock(ctx context.Context, quantities map[int64]int) error {
	defer r.store.lock(ctx)()

	for id, q := range quantities {
		p, ok := r.store.products[id]
		if !ok {
			return fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
		}
		if !p.Covers(q) {
			return fmt.Errorf("product %d: %w", id, domain.ErrInsufficientStock)
		}
	}
	for id, q := range quantities {
		p := r.store.products[id]
		p.Count -= q
		r.store.products[id] = p
	}
	return nil
}

func (r *ProductRepository) Count(ctx context.Context, filter domain.CatalogFilter) (int, error) {
	defer r.store.lock(ctx)()
	return len(r.store.matching(filter)), nil
}

func (r *ProductRepository) List(ctx context.Context, filter domain.CatalogFilter, limit, offset int) ([]domain.Product, error) {
	defer r.store.lock(ctx)()

	matched := r.store.matching(filter)
	slices.SortFunc(matched, func(a, b domain.Product) int {
		switch {
		case filter.Less(a, b):
			return -1
		case filter.Less(b, a):
			return 1
		}
		return 0
	})
	return window(matched, limit, offset), nil
}

func (r *ProductRepository) CountSales(ctx context.Context) (int, error) {
	defer r.store.lock(ctx)()
	return len(r.store.sales), nil
}

// ListSales returns sales in insertion order.
func (r *ProductRepository) ListSales(ctx context.Context, limit, offset int) ([]domain.Sale, error) {
	defer r.store.lock(ctx)()

	sales := make([]domain.Sale, 0, len(r.store.sales))
	for _, rec := range r.store.sales {
		p, ok := r.store.product(rec.ProductID)
		if !ok {
			continue
		}
		sales = append(sales, domain.Sale{
			Product:  p,
			DateFrom: rec.DateFrom,
			DateTo:   rec.DateTo,
			Discount: rec.Discount,
		})
	}
	return window(sales, limit, offset), nil
}

func (r *ProductRepository) ListTags(ctx context.Context) ([]string, error) {
	defer r.store.lock(ctx)()

	var tags []string
	for _, p := range r.store.products {
		tags = append(tags, p.Tags...)
	}
	slices.Sort(tags)
	return slices.Compact(tags), nil
}

// product returns a copy with its rating derived from reviews. Callers hold the lock.
func (s *Store) product(id int64) (domain.Product, bool) {
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, false
	}
	p = cloneProduct(p)
	p.Rating = domain.AverageRating(s.rates[id])
	return p, true
}

func (s *Store) matching(filter domain.CatalogFilter) []domain.Product {
	var matched []domain.Product
	for id := range s.products {
		p, _ := s.product(id)
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}
	return matched
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return slices.Clone(items[offset:end])
}
