package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dejobratic/shop/internal/shop/domain"
)

type BasketRepository struct {
	db
}

func (r *BasketRepository) GetByCustomer(ctx context.Context, customerID string) (*domain.Basket, error) {
	return r.get(ctx, customerID, `SELECT id, customer_id, created_at FROM baskets WHERE customer_id = $1`)
}

func (r *BasketRepository) GetByCustomerForUpdate(ctx context.Context, customerID string) (*domain.Basket, error) {
	return r.get(ctx, customerID, `SELECT id, customer_id, created_at FROM baskets WHERE customer_id = $1 FOR UPDATE`)
}

// GetOrCreateForUpdate inserts the basket row if it is missing before locking
// it. The no-op insert blocks on the unique index while another transaction
// holds an uncommitted insert for the same customer.
func (r *BasketRepository) GetOrCreateForUpdate(ctx context.Context, customerID string, now time.Time) (*domain.Basket, error) {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO baskets (customer_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (customer_id) DO NOTHING
	`, customerID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("ensure basket: %w", err)
	}
	return r.GetByCustomerForUpdate(ctx, customerID)
}

func (r *BasketRepository) get(ctx context.Context, customerID, query string) (*domain.Basket, error) {
	var b domain.Basket
	err := r.q(ctx).QueryRow(ctx, query, customerID).Scan(&b.ID, &b.CustomerID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %s: %w", customerID, domain.ErrBasketNotFound)
		}
		return nil, fmt.Errorf("select basket: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx,
		`SELECT product_id, quantity FROM basket_items WHERE basket_id = $1 ORDER BY position`,
		b.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query basket items: %w", err)
	}

	b.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BasketItem, error) {
		var item domain.BasketItem
		err := row.Scan(&item.ProductID, &item.Quantity)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect basket items: %w", err)
	}
	return &b, nil
}

// Save upserts the basket row by customer and replaces its items.
func (r *BasketRepository) Save(ctx context.Context, basket *domain.Basket) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		err := r.q(ctx).QueryRow(ctx, `
			INSERT INTO baskets (customer_id, created_at)
			VALUES ($1, $2)
			ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
			RETURNING id
		`, basket.CustomerID, basket.CreatedAt).Scan(&basket.ID)
		if err != nil {
			return fmt.Errorf("upsert basket: %w", err)
		}

		if _, err := r.q(ctx).Exec(ctx, `DELETE FROM basket_items WHERE basket_id = $1`, basket.ID); err != nil {
			return fmt.Errorf("delete basket items: %w", err)
		}

		if len(basket.Items) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, item := range basket.Items {
			batch.Queue(
				`INSERT INTO basket_items (basket_id, product_id, position, quantity) VALUES ($1, $2, $3, $4)`,
				basket.ID, item.ProductID, i, item.Quantity,
			)
		}
		if err := r.q(ctx).SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert basket items: %w", err)
		}
		return nil
	})
}

func (r *BasketRepository) ClearItems(ctx context.Context, basketID int64) error {
	if _, err := r.q(ctx).Exec(ctx, `DELETE FROM basket_items WHERE basket_id = $1`, basketID); err != nil {
		return fmt.Errorf("clear basket: %w", err)
	}
	return nil
}
