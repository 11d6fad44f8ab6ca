package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dejobratic/shop/internal/shop/domain"
)

const orderColumns = `
	id, customer_id, basket_id, city, address, delivery_type, payment_type,
	total_cost, status, payment_error, created_at, updated_at
`

type OrderRepository struct {
	db
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		err := r.q(ctx).QueryRow(ctx, `
			INSERT INTO orders (
				customer_id, basket_id, city, address, delivery_type, payment_type,
				total_cost, status, payment_error, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id
		`,
			order.CustomerID,
			order.BasketID,
			order.City,
			order.Address,
			order.DeliveryType,
			order.PaymentType,
			order.TotalCost,
			order.Status,
			order.PaymentError,
			order.CreatedAt,
			order.UpdatedAt,
		).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, line := range order.Lines {
			batch.Queue(`
				INSERT INTO order_lines (order_id, product_id, position, title, unit_price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, order.ID, line.ProductID, i, line.Title, line.UnitPrice, line.Quantity)
		}
		if err := r.q(ctx).SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order lines: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, id, `SELECT `+orderColumns+` FROM orders WHERE id = $1`)
}

func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, id, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`)
}

func (r *OrderRepository) get(ctx context.Context, id int64, query string) (*domain.Order, error) {
	order, err := scanOrder(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.lines(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[id]
	return &order, nil
}

// Update persists the mutable fields. Lines are fixed at creation.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE orders
		SET city = $2, address = $3, delivery_type = $4, payment_type = $5,
			total_cost = $6, status = $7, payment_error = $8, updated_at = $9
		WHERE id = $1
	`,
		order.ID,
		order.City,
		order.Address,
		order.DeliveryType,
		order.PaymentType,
		order.TotalCost,
		order.Status,
		order.PaymentError,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrOrderNotFound)
	}
	return nil
}

// ListByCustomer returns orders newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY id DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("collect orders: %w", err)
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *OrderRepository) lines(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderLine, error) {
	result := make(map[int64][]domain.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := r.q(ctx).Query(ctx, `
		SELECT order_id, product_id, title, unit_price, quantity
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var line domain.OrderLine
		if err := rows.Scan(&orderID, &line.ProductID, &line.Title, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		result[orderID] = append(result[orderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return result, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.BasketID,
		&o.City,
		&o.Address,
		&o.DeliveryType,
		&o.PaymentType,
		&o.TotalCost,
		&o.Status,
		&o.PaymentError,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}
