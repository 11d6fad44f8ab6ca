package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dejobratic/shop/internal/shop/domain"
)

type PaymentRepository struct {
	db
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO payments (id, order_id, card_number, validity_period, success, created_at)
		VALUES ($1::text::uuid, $2, $3, $4, $5, $6)
	`,
		payment.ID,
		payment.OrderID,
		payment.CardNumber,
		payment.ValidityPeriod,
		payment.Success,
		payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) MarkSucceeded(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx, `UPDATE payments SET success = TRUE WHERE id = $1::text::uuid`, id)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", id, domain.ErrPaymentNotFound)
	}
	return nil
}

// ListByOrder returns attempts in the order they were recorded.
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT id::text, order_id, card_number, validity_period, success, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}

	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Payment, error) {
		var p domain.Payment
		err := row.Scan(&p.ID, &p.OrderID, &p.CardNumber, &p.ValidityPeriod, &p.Success, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect payments: %w", err)
	}
	return payments, nil
}

type PricingRepository struct {
	db
}

func (r *PricingRepository) Get(ctx context.Context) (domain.DeliveryPricing, error) {
	var p domain.DeliveryPricing
	err := r.q(ctx).QueryRow(ctx,
		`SELECT standard_cost, express_cost, free_minimum FROM delivery_pricing WHERE id`,
	).Scan(&p.StandardCost, &p.ExpressCost, &p.FreeMinimum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DeliveryPricing{}, domain.ErrPricingNotConfigured
		}
		return domain.DeliveryPricing{}, fmt.Errorf("select delivery pricing: %w", err)
	}
	return p, nil
}
