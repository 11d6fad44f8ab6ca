// Package postgres stores the storefront in PostgreSQL. Checkout writes run
// inside the transaction carried by the context and take row locks in a
// fixed order: order, basket, products by ascending ID.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shop/internal/shop/ports"
)

type txKey struct{}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type db struct {
	pool *pgxpool.Pool
}

// q returns the transaction bound to ctx, or the pool outside a transaction.
func (d db) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return d.pool
}

func (d db) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}

// Transactor runs callbacks inside a single database transaction. Nested
// calls join the outer transaction.
type Transactor struct {
	db
}

// NewRepositories builds every storage port on top of pool.
func NewRepositories(pool *pgxpool.Pool) ports.Repositories {
	d := db{pool: pool}
	return ports.Repositories{
		Products:   &ProductRepository{db: d},
		Baskets:    &BasketRepository{db: d},
		Orders:     &OrderRepository{db: d},
		Payments:   &PaymentRepository{db: d},
		Pricing:    &PricingRepository{db: d},
		Transactor: &Transactor{db: d},
	}
}
