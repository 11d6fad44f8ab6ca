package commands

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

// Handler executes a single command.
type Handler[C any, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Command is implemented by every command so the observable decorator can
// name its span and label its metrics.
type Command interface {
	CommandName() string
	Attributes() []attribute.KeyValue
}

// Clock returns the current time. Handlers default to time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func resolveLines(ctx context.Context, products ports.ProductRepository, basket *domain.Basket) ([]domain.BasketLine, error) {
	if basket.IsEmpty() {
		return []domain.BasketLine{}, nil
	}
	live, err := products.GetMany(ctx, basket.ProductIDs())
	if err != nil {
		return nil, err
	}
	return domain.ResolveLines(basket, live)
}
