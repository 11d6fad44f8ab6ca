package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dejobratic/shop/internal/shop/app/commands"
	"github.com/dejobratic/shop/internal/shop/domain"
)

func TestSubmitPaymentSpanEvents(t *testing.T) {
	payTraced := func(t *testing.T, f *fixture, orderID int64, card domain.CardDetails) sdktrace.ReadOnlySpan {
		t.Helper()
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("test").Start(context.Background(), "SubmitPaymentCommand.Handle")
		h := commands.NewSubmitPaymentHandler(f.repos, f.events, clock)
		_, _ = h.Handle(ctx, commands.SubmitPaymentCommand{CustomerID: "alice", OrderID: orderID, Card: card})
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		return spans[0]
	}

	t.Run("successful payment records the deducted stock", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10), product(2, "20.00", 10))
		f.addItem(t, "alice", 1, 2)
		f.addItem(t, "alice", 2, 3)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)

		span := payTraced(t, f, order.ID, validCard())

		require.Len(t, span.Events(), 1)
		event := span.Events()[0]
		assert.Equal(t, "stock.deducted", event.Name)
		assert.Contains(t, event.Attributes, attribute.Int64("order.id", order.ID))
		assert.Contains(t, event.Attributes, attribute.Int("stock.lines", 2))
		assert.Contains(t, event.Attributes, attribute.Int("stock.units", 5))
	})

	t.Run("stock shortfall records the failure reason", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 4)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)
		f.store.PutProduct(product(1, "100.00", 1))

		span := payTraced(t, f, order.ID, validCard())

		require.Len(t, span.Events(), 1)
		event := span.Events()[0]
		assert.Equal(t, "payment.failed", event.Name)
		assert.Contains(t, event.Attributes, attribute.String("payment.error", domain.PaymentErrorInsufficientStock))
	})

	t.Run("expired card records the failure reason", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 1)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)
		card := validCard()
		card.Year = "25"

		span := payTraced(t, f, order.ID, card)

		require.Len(t, span.Events(), 1)
		assert.Equal(t, "payment.failed", span.Events()[0].Name)
		assert.Contains(t, span.Events()[0].Attributes, attribute.String("payment.error", domain.PaymentErrorExpired))
	})
}
