package commands_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/shop/internal/shop/app/commands"
	"github.com/dejobratic/shop/internal/shop/domain"
)

func TestSubmitPayment(t *testing.T) {
	ctx := context.Background()

	pay := func(f *fixture, customer string, orderID int64, card domain.CardDetails) (commands.PaymentResult, error) {
		h := commands.NewSubmitPaymentHandler(f.repos, f.events, clock)
		return h.Handle(ctx, commands.SubmitPaymentCommand{CustomerID: customer, OrderID: orderID, Card: card})
	}

	t.Run("end to end checkout deducts stock and empties the basket", func(t *testing.T) {
		f := newFixture(t, product(1, "1000.00", 10))
		f.addItem(t, "alice", 1, 5)
		order := f.createOrder(t, "alice")
		require.Equal(t, "5000.00", order.TotalCost.StringFixed(2))
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)

		result, err := pay(f, "alice", order.ID, validCard())

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, result.Order.Status)
		assert.Equal(t, 5, result.UnitsDeducted)
		assert.True(t, result.Payment.Success)
		assert.Equal(t, 5, f.stock(t, 1))

		basket, err := f.repos.Baskets.GetByCustomer(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, basket.IsEmpty())

		attempts, err := f.repos.Payments.ListByOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, attempts, 1)
		assert.True(t, attempts[0].Success)
		assert.Equal(t, "************1111", attempts[0].CardNumber)
		assert.Equal(t, "12.27", attempts[0].ValidityPeriod)
		assert.Equal(t, []string{"created", "accepted", "paid"}, f.events.names())
	})

	t.Run("shortfall on one line changes nothing", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10), product(2, "50.00", 3))
		f.addItem(t, "alice", 1, 4)
		f.addItem(t, "alice", 2, 3)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)
		f.store.PutProduct(product(2, "50.00", 2))

		result, err := pay(f, "alice", order.ID, validCard())

		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, 10, f.stock(t, 1))
		assert.Equal(t, 2, f.stock(t, 2))

		stored, err := f.repos.Orders.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAccepted, stored.Status)
		assert.Equal(t, domain.PaymentErrorInsufficientStock, stored.PaymentError)
		assert.Equal(t, domain.PaymentErrorInsufficientStock, result.FailureReason)

		basket, _ := f.repos.Baskets.GetByCustomer(ctx, "alice")
		assert.Len(t, basket.Items, 2)

		attempts, _ := f.repos.Payments.ListByOrder(ctx, order.ID)
		require.Len(t, attempts, 1)
		assert.False(t, attempts[0].Success)
	})

	t.Run("expired card records the error and keeps status", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 1)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)
		card := validCard()
		card.Month, card.Year = "09", "26"

		_, err := pay(f, "alice", order.ID, card)

		assert.ErrorIs(t, err, domain.ErrPaymentExpired)
		stored, _ := f.repos.Orders.GetByID(ctx, order.ID)
		assert.Equal(t, domain.StatusAccepted, stored.Status)
		assert.Equal(t, domain.PaymentErrorExpired, stored.PaymentError)
		assert.Equal(t, 10, f.stock(t, 1))
		attempts, _ := f.repos.Payments.ListByOrder(ctx, order.ID)
		assert.Empty(t, attempts)
		assert.Contains(t, f.events.names(), "payment_failed")
	})

	t.Run("long even card number is rejected", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 1)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)
		card := validCard()
		card.Number = "4111111111111112"

		_, err := pay(f, "alice", order.ID, card)

		assert.ErrorIs(t, err, domain.ErrInvalidCardNumber)
		stored, _ := f.repos.Orders.GetByID(ctx, order.ID)
		assert.Equal(t, domain.StatusAccepted, stored.Status)
		assert.Equal(t, 10, f.stock(t, 1))
	})

	t.Run("order must be accepted first", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 1)
		order := f.createOrder(t, "alice")

		_, err := pay(f, "alice", order.ID, validCard())

		assert.ErrorIs(t, err, domain.ErrInvalidOrderState)
	})

	t.Run("paid order cannot be paid again", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 1)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)
		_, err := pay(f, "alice", order.ID, validCard())
		require.NoError(t, err)

		_, err = pay(f, "alice", order.ID, validCard())

		assert.ErrorIs(t, err, domain.ErrInvalidOrderState)
		assert.Equal(t, 9, f.stock(t, 1))
	})

	t.Run("another customer's order", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 1)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)

		_, err := pay(f, "mallory", order.ID, validCard())

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)

		_, err := pay(f, "alice", 404, validCard())

		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("concurrent payments deduct stock once", func(t *testing.T) {
		f := newFixture(t, product(1, "100.00", 10))
		f.addItem(t, "alice", 1, 6)
		order := f.createOrder(t, "alice")
		f.accept(t, "alice", order.ID, domain.DeliveryStandard)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = pay(f, "alice", order.ID, validCard())
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 4, f.stock(t, 1))
	})
}
