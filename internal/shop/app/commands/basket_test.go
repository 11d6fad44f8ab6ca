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

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("creates basket lazily and returns resolved lines", func(t *testing.T) {
		f := newFixture(t, product(1, "1000.00", 10))
		h := commands.NewAddItemHandler(f.repos, clock)

		lines, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 5})

		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 5, lines[0].Quantity)
		assert.Equal(t, "5000.00", domain.TotalCost(lines).StringFixed(2))
		assert.Equal(t, 10, f.stock(t, 1), "adding to basket must not touch stock")
	})

	t.Run("concurrent first additions keep every item", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 10), product(2, "1.00", 10), product(3, "5.00", 10))
		h := commands.NewAddItemHandler(f.repos, clock)

		var wg sync.WaitGroup
		for id := int64(1); id <= 3; id++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: id, Quantity: 1})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		basket, err := f.repos.Baskets.GetByCustomer(ctx, "alice")
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2, 3}, basket.ProductIDs())
	})

	t.Run("merges repeated additions", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 10), product(2, "1.00", 10))
		h := commands.NewAddItemHandler(f.repos, clock)

		_, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 2})
		require.NoError(t, err)
		_, err = h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 2, Quantity: 1})
		require.NoError(t, err)
		lines, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 3})
		require.NoError(t, err)

		require.Len(t, lines, 2)
		assert.Equal(t, int64(1), lines[0].Product.ID)
		assert.Equal(t, 5, lines[0].Quantity)
	})

	t.Run("rejects prospective quantity above stock", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 5))
		h := commands.NewAddItemHandler(f.repos, clock)
		_, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 4})
		require.NoError(t, err)

		_, err = h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 2})

		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		basket, err := f.repos.Baskets.GetByCustomer(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 4, basket.Quantity(1))
	})

	t.Run("does not create a basket when the first add fails", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 1))
		h := commands.NewAddItemHandler(f.repos, clock)

		_, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 2})

		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		_, err = f.repos.Baskets.GetByCustomer(ctx, "alice")
		assert.ErrorIs(t, err, domain.ErrBasketNotFound)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t)
		h := commands.NewAddItemHandler(f.repos, clock)

		_, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 9, Quantity: 1})

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 5))
		h := commands.NewAddItemHandler(f.repos, clock)

		_, err := h.Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 0})

		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements and deletes lines", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 10), product(2, "5.00", 10))
		f.addItem(t, "alice", 1, 5)
		f.addItem(t, "alice", 2, 1)
		h := commands.NewRemoveItemHandler(f.repos)

		lines, err := h.Handle(ctx, commands.RemoveItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, lines[0].Quantity)

		lines, err = h.Handle(ctx, commands.RemoveItemCommand{CustomerID: "alice", ProductID: 2, Quantity: 7})
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, int64(1), lines[0].Product.ID)
	})

	t.Run("adding then removing restores the total", func(t *testing.T) {
		f := newFixture(t, product(1, "19.99", 10))
		f.addItem(t, "alice", 1, 2)
		before, err := commands.NewAddItemHandler(f.repos, clock).Handle(ctx, commands.AddItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 3})
		require.NoError(t, err)

		after, err := commands.NewRemoveItemHandler(f.repos).Handle(ctx, commands.RemoveItemCommand{CustomerID: "alice", ProductID: 1, Quantity: 3})
		require.NoError(t, err)

		assert.Equal(t, "99.95", domain.TotalCost(before).StringFixed(2))
		assert.Equal(t, "39.98", domain.TotalCost(after).StringFixed(2))
	})

	t.Run("customer without basket", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 10))

		_, err := commands.NewRemoveItemHandler(f.repos).Handle(ctx, commands.RemoveItemCommand{CustomerID: "bob", ProductID: 1, Quantity: 1})

		assert.ErrorIs(t, err, domain.ErrBasketNotFound)
	})

	t.Run("product not in basket", func(t *testing.T) {
		f := newFixture(t, product(1, "10.00", 10))
		f.addItem(t, "alice", 1, 1)

		_, err := commands.NewRemoveItemHandler(f.repos).Handle(ctx, commands.RemoveItemCommand{CustomerID: "alice", ProductID: 2, Quantity: 1})

		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})
}
