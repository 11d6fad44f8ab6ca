package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/shop/internal/shop/adapters/memory"
	"github.com/dejobratic/shop/internal/shop/app/commands"
	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type recordedEvent struct {
	name    string
	orderID int64
	reason  string
}

type recordingEventBus struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingEventBus) record(name string, orderID int64, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{name: name, orderID: orderID, reason: reason})
	return nil
}

func (b *recordingEventBus) PublishOrderCreated(_ context.Context, orderID int64) error {
	return b.record("created", orderID, "")
}

func (b *recordingEventBus) PublishOrderAccepted(_ context.Context, orderID int64) error {
	return b.record("accepted", orderID, "")
}

func (b *recordingEventBus) PublishOrderPaid(_ context.Context, orderID int64) error {
	return b.record("paid", orderID, "")
}

func (b *recordingEventBus) PublishPaymentFailed(_ context.Context, orderID int64, reason string) error {
	return b.record("payment_failed", orderID, reason)
}

func (b *recordingEventBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.events))
	for _, e := range b.events {
		names = append(names, e.name)
	}
	return names
}

type fixture struct {
	store  *memory.Store
	repos  ports.Repositories
	events *recordingEventBus
}

// newFixture seeds a free-delivery threshold of 1000.00, standard delivery
// 200.00, express 500.00 and the given products.
func newFixture(t *testing.T, products ...domain.Product) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetPricing(domain.DeliveryPricing{
		StandardCost: decimal.RequireFromString("200.00"),
		ExpressCost:  decimal.RequireFromString("500.00"),
		FreeMinimum:  decimal.RequireFromString("1000.00"),
	})
	for _, p := range products {
		store.PutProduct(p)
	}
	return &fixture{store: store, repos: store.Repositories(), events: &recordingEventBus{}}
}

func product(id int64, price string, count int) domain.Product {
	return domain.Product{ID: id, Title: "product", Price: decimal.RequireFromString(price), Count: count}
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%d) failed: %v", id, err)
	}
	return p.Count
}

func (f *fixture) addItem(t *testing.T, customer string, productID int64, qty int) {
	t.Helper()
	h := commands.NewAddItemHandler(f.repos, clock)
	if _, err := h.Handle(context.Background(), commands.AddItemCommand{CustomerID: customer, ProductID: productID, Quantity: qty}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
}

func (f *fixture) createOrder(t *testing.T, customer string) *domain.Order {
	t.Helper()
	h := commands.NewCreateOrderHandler(f.repos, f.events, clock)
	order, err := h.Handle(context.Background(), commands.CreateOrderCommand{CustomerID: customer})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	return order
}

func (f *fixture) accept(t *testing.T, customer string, orderID int64, delivery domain.DeliveryType) *domain.Order {
	t.Helper()
	h := commands.NewSetDeliveryDetailsHandler(f.repos, f.events, clock)
	order, err := h.Handle(context.Background(), commands.SetDeliveryDetailsCommand{
		CustomerID: customer,
		OrderID:    orderID,
		Details: domain.DeliveryDetails{
			DeliveryType: delivery,
			PaymentType:  domain.PaymentOnline,
			City:         "Moscow",
			Address:      "Tverskaya 1",
		},
	})
	if err != nil {
		t.Fatalf("SetDeliveryDetails failed: %v", err)
	}
	return order
}

func validCard() domain.CardDetails {
	return domain.CardDetails{
		Number:     "4111111111111111",
		Month:      "12",
		Year:       "27",
		CVV:        "123",
		HolderName: "Ivan Ivanov",
	}
}
