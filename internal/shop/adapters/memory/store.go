package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

type txKey struct{}

type saleRecord struct {
	ProductID int64
	DateFrom  time.Time
	DateTo    time.Time
	Discount  decimal.Decimal
}

// Store is an in-memory backend useful for local development and tests.
// A single mutex serialises every repository call. WithinTransaction holds
// it for the whole callback and restores a snapshot when the callback fails.
type Store struct {
	mu sync.Mutex

	products   map[int64]domain.Product
	rates      map[int64][]int
	sales      []saleRecord
	baskets    map[int64]domain.Basket
	byCustomer map[string]int64
	orders     map[int64]domain.Order
	payments   map[string]domain.Payment
	paymentSeq []string
	pricing    *domain.DeliveryPricing

	nextBasketID int64
	nextOrderID  int64
}

func NewStore() *Store {
	return &Store{
		products:   make(map[int64]domain.Product),
		rates:      make(map[int64][]int),
		baskets:    make(map[int64]domain.Basket),
		byCustomer: make(map[string]int64),
		orders:     make(map[int64]domain.Order),
		payments:   make(map[string]domain.Payment),
	}
}

// Repositories exposes the store through the storage ports.
func (s *Store) Repositories() ports.Repositories {
	return ports.Repositories{
		Products:   &ProductRepository{store: s},
		Baskets:    &BasketRepository{store: s},
		Orders:     &OrderRepository{store: s},
		Payments:   &PaymentRepository{store: s},
		Pricing:    &PricingRepository{store: s},
		Transactor: s,
	}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store mutex unless ctx already runs inside one of its
// transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTransaction(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// PutProduct inserts or replaces a catalog entry.
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.products[p.ID] = cloneProduct(p)
}

func (s *Store) AddReview(productID int64, rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[productID] = append(s.rates[productID], rate)
}

func (s *Store) PutSale(productID int64, from, to time.Time, discount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, saleRecord{ProductID: productID, DateFrom: from, DateTo: to, Discount: discount})
}

func (s *Store) SetPricing(p domain.DeliveryPricing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pricing = &p
}

type snapshot struct {
	products     map[int64]domain.Product
	baskets      map[int64]domain.Basket
	byCustomer   map[string]int64
	orders       map[int64]domain.Order
	payments     map[string]domain.Payment
	paymentSeq   []string
	nextBasketID int64
	nextOrderID  int64
}

// snapshot copies the state a checkout transaction may write. Catalog
// metadata (reviews, sales, pricing) is read-only inside transactions.
func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products:     make(map[int64]domain.Product, len(s.products)),
		baskets:      make(map[int64]domain.Basket, len(s.baskets)),
		byCustomer:   maps.Clone(s.byCustomer),
		orders:       make(map[int64]domain.Order, len(s.orders)),
		payments:     maps.Clone(s.payments),
		paymentSeq:   append([]string(nil), s.paymentSeq...),
		nextBasketID: s.nextBasketID,
		nextOrderID:  s.nextOrderID,
	}
	for id, p := range s.products {
		snap.products[id] = cloneProduct(p)
	}
	for id, b := range s.baskets {
		snap.baskets[id] = cloneBasket(b)
	}
	for id, o := range s.orders {
		snap.orders[id] = cloneOrder(o)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.baskets = snap.baskets
	s.byCustomer = snap.byCustomer
	s.orders = snap.orders
	s.payments = snap.payments
	s.paymentSeq = snap.paymentSeq
	s.nextBasketID = snap.nextBasketID
	s.nextOrderID = snap.nextOrderID
}

func cloneProduct(p domain.Product) domain.Product {
	p.Tags = append([]string(nil), p.Tags...)
	return p
}

func cloneBasket(b domain.Basket) domain.Basket {
	b.Items = append([]domain.BasketItem(nil), b.Items...)
	return b
}

func cloneOrder(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return o
}
