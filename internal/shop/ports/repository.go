package ports

import (
	"context"
	"time"

	"github.com/dejobratic/shop/internal/shop/domain"
)

// ProductRepository reads the catalog and owns stock deduction.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	// LockForUpdate loads the products and holds their rows until the
	// surrounding transaction ends. Rows are locked in ascending ID order.
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	// DeductStock subtracts quantities per product. It fails with
	// domain.ErrInsufficientStock without changing anything when a product
	// cannot cover its quantity.
	DeductStock(ctx context.Context, quantities map[int64]int) error
	Count(ctx context.Context, filter domain.CatalogFilter) (int, error)
	List(ctx context.Context, filter domain.CatalogFilter, limit, offset int) ([]domain.Product, error)
	CountSales(ctx context.Context) (int, error)
	ListSales(ctx context.Context, limit, offset int) ([]domain.Sale, error)
	ListTags(ctx context.Context) ([]string, error)
}

// BasketRepository persists the one basket each customer owns.
type BasketRepository interface {
	GetByCustomer(ctx context.Context, customerID string) (*domain.Basket, error)
	GetByCustomerForUpdate(ctx context.Context, customerID string) (*domain.Basket, error)
	// GetOrCreateForUpdate persists an empty basket for a customer who has none
	// and locks the row, so concurrent first additions queue on it.
	GetOrCreateForUpdate(ctx context.Context, customerID string, now time.Time) (*domain.Basket, error)
	// Save inserts the basket when ID is zero and replaces its lines.
	Save(ctx context.Context, basket *domain.Basket) error
	ClearItems(ctx context.Context, basketID int64) error
}

type OrderRepository interface {
	// Create assigns order.ID.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	MarkSucceeded(ctx context.Context, id string) error
	ListByOrder(ctx context.Context, orderID int64) ([]domain.Payment, error)
}

// PricingRepository returns the delivery pricing configuration. It fails with
// domain.ErrPricingNotConfigured when none exists.
type PricingRepository interface {
	Get(ctx context.Context) (domain.DeliveryPricing, error)
}

// Transactor runs fn in a single transaction. Repositories called with the
// context passed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories bundles the storage ports a backend provides.
type Repositories struct {
	Products   ProductRepository
	Baskets    BasketRepository
	Orders     OrderRepository
	Payments   PaymentRepository
	Pricing    PricingRepository
	Transactor Transactor
}
