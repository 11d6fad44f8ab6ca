package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/database"
	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
	"github.com/dejobratic/shop/internal/telemetry"
)

// ObserveRepositories wraps every repository with tracing and query metrics.
func ObserveRepositories(repos ports.Repositories, metrics *database.Metrics) ports.Repositories {
	return ports.Repositories{
		Products:   &ObservableProductRepository{repo: repos.Products, metrics: metrics},
		Baskets:    &ObservableBasketRepository{repo: repos.Baskets, metrics: metrics},
		Orders:     &ObservableOrderRepository{repo: repos.Orders, metrics: metrics},
		Payments:   &ObservablePaymentRepository{repo: repos.Payments, metrics: metrics},
		Pricing:    &ObservablePricingRepository{repo: repos.Pricing, metrics: metrics},
		Transactor: &ObservableTransactor{tx: repos.Transactor, metrics: metrics},
	}
}

type ObservableProductRepository struct {
	repo    ports.ProductRepository
	metrics *database.Metrics
}

func (r *ObservableProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return observe(ctx, r.metrics, "ProductRepository.GetByID", "get_product_by_id",
		[]attribute.KeyValue{attribute.Int64("product.id", id)},
		func(ctx context.Context) (*domain.Product, error) { return r.repo.GetByID(ctx, id) })
}

func (r *ObservableProductRepository) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	return observe(ctx, r.metrics, "ProductRepository.GetMany", "get_products",
		[]attribute.KeyValue{attribute.Int64Slice("product.ids", ids)},
		func(ctx context.Context) (map[int64]domain.Product, error) { return r.repo.GetMany(ctx, ids) })
}

func (r *ObservableProductRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	return observe(ctx, r.metrics, "ProductRepository.LockForUpdate", "lock_products",
		[]attribute.KeyValue{attribute.Int64Slice("product.ids", ids)},
		func(ctx context.Context) (map[int64]domain.Product, error) { return r.repo.LockForUpdate(ctx, ids) })
}

func (r *ObservableProductRepository) DeductStock(ctx context.Context, quantities map[int64]int) error {
	return observeErr(ctx, r.metrics, "ProductRepository.DeductStock", "deduct_stock",
		[]attribute.KeyValue{attribute.Int("product.count", len(quantities))},
		func(ctx context.Context) error { return r.repo.DeductStock(ctx, quantities) })
}

func (r *ObservableProductRepository) Count(ctx context.Context, filter domain.CatalogFilter) (int, error) {
	return observe(ctx, r.metrics, "ProductRepository.Count", "count_products",
		filterAttributes(filter),
		func(ctx context.Context) (int, error) { return r.repo.Count(ctx, filter) })
}

func (r *ObservableProductRepository) List(ctx context.Context, filter domain.CatalogFilter, limit, offset int) ([]domain.Product, error) {
	attrs := append(filterAttributes(filter), attribute.Int("limit", limit), attribute.Int("offset", offset))
	return observe(ctx, r.metrics, "ProductRepository.List", "list_products", attrs,
		func(ctx context.Context) ([]domain.Product, error) { return r.repo.List(ctx, filter, limit, offset) })
}

func (r *ObservableProductRepository) CountSales(ctx context.Context) (int, error) {
	return observe(ctx, r.metrics, "ProductRepository.CountSales", "count_sales", nil,
		func(ctx context.Context) (int, error) { return r.repo.CountSales(ctx) })
}

func (r *ObservableProductRepository) ListSales(ctx context.Context, limit, offset int) ([]domain.Sale, error) {
	return observe(ctx, r.metrics, "ProductRepository.ListSales", "list_sales",
		[]attribute.KeyValue{attribute.Int("limit", limit), attribute.Int("offset", offset)},
		func(ctx context.Context) ([]domain.Sale, error) { return r.repo.ListSales(ctx, limit, offset) })
}

func (r *ObservableProductRepository) ListTags(ctx context.Context) ([]string, error) {
	return observe(ctx, r.metrics, "ProductRepository.ListTags", "list_tags", nil,
		func(ctx context.Context) ([]string, error) { return r.repo.ListTags(ctx) })
}

func filterAttributes(f domain.CatalogFilter) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("filter.category", f.CategoryID),
		attribute.String("filter.sort", string(f.Sort)),
		attribute.Bool("filter.descending", f.Descending),
		attribute.Bool("filter.available", f.Available),
		attribute.StringSlice("filter.tags", f.Tags),
	}
}

type ObservableBasketRepository struct {
	repo    ports.BasketRepository
	metrics *database.Metrics
}

func (r *ObservableBasketRepository) GetByCustomer(ctx context.Context, customerID string) (*domain.Basket, error) {
	return observe(ctx, r.metrics, "BasketRepository.GetByCustomer", "get_basket",
		[]attribute.KeyValue{attribute.String("customer.id", customerID)},
		func(ctx context.Context) (*domain.Basket, error) { return r.repo.GetByCustomer(ctx, customerID) })
}

func (r *ObservableBasketRepository) GetByCustomerForUpdate(ctx context.Context, customerID string) (*domain.Basket, error) {
	return observe(ctx, r.metrics, "BasketRepository.GetByCustomerForUpdate", "lock_basket",
		[]attribute.KeyValue{attribute.String("customer.id", customerID)},
		func(ctx context.Context) (*domain.Basket, error) { return r.repo.GetByCustomerForUpdate(ctx, customerID) })
}

func (r *ObservableBasketRepository) GetOrCreateForUpdate(ctx context.Context, customerID string, now time.Time) (*domain.Basket, error) {
	return observe(ctx, r.metrics, "BasketRepository.GetOrCreateForUpdate", "ensure_basket",
		[]attribute.KeyValue{attribute.String("customer.id", customerID)},
		func(ctx context.Context) (*domain.Basket, error) {
			return r.repo.GetOrCreateForUpdate(ctx, customerID, now)
		})
}

func (r *ObservableBasketRepository) Save(ctx context.Context, basket *domain.Basket) error {
	return observeErr(ctx, r.metrics, "BasketRepository.Save", "save_basket",
		[]attribute.KeyValue{
			attribute.String("customer.id", basket.CustomerID),
			attribute.Int("basket.items", len(basket.Items)),
		},
		func(ctx context.Context) error { return r.repo.Save(ctx, basket) })
}

func (r *ObservableBasketRepository) ClearItems(ctx context.Context, basketID int64) error {
	return observeErr(ctx, r.metrics, "BasketRepository.ClearItems", "clear_basket",
		[]attribute.KeyValue{attribute.Int64("basket.id", basketID)},
		func(ctx context.Context) error { return r.repo.ClearItems(ctx, basketID) })
}

type ObservableOrderRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func (r *ObservableOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return observeErr(ctx, r.metrics, "OrderRepository.Create", "create_order",
		[]attribute.KeyValue{attribute.String("customer.id", order.CustomerID)},
		func(ctx context.Context) error { return r.repo.Create(ctx, order) })
}

func (r *ObservableOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return observe(ctx, r.metrics, "OrderRepository.GetByID", "get_order_by_id",
		[]attribute.KeyValue{attribute.Int64("order.id", id)},
		func(ctx context.Context) (*domain.Order, error) { return r.repo.GetByID(ctx, id) })
}

func (r *ObservableOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return observe(ctx, r.metrics, "OrderRepository.GetByIDForUpdate", "lock_order",
		[]attribute.KeyValue{attribute.Int64("order.id", id)},
		func(ctx context.Context) (*domain.Order, error) { return r.repo.GetByIDForUpdate(ctx, id) })
}

func (r *ObservableOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return observeErr(ctx, r.metrics, "OrderRepository.Update", "update_order",
		[]attribute.KeyValue{
			attribute.Int64("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
		},
		func(ctx context.Context) error { return r.repo.Update(ctx, order) })
}

func (r *ObservableOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return observe(ctx, r.metrics, "OrderRepository.ListByCustomer", "list_orders",
		[]attribute.KeyValue{attribute.String("customer.id", customerID)},
		func(ctx context.Context) ([]domain.Order, error) { return r.repo.ListByCustomer(ctx, customerID) })
}

type ObservablePaymentRepository struct {
	repo    ports.PaymentRepository
	metrics *database.Metrics
}

func (r *ObservablePaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return observeErr(ctx, r.metrics, "PaymentRepository.Create", "create_payment",
		[]attribute.KeyValue{
			attribute.String("payment.id", payment.ID),
			attribute.Int64("order.id", payment.OrderID),
		},
		func(ctx context.Context) error { return r.repo.Create(ctx, payment) })
}

func (r *ObservablePaymentRepository) MarkSucceeded(ctx context.Context, id string) error {
	return observeErr(ctx, r.metrics, "PaymentRepository.MarkSucceeded", "mark_payment_succeeded",
		[]attribute.KeyValue{attribute.String("payment.id", id)},
		func(ctx context.Context) error { return r.repo.MarkSucceeded(ctx, id) })
}

func (r *ObservablePaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	return observe(ctx, r.metrics, "PaymentRepository.ListByOrder", "list_payments",
		[]attribute.KeyValue{attribute.Int64("order.id", orderID)},
		func(ctx context.Context) ([]domain.Payment, error) { return r.repo.ListByOrder(ctx, orderID) })
}

type ObservablePricingRepository struct {
	repo    ports.PricingRepository
	metrics *database.Metrics
}

func (r *ObservablePricingRepository) Get(ctx context.Context) (domain.DeliveryPricing, error) {
	return observe(ctx, r.metrics, "PricingRepository.Get", "get_delivery_pricing", nil,
		func(ctx context.Context) (domain.DeliveryPricing, error) { return r.repo.Get(ctx) })
}

type ObservableTransactor struct {
	tx      ports.Transactor
	metrics *database.Metrics
}

func (t *ObservableTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "Transactor.WithinTransaction")
	defer span.End()

	start := time.Now()
	err := t.tx.WithinTransaction(ctx, fn)
	t.metrics.RecordTransaction(ctx, err == nil, time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
