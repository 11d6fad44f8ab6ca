package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/shop/internal/shop/app/commands"
	"github.com/dejobratic/shop/internal/shop/app/queries"
	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/metrics"
	"github.com/dejobratic/shop/internal/shop/ports"
)

// Service bundles the storefront use cases exposed through the API.
type Service struct {
	idemStore ports.IdempotencyStore

	addItem            commands.Handler[commands.AddItemCommand, []domain.BasketLine]
	removeItem         commands.Handler[commands.RemoveItemCommand, []domain.BasketLine]
	createOrder        commands.Handler[commands.CreateOrderCommand, *domain.Order]
	setDeliveryDetails commands.Handler[commands.SetDeliveryDetailsCommand, *domain.Order]
	submitPayment      commands.Handler[commands.SubmitPaymentCommand, commands.PaymentResult]

	getBasket        *queries.GetBasketQueryHandler
	getOrder         *queries.GetOrderQueryHandler
	listOrders       *queries.ListOrdersQueryHandler
	getPaymentStatus *queries.GetPaymentStatusQueryHandler
	listCatalog      *queries.ListCatalogQueryHandler
	getProduct       *queries.GetProductQueryHandler
	listSales        *queries.ListSalesQueryHandler
	listTags         *queries.ListTagsQueryHandler
}

// NewService wires required dependencies. clock may be nil.
func NewService(
	repos ports.Repositories,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	m *metrics.Metrics,
	clock commands.Clock,
) *Service {
	return &Service{
		idemStore: idem,

		addItem: commands.NewObservableHandler[commands.AddItemCommand, []domain.BasketLine](
			commands.NewAddItemHandler(repos, clock), logger, m),
		removeItem: commands.NewObservableHandler[commands.RemoveItemCommand, []domain.BasketLine](
			commands.NewRemoveItemHandler(repos), logger, m),
		createOrder: commands.NewObservableHandler[commands.CreateOrderCommand, *domain.Order](
			commands.NewCreateOrderHandler(repos, events, clock), logger, m).
			WithRecorder(func(ctx context.Context, order *domain.Order, err error) {
				if err == nil {
					m.RecordOrderValue(ctx, order.TotalCost.InexactFloat64())
				}
			}),
		setDeliveryDetails: commands.NewObservableHandler[commands.SetDeliveryDetailsCommand, *domain.Order](
			commands.NewSetDeliveryDetailsHandler(repos, events, clock), logger, m),
		submitPayment: commands.NewObservableHandler[commands.SubmitPaymentCommand, commands.PaymentResult](
			commands.NewSubmitPaymentHandler(repos, events, clock), logger, m).
			WithRecorder(func(ctx context.Context, result commands.PaymentResult, err error) {
				if result.Payment == nil && result.FailureReason == "" {
					return
				}
				m.RecordPayment(ctx, err == nil, result.FailureReason)
				if err == nil {
					m.RecordStockDeducted(ctx, result.UnitsDeducted)
				}
			}),

		getBasket:        queries.NewGetBasketQueryHandler(repos.Products, repos.Baskets),
		getOrder:         queries.NewGetOrderQueryHandler(repos.Orders),
		listOrders:       queries.NewListOrdersQueryHandler(repos.Orders),
		getPaymentStatus: queries.NewGetPaymentStatusQueryHandler(repos.Orders, repos.Payments),
		listCatalog:      queries.NewListCatalogQueryHandler(repos.Products),
		getProduct:       queries.NewGetProductQueryHandler(repos.Products),
		listSales:        queries.NewListSalesQueryHandler(repos.Products),
		listTags:         queries.NewListTagsQueryHandler(repos.Products),
	}
}

func (s *Service) AddItem(ctx context.Context, customerID string, productID int64, quantity int) ([]domain.BasketLine, error) {
	return s.addItem.Handle(ctx, commands.AddItemCommand{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	})
}

func (s *Service) RemoveItem(ctx context.Context, customerID string, productID int64, quantity int) ([]domain.BasketLine, error) {
	return s.removeItem.Handle(ctx, commands.RemoveItemCommand{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	})
}

func (s *Service) GetBasket(ctx context.Context, customerID string) ([]domain.BasketLine, error) {
	return s.getBasket.Handle(ctx, queries.GetBasketQuery{CustomerID: customerID})
}

// CreateOrder converts the customer's basket into an order.
func (s *Service) CreateOrder(ctx context.Context, customerID string) (*domain.Order, error) {
	return s.createOrder.Handle(ctx, commands.CreateOrderCommand{CustomerID: customerID})
}

func (s *Service) SetDeliveryDetails(ctx context.Context, customerID string, orderID int64, details domain.DeliveryDetails) (*domain.Order, error) {
	return s.setDeliveryDetails.Handle(ctx, commands.SetDeliveryDetailsCommand{
		CustomerID: customerID,
		OrderID:    orderID,
		Details:    details,
	})
}

// SubmitPayment settles an accepted order with the given card.
func (s *Service) SubmitPayment(ctx context.Context, customerID string, orderID int64, card domain.CardDetails) (*domain.Order, error) {
	result, err := s.submitPayment.Handle(ctx, commands.SubmitPaymentCommand{
		CustomerID: customerID,
		OrderID:    orderID,
		Card:       card,
	})
	return result.Order, err
}

func (s *Service) GetOrder(ctx context.Context, customerID string, orderID int64) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{CustomerID: customerID, OrderID: orderID})
}

func (s *Service) ListOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.listOrders.Handle(ctx, queries.ListOrdersQuery{CustomerID: customerID})
}

func (s *Service) GetPaymentStatus(ctx context.Context, customerID string, orderID int64) (*queries.PaymentStatus, error) {
	return s.getPaymentStatus.Handle(ctx, queries.GetPaymentStatusQuery{CustomerID: customerID, OrderID: orderID})
}

func (s *Service) ListCatalog(ctx context.Context, query queries.ListCatalogQuery) (*domain.Page[domain.Product], error) {
	return s.listCatalog.Handle(ctx, query)
}

func (s *Service) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	return s.getProduct.Handle(ctx, queries.GetProductQuery{ProductID: productID})
}

func (s *Service) ListSales(ctx context.Context, page, limit int) (*domain.Page[domain.Sale], error) {
	return s.listSales.Handle(ctx, queries.ListSalesQuery{Page: page, Limit: limit})
}

func (s *Service) ListTags(ctx context.Context) ([]string, error) {
	return s.listTags.Handle(ctx)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
