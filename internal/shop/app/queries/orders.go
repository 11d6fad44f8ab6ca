package queries

import (
	"cmp"
	"context"
	"slices"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

// GetOrderQuery represents a request to retrieve one of the customer's orders.
type GetOrderQuery struct {
	CustomerID string
	OrderID    int64
}

type GetOrderQueryHandler struct {
	orders ports.OrderRepository
}

func NewGetOrderQueryHandler(orders ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{orders: orders}
}

func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	return ownedOrder(ctx, h.orders, query.CustomerID, query.OrderID)
}

type ListOrdersQuery struct {
	CustomerID string
}

type ListOrdersQueryHandler struct {
	orders ports.OrderRepository
}

func NewListOrdersQueryHandler(orders ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{orders: orders}
}

// Handle returns the customer's orders, newest first.
func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	orders, err := h.orders.ListByCustomer(ctx, query.CustomerID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return orders, nil
}

type GetPaymentStatusQuery struct {
	CustomerID string
	OrderID    int64
}

// PaymentStatus is the order status verbatim plus the recorded attempts.
type PaymentStatus struct {
	Status   domain.OrderStatus
	Error    string
	Attempts []domain.Payment
}

type GetPaymentStatusQueryHandler struct {
	orders   ports.OrderRepository
	payments ports.PaymentRepository
}

func NewGetPaymentStatusQueryHandler(orders ports.OrderRepository, payments ports.PaymentRepository) *GetPaymentStatusQueryHandler {
	return &GetPaymentStatusQueryHandler{orders: orders, payments: payments}
}

func (h *GetPaymentStatusQueryHandler) Handle(ctx context.Context, query GetPaymentStatusQuery) (*PaymentStatus, error) {
	order, err := ownedOrder(ctx, h.orders, query.CustomerID, query.OrderID)
	if err != nil {
		return nil, err
	}

	attempts, err := h.payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &PaymentStatus{
		Status:   order.Status,
		Error:    order.PaymentError,
		Attempts: attempts,
	}, nil
}

func ownedOrder(ctx context.Context, orders ports.OrderRepository, customerID string, orderID int64) (*domain.Order, error) {
	order, err := orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(customerID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}
