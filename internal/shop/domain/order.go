package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order: in_progress -> accepted -> paid.
type OrderStatus string

const (
	StatusInProgress OrderStatus = "in_progress"
	StatusAccepted   OrderStatus = "accepted"
	StatusPaid       OrderStatus = "paid"
)

type DeliveryType string

const (
	DeliveryStandard DeliveryType = "delivery"
	DeliveryExpress  DeliveryType = "express"
)

func (t DeliveryType) Valid() bool {
	return t == DeliveryStandard || t == DeliveryExpress
}

type PaymentType string

const (
	PaymentOnline    PaymentType = "online"
	PaymentOnlineAny PaymentType = "online_any"
)

func (t PaymentType) Valid() bool {
	return t == PaymentOnline || t == PaymentOnlineAny
}

// OrderLine is a product snapshot captured when the order was built.
type OrderLine struct {
	ProductID int64
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Order is built once from a basket and then walks the status machine.
type Order struct {
	ID           int64
	CustomerID   string
	BasketID     int64
	Lines        []OrderLine
	City         string
	Address      string
	DeliveryType DeliveryType
	PaymentType  PaymentType
	TotalCost    decimal.Decimal
	Status       OrderStatus
	PaymentError string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeliveryDetails is the checkout form submitted after order creation.
type DeliveryDetails struct {
	DeliveryType DeliveryType
	PaymentType  PaymentType
	City         string
	Address      string
}

func (d DeliveryDetails) Validate() error {
	if !d.DeliveryType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDeliveryType, d.DeliveryType)
	}
	if !d.PaymentType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentType, d.PaymentType)
	}
	return nil
}

// NewOrder snapshots the basket lines and prices the order. An empty basket
// cannot produce an order.
func NewOrder(customerID string, basket *Basket, lines []BasketLine, pricing DeliveryPricing, now time.Time) (*Order, error) {
	if basket == nil || basket.IsEmpty() || len(lines) == 0 {
		return nil, ErrNoBasket
	}

	snapshot := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		snapshot = append(snapshot, OrderLine{
			ProductID: line.Product.ID,
			Title:     line.Product.Title,
			UnitPrice: line.Product.Price,
			Quantity:  line.Quantity,
		})
	}

	now = now.UTC()
	return &Order{
		CustomerID:   customerID,
		BasketID:     basket.ID,
		Lines:        snapshot,
		DeliveryType: DeliveryStandard,
		PaymentType:  PaymentOnline,
		TotalCost:    pricing.TotalWithDelivery(TotalCost(lines)),
		Status:       StatusInProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// OwnedBy reports whether customerID placed the order.
func (o *Order) OwnedBy(customerID string) bool {
	return o.CustomerID == customerID
}

// ApplyDeliveryDetails records the checkout form and moves the order to
// accepted. Express delivery adds its surcharge on every call, so a repeated
// express submission is charged twice.
func (o *Order) ApplyDeliveryDetails(d DeliveryDetails, pricing DeliveryPricing, now time.Time) error {
	if o.Status == StatusPaid {
		return fmt.Errorf("order %d is %s: %w", o.ID, o.Status, ErrInvalidOrderState)
	}
	if err := d.Validate(); err != nil {
		return err
	}

	o.TotalCost = o.TotalCost.Add(pricing.Surcharge(d.DeliveryType))
	o.DeliveryType = d.DeliveryType
	o.PaymentType = d.PaymentType
	o.City = strings.TrimSpace(d.City)
	o.Address = strings.TrimSpace(d.Address)
	o.Status = StatusAccepted
	o.touch(now)
	return nil
}

// CanPay reports whether a payment may be attempted.
func (o *Order) CanPay() error {
	if o.Status != StatusAccepted {
		return fmt.Errorf("order %d is %s: %w", o.ID, o.Status, ErrInvalidOrderState)
	}
	return nil
}

// RecordPaymentError stores the failure reason without changing the status.
func (o *Order) RecordPaymentError(reason string, now time.Time) {
	o.PaymentError = reason
	o.touch(now)
}

func (o *Order) MarkPaid(now time.Time) error {
	if err := o.CanPay(); err != nil {
		return err
	}
	o.Status = StatusPaid
	o.PaymentError = ""
	o.touch(now)
	return nil
}

// QuantityOf returns the snapshotted quantity for productID, defaulting to 1.
func (o *Order) QuantityOf(productID int64) int {
	for _, line := range o.Lines {
		if line.ProductID == productID && line.Quantity > 0 {
			return line.Quantity
		}
	}
	return 1
}

// ProductIDs lists the snapshotted products in basket order.
func (o *Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.Lines))
	for _, line := range o.Lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

func (o *Order) touch(now time.Time) {
	o.UpdatedAt = now.UTC()
}
