package domain

import "errors"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBasketNotFound    = errors.New("basket not found")
	ErrItemNotFound      = errors.New("item not found in basket")
	ErrNoBasket          = errors.New("customer has no basket")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrPaymentNotFound   = errors.New("payment not found")

	ErrPaymentExpired        = errors.New("payment expired")
	ErrInvalidCardNumber     = errors.New("invalid card number")
	ErrInvalidPaymentDetails = errors.New("invalid payment details")

	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidOrderState   = errors.New("invalid order state")
	ErrInvalidDeliveryType = errors.New("invalid delivery type")
	ErrInvalidPaymentType  = errors.New("invalid payment type")

	// ErrForbidden is returned when a customer touches an order they do not own.
	ErrForbidden = errors.New("order belongs to another customer")

	// ErrPricingNotConfigured is returned when no delivery pricing row exists.
	ErrPricingNotConfigured = errors.New("delivery pricing is not configured")
)
