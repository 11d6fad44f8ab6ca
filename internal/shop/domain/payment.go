package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payment is one recorded attempt at settling an order.
type Payment struct {
	ID             string
	OrderID        int64
	CardNumber     string
	ValidityPeriod string
	Success        bool
	CreatedAt      time.Time
}

const (
	PaymentErrorExpired           = "Payment expired"
	PaymentErrorInsufficientStock = "insufficient stock"
)

// CardDetails is the payment instrument as submitted by the customer.
type CardDetails struct {
	Number     string
	Month      string
	Year       string
	CVV        string
	HolderName string
}

// Expiry parses the expiration month and year. Two-digit years are read as 20YY.
func (c CardDetails) Expiry() (year int, month time.Month, err error) {
	m, err := strconv.Atoi(strings.TrimSpace(c.Month))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("%w: month %q", ErrInvalidPaymentDetails, c.Month)
	}

	rawYear := strings.TrimSpace(c.Year)
	y, err := strconv.Atoi(rawYear)
	if err != nil || y < 0 {
		return 0, 0, fmt.Errorf("%w: year %q", ErrInvalidPaymentDetails, c.Year)
	}
	if len(rawYear) <= 2 {
		y += 2000
	}

	return y, time.Month(m), nil
}

// CheckExpiry fails with ErrPaymentExpired when the card expired before the
// month containing now.
func (c CardDetails) CheckExpiry(now time.Time) error {
	year, month, err := c.Expiry()
	if err != nil {
		return err
	}
	if year < now.Year() || (year == now.Year() && month < now.Month()) {
		return ErrPaymentExpired
	}
	return nil
}

// CheckNumber applies the storefront's placeholder card rule: numbers longer
// than eight digits with an even value are rejected.
func (c CardDetails) CheckNumber() error {
	number := strings.TrimSpace(c.Number)
	if number == "" {
		return ErrInvalidCardNumber
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return ErrInvalidCardNumber
		}
	}

	lastDigit := number[len(number)-1] - '0'
	if len(number) > 8 && lastDigit%2 == 0 {
		return ErrInvalidCardNumber
	}
	return nil
}

// CheckHolder requires the CVV and the card holder name.
func (c CardDetails) CheckHolder() error {
	if strings.TrimSpace(c.CVV) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidPaymentDetails)
	}
	if strings.TrimSpace(c.HolderName) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPaymentDetails)
	}
	return nil
}

// ValidityPeriod formats the expiry as MM.YY.
func (c CardDetails) ValidityPeriod() string {
	year, month, err := c.Expiry()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d.%02d", int(month), year%100)
}

// MaskCardNumber hides all but the last four digits.
func MaskCardNumber(number string) string {
	number = strings.TrimSpace(number)
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

// NewPayment builds an unsuccessful attempt with masked card metadata.
func NewPayment(id string, orderID int64, card CardDetails, now time.Time) *Payment {
	return &Payment{
		ID:             id,
		OrderID:        orderID,
		CardNumber:     MaskCardNumber(card.Number),
		ValidityPeriod: card.ValidityPeriod(),
		CreatedAt:      now.UTC(),
	}
}
