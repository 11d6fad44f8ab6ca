package domain

import "github.com/shopspring/decimal"

// DeliveryPricing is the externally configured delivery tariff.
type DeliveryPricing struct {
	StandardCost decimal.Decimal
	ExpressCost  decimal.Decimal
	FreeMinimum  decimal.Decimal
}

// TotalWithDelivery applies the standard surcharge unless subtotal is
// strictly above the free-delivery threshold.
func (p DeliveryPricing) TotalWithDelivery(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.FreeMinimum) {
		return subtotal
	}
	return subtotal.Add(p.StandardCost)
}

// Surcharge returns the extra cost a delivery type adds on top of an
// already computed order total.
func (p DeliveryPricing) Surcharge(t DeliveryType) decimal.Decimal {
	if t == DeliveryExpress {
		return p.ExpressCost
	}
	return decimal.Zero
}
