package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the currency minor unit used for every stored amount.
const MoneyPlaces int32 = 2

// DefaultTaxRate is the flat sales tax applied after discount.
var DefaultTaxRate = decimal.RequireFromString("0.13")

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to the minor unit.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// Totals is the financial breakdown of a sale.
type Totals struct {
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
}

// Taxable is the amount the tax rate applies to.
func (t Totals) Taxable() decimal.Decimal {
	return t.Subtotal.Sub(t.DiscountAmount)
}

// PricingEngine computes discount, tax and total for a subtotal.
type PricingEngine struct {
	taxRate decimal.Decimal
}

// NewPricingEngine validates the tax rate and returns an engine using it.
func NewPricingEngine(taxRate decimal.Decimal) (PricingEngine, error) {
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return PricingEngine{}, ErrInvalidTaxRate
	}
	return PricingEngine{taxRate: taxRate}, nil
}

// DefaultPricingEngine uses DefaultTaxRate.
func DefaultPricingEngine() PricingEngine {
	return PricingEngine{taxRate: DefaultTaxRate}
}

// TaxRate returns the configured rate.
func (p PricingEngine) TaxRate() decimal.Decimal {
	return p.taxRate
}

// Price derives the discount, tax and total. Each derived field is rounded once;
// the rounded discount feeds the taxable amount so the totals reconcile exactly.
func (p PricingEngine) Price(subtotal, discountPercent decimal.Decimal) (Totals, error) {
	if subtotal.IsNegative() {
		return Totals{}, ErrNegativeAmount
	}
	if err := ValidateDiscountPercent(discountPercent); err != nil {
		return Totals{}, err
	}
	subtotal = RoundMoney(subtotal)
	discount := RoundMoney(subtotal.Mul(discountPercent).Div(hundred))
	taxable := subtotal.Sub(discount)
	tax := RoundMoney(taxable.Mul(p.taxRate))
	return Totals{
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		TaxAmount:       tax,
		TotalAmount:     taxable.Add(tax),
	}, nil
}

// ValidateDiscountPercent rejects percentages outside [0, 100] and any finer than the two decimal
// places an order stores.
func ValidateDiscountPercent(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) || !pct.Equal(pct.Truncate(2)) {
		return ErrInvalidDiscount
	}
	return nil
}
