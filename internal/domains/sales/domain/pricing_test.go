package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestPrice_TenPercentDiscount(t *testing.T) {
	totals, err := DefaultPricingEngine().Price(dec(t, "300.00"), dec(t, "10"))
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(dec(t, "300.00")))
	assert.True(t, totals.DiscountAmount.Equal(dec(t, "30.00")))
	assert.True(t, totals.Taxable().Equal(dec(t, "270.00")))
	assert.True(t, totals.TaxAmount.Equal(dec(t, "35.10")))
	assert.True(t, totals.TotalAmount.Equal(dec(t, "305.10")))
}

func TestPrice_RoundsHalfUpPerField(t *testing.T) {
	// 0.05 * 10% = 0.005 -> 0.01 ; taxable 0.04 * 0.13 = 0.0052 -> 0.01
	totals, err := DefaultPricingEngine().Price(dec(t, "0.05"), dec(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, "0.01", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "0.01", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "0.05", totals.TotalAmount.StringFixed(2))
}

func TestPrice_TotalsAlwaysReconcile(t *testing.T) {
	engine := DefaultPricingEngine()
	subtotals := []string{"0", "0.01", "1.99", "19.95", "123.45", "999.99", "10000.07"}
	percents := []string{"0", "1", "2.5", "12.5", "33.33", "50", "99.99", "100"}
	for _, sub := range subtotals {
		for _, pct := range percents {
			totals, err := engine.Price(dec(t, sub), dec(t, pct))
			require.NoError(t, err)
			expected := totals.Subtotal.Sub(totals.DiscountAmount).Add(totals.TaxAmount)
			assert.Truef(t, expected.Equal(totals.TotalAmount), "sub=%s pct=%s", sub, pct)
			assert.LessOrEqual(t, totals.TotalAmount.Exponent(), int32(0))
			assert.GreaterOrEqual(t, totals.TotalAmount.Exponent(), -MoneyPlaces)
		}
	}
}

func TestPrice_FullDiscountHasNoTax(t *testing.T) {
	totals, err := DefaultPricingEngine().Price(dec(t, "80.00"), dec(t, "100"))
	require.NoError(t, err)
	assert.True(t, totals.TotalAmount.IsZero())
	assert.True(t, totals.TaxAmount.IsZero())
}

func TestPrice_RejectsInvalidInput(t *testing.T) {
	engine := DefaultPricingEngine()

	_, err := engine.Price(dec(t, "10"), dec(t, "-1"))
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = engine.Price(dec(t, "10"), dec(t, "100.01"))
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = engine.Price(dec(t, "-0.01"), decimal.Zero)
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestValidateDiscountPercent_Precision(t *testing.T) {
	require.ErrorIs(t, ValidateDiscountPercent(dec(t, "12.345")), ErrInvalidDiscount)
	require.ErrorIs(t, ValidateDiscountPercent(dec(t, "0.001")), ErrInvalidDiscount)
	require.NoError(t, ValidateDiscountPercent(dec(t, "12.34")))
	require.NoError(t, ValidateDiscountPercent(dec(t, "12.340")))
	require.NoError(t, ValidateDiscountPercent(dec(t, "100.00")))

	_, err := DefaultPricingEngine().Price(dec(t, "100.00"), dec(t, "12.345"))
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestNewPricingEngine_ValidatesRate(t *testing.T) {
	_, err := NewPricingEngine(dec(t, "-0.1"))
	require.ErrorIs(t, err, ErrInvalidTaxRate)

	_, err = NewPricingEngine(dec(t, "1"))
	require.ErrorIs(t, err, ErrInvalidTaxRate)

	engine, err := NewPricingEngine(dec(t, "0.2"))
	require.NoError(t, err)
	totals, err := engine.Price(dec(t, "10.00"), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "12.00", totals.TotalAmount.StringFixed(2))
}
