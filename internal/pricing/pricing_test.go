package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/lavka/internal/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func Test_Calculator_Shipping(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultRules())

	tests := []struct {
		name        string
		subtotal    string
		expected    string
		explanation string
	}{
		{name: "just below threshold", subtotal: "49.99", expected: "5", explanation: "49.99 is not above 50"},
		{name: "exactly threshold", subtotal: "50.00", expected: "5", explanation: "threshold is exclusive"},
		{name: "just above threshold", subtotal: "50.01", expected: "0", explanation: "above 50 ships free"},
		{name: "empty cart", subtotal: "0", expected: "5", explanation: "flat rate applies to zero subtotal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Shipping(d(tt.subtotal))
			assert.True(t, d(tt.expected).Equal(got), "%s: got %s", tt.explanation, got)
		})
	}
}

func Test_Calculator_Calculate(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultRules())

	tests := []struct {
		name             string
		subtotal         string
		expectedShipping string
		expectedTax      string
		expectedTotal    string
	}{
		{
			name:             "mixed cart above threshold",
			subtotal:         "82.00",
			expectedShipping: "0.00",
			expectedTax:      "16.40",
			expectedTotal:    "98.40",
		},
		{
			name:             "small cart pays shipping",
			subtotal:         "26.00",
			expectedShipping: "5.00",
			expectedTax:      "5.20",
			expectedTotal:    "36.20",
		},
		{
			name:             "tax rounds only at presentation",
			subtotal:         "19.99",
			expectedShipping: "5.00",
			expectedTax:      "4.00",
			expectedTotal:    "28.99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calc.Calculate(d(tt.subtotal)).Rounded()

			assert.Equal(t, tt.expectedShipping, res.ShippingCost.StringFixed(2))
			assert.Equal(t, tt.expectedTax, res.Tax.StringFixed(2))
			assert.Equal(t, tt.expectedTotal, res.Total.StringFixed(2))
			assert.True(t, res.Total.GreaterThanOrEqual(res.Subtotal), "total must never be below subtotal")
		})
	}
}

func Test_Calculator_FullPrecision(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultRules())

	res := calc.Calculate(d("19.99"))

	assert.Equal(t, "3.998", res.Tax.String(), "unrounded tax is kept")
	assert.Equal(t, "28.988", res.Total.String())
	assert.Equal(t, "4", res.Rounded().Tax.String())
}

func Test_Calculator_TaxIsRoundedSubtotalShare(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultRules())

	for _, s := range []string{"0.01", "12.34", "49.99", "50.01", "333.33"} {
		sub := d(s)
		want := sub.Mul(d("0.20")).Round(2)
		assert.True(t, want.Equal(calc.Calculate(sub).Rounded().Tax), "subtotal %s", s)
	}
}

func Test_Rules_Validate(t *testing.T) {
	assert.NoError(t, pricing.DefaultRules().Validate())

	rules := pricing.DefaultRules()
	rules.TaxRate = d("-0.1")
	assert.Error(t, rules.Validate())

	rules = pricing.DefaultRules()
	rules.FlatShipping = d("-5")
	assert.Error(t, rules.Validate())

	rules = pricing.DefaultRules()
	rules.FreeShippingThreshold = d("-1")
	assert.Error(t, rules.Validate())
}

func Test_Calculator_CustomRules(t *testing.T) {
	calc := pricing.NewCalculator(pricing.Rules{
		FreeShippingThreshold: d("100"),
		FlatShipping:          d("7.50"),
		TaxRate:               d("0.09"),
	})

	res := calc.Calculate(d("80")).Rounded()
	assert.Equal(t, "7.50", res.ShippingCost.StringFixed(2))
	assert.Equal(t, "7.20", res.Tax.StringFixed(2))
	assert.Equal(t, "94.70", res.Total.StringFixed(2))
}
