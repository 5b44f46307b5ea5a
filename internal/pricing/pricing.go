// Package pricing derives shipping, tax and totals from a cart subtotal.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rules are the storefront pricing constants.
type Rules struct {
	// FreeShippingThreshold: subtotals strictly above it ship free.
	FreeShippingThreshold decimal.Decimal

	// FlatShipping is charged when the subtotal does not exceed the threshold.
	FlatShipping decimal.Decimal

	// TaxRate is applied to the subtotal only, e.g. 0.20.
	TaxRate decimal.Decimal
}

// DefaultRules returns the standard storefront rules: free shipping above
// 50, otherwise 5, and 20% tax.
func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShipping:          decimal.NewFromInt(5),
		TaxRate:               decimal.RequireFromString("0.20"),
	}
}

// Validate rejects negative constants.
func (r Rules) Validate() error {
	if r.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("free shipping threshold must not be negative, got %s", r.FreeShippingThreshold)
	}
	if r.FlatShipping.IsNegative() {
		return fmt.Errorf("flat shipping must not be negative, got %s", r.FlatShipping)
	}
	if r.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate must not be negative, got %s", r.TaxRate)
	}
	return nil
}

// Result is a priced subtotal. Values are kept at full precision; call
// Rounded before showing or storing them.
type Result struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// Rounded returns r with every amount rounded half away from zero to 2 places.
func (r Result) Rounded() Result {
	return Result{
		Subtotal:     r.Subtotal.Round(2),
		ShippingCost: r.ShippingCost.Round(2),
		Tax:          r.Tax.Round(2),
		Total:        r.Total.Round(2),
	}
}

// Calculator applies Rules. It keeps no state between calls.
type Calculator struct {
	rules Rules
}

// NewCalculator returns a calculator for rules.
func NewCalculator(rules Rules) *Calculator {
	return &Calculator{rules: rules}
}

// Rules returns the constants in use.
func (c *Calculator) Rules() Rules { return c.rules }

// Shipping returns the shipping cost for subtotal.
func (c *Calculator) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(c.rules.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.rules.FlatShipping
}

// Tax returns subtotal × TaxRate.
func (c *Calculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.rules.TaxRate)
}

// Calculate prices subtotal from scratch.
func (c *Calculator) Calculate(subtotal decimal.Decimal) Result {
	shipping := c.Shipping(subtotal)
	tax := c.Tax(subtotal)
	return Result{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}
}
