package service

import (
	"context"

	"github.com/dukerupert/lavka/internal/cart"
	"github.com/dukerupert/lavka/internal/domain"
)

// CheckoutDetails is everything an order needs besides the items, which
// come from the session cart.
type CheckoutDetails struct {
	Customer        domain.Customer        `json:"customer"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod"`
	Notes           string                 `json:"notes"`
}

// Checkout submits the cart contents as an order and, once the order is
// stored, removes exactly the ordered lines from the cart. Items added while
// the order was being stored stay in the cart. The cart is left untouched
// on any error.
// Prices are re-read from the catalog rather than taken from the cart lines.
func (s *Submissions) Checkout(ctx context.Context, c *cart.Cart, details CheckoutDetails) (*Result, error) {
	snap := c.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	req := domain.OrderRequest{
		Customer:        details.Customer,
		ShippingAddress: details.ShippingAddress,
		PaymentMethod:   details.PaymentMethod,
		Notes:           details.Notes,
		Items:           make([]domain.OrderLine, 0, len(snap.Lines)),
	}
	for _, line := range snap.Lines {
		req.Items = append(req.Items, domain.OrderLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}

	res, err := s.SubmitOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	c.RemoveSnapshot(snap)
	return res, nil
}
