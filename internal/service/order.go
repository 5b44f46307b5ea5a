package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/telemetry"
)

const (
	orderPlacedMessage = "Order placed successfully"
)

// SubmitOrder validates, prices, stores and announces an order.
//
// A validation failure returns a *domain.ValidationError and has no side
// effects. A failure to store the order row returns an EINTERNAL error.
// Once the row is stored the call succeeds: a line item write failure is
// logged and swallowed, and notification failures only degrade the message.
func (s *Submissions) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*Result, error) {
	const op = "order.submit"

	lines, ve := s.validateOrder(op, req)
	if len(ve.Fields) > 0 {
		return nil, s.reject(ctx, KindOrder, ve)
	}

	subtotal := decimal.Zero
	units := 0
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		entry, _ := s.catalog.Get(line.ItemID)
		lineTotal := entry.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		units += line.Quantity

		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			ItemID:    entry.ID,
			Kind:      entry.Kind,
			Title:     entry.Title,
			UnitPrice: entry.Price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
	}

	totals := s.calc.Calculate(subtotal)
	shown := totals.Rounded()

	order := &domain.Order{
		ID:              uuid.New(),
		Reference:       s.refs.OrderReference(),
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		Subtotal:        shown.Subtotal,
		ShippingCost:    shown.ShippingCost,
		Tax:             shown.Tax,
		Total:           shown.Total,
		Status:          domain.StatusPending,
		CreatedAt:       s.now(),
	}

	// Persistence must not be abandoned halfway when the client goes away.
	storeCtx := context.WithoutCancel(ctx)

	spanCtx, finish := telemetry.StartSpan(storeCtx, "db.insert", "orders")
	err := s.store.InsertOrder(spanCtx, order)
	finish()
	if err != nil {
		return nil, s.fail(ctx, KindOrder, order.Reference,
			domain.Internal(err, "order.persist", "Failed to save order"))
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.store.InsertOrderItems(storeCtx, order.ID, items); err != nil {
		// The order row is authoritative; carry on without its items.
		s.log(ctx).Error("failed to save order items",
			"reference", order.Reference,
			"order_id", order.ID,
			"items", len(items),
			"error", err,
		)
		telemetry.CaptureErrorFromContext(ctx, domain.Internal(err, "order.items", "Failed to save order items"), map[string]interface{}{
			"reference": order.Reference,
		})
		telemetry.Business.RecordLineItemFailure()
	}
	order.Items = items

	telemetry.Business.RecordOrder(string(order.PaymentMethod), order.Total, units)
	s.log(ctx).Info("order stored",
		"reference", order.Reference,
		"order_id", order.ID,
		"total", order.Total.StringFixed(2),
		"units", units,
	)

	notifyErrs := s.notify(ctx, KindOrder,
		func(ctx context.Context) error { return s.notifier.NotifyOrderCustomer(ctx, order) },
		func(ctx context.Context) error { return s.notifier.NotifyOrderOperator(ctx, order) },
	)

	res := s.respond(ctx, KindOrder, orderPlacedMessage, order.ID, order.Reference, order.Status, notifyErrs)
	res.Totals = &shown
	return res, nil
}

// validateOrder checks the request and every referenced catalog item.
// Repeated item ids are merged into one line, keeping first-seen order;
// the merged quantity is held to the same limit as a single line.
func (s *Submissions) validateOrder(op string, req domain.OrderRequest) ([]domain.OrderLine, *domain.ValidationError) {
	ve := validateStruct(s.validate, op, req)

	var lines []domain.OrderLine
	seen := make(map[string]int, len(req.Items))
	for i, line := range req.Items {
		if line.ItemID == "" {
			continue
		}
		if _, ok := s.catalog.Get(line.ItemID); !ok {
			ve.Fields[fmt.Sprintf("items[%d].itemId", i)] = "is not in the catalog"
			continue
		}
		if j, dup := seen[line.ItemID]; dup {
			lines[j].Quantity += line.Quantity
			if validQuantity(line.Quantity) && !validQuantity(lines[j].Quantity) {
				ve.Fields[fmt.Sprintf("items[%d].quantity", i)] = fmt.Sprintf("total for %s %s", line.ItemID, quantityMessage)
			}
			continue
		}
		seen[line.ItemID] = len(lines)
		lines = append(lines, line)
	}

	return lines, ve
}

// GetOrder looks up an order by its reference. References are not unique;
// the most recent match wins.
func (s *Submissions) GetOrder(ctx context.Context, reference string) (*domain.Order, error) {
	if !OrderReferencePattern.MatchString(reference) {
		return nil, ErrInvalidReference
	}

	order, err := s.store.GetOrderByReference(ctx, reference)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.get", "Failed to load order")
	}
	return order, nil
}
