package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/service"
)

const bookingDateLayout = "2006-01-02"

// Store implements service.Store using PostgreSQL.
type Store struct {
	db DBTX
}

// Compile-time check that Store implements service.Store.
var _ service.Store = (*Store)(nil)

// NewStore creates a new PostgreSQL-backed submission store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// =============================================================================
// ORDERS
// =============================================================================

const insertOrder = `
INSERT INTO orders (
    id, reference, customer_name, customer_email, customer_phone,
    street, city, postal_code, country,
    payment_method, notes, subtotal, shipping_cost, tax, total
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING status, created_at`

// InsertOrder writes the order row. Status and created_at come from the
// column defaults.
func (s *Store) InsertOrder(ctx context.Context, o *domain.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	var status string
	err := s.db.QueryRow(ctx, insertOrder,
		o.ID,
		o.Reference,
		o.Customer.Name,
		o.Customer.Email,
		o.Customer.Phone,
		o.ShippingAddress.Street,
		o.ShippingAddress.City,
		o.ShippingAddress.PostalCode,
		o.ShippingAddress.Country,
		string(o.PaymentMethod),
		o.Notes,
		money(o.Subtotal),
		money(o.ShippingCost),
		money(o.Tax),
		money(o.Total),
	).Scan(&status, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.Reference, err)
	}

	o.Status = domain.Status(status)
	return nil
}

const insertOrderItem = `
INSERT INTO order_items (id, order_id, item_id, kind, title, unit_price, quantity, line_total, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// InsertOrderItems writes all lines of an order in one batch round trip.
// The first failing row aborts the rest.
func (s *Store) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, item := range items {
		id := item.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(insertOrderItem,
			id,
			orderID,
			item.ItemID,
			string(item.Kind),
			item.Title,
			money(item.UnitPrice),
			item.Quantity,
			money(item.LineTotal),
			i,
		)
	}

	br := s.db.SendBatch(ctx, batch)
	for i := range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert order item %d (%s): %w", i, items[i].ItemID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

const getOrderByReference = `
SELECT id, reference, customer_name, customer_email, customer_phone,
       street, city, postal_code, country,
       payment_method, notes, subtotal, shipping_cost, tax, total,
       status, created_at
FROM orders
WHERE reference = $1
ORDER BY created_at DESC
LIMIT 1`

const listOrderItems = `
SELECT id, order_id, item_id, kind, title, unit_price, quantity, line_total
FROM order_items
WHERE order_id = $1
ORDER BY position`

// GetOrderByReference returns the newest order with reference, with its items.
func (s *Store) GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error) {
	var (
		o             domain.Order
		paymentMethod string
		status        string
	)
	err := s.db.QueryRow(ctx, getOrderByReference, reference).Scan(
		&o.ID,
		&o.Reference,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.Customer.Phone,
		&o.ShippingAddress.Street,
		&o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country,
		&paymentMethod,
		&o.Notes,
		&o.Subtotal,
		&o.ShippingCost,
		&o.Tax,
		&o.Total,
		&status,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("order.get", "order", reference)
		}
		return nil, fmt.Errorf("get order %s: %w", reference, err)
	}
	o.PaymentMethod = domain.PaymentMethod(paymentMethod)
	o.Status = domain.Status(status)

	rows, err := s.db.Query(ctx, listOrderItems, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items %s: %w", o.ID, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var (
			item domain.OrderItem
			kind string
		)
		err := row.Scan(&item.ID, &item.OrderID, &item.ItemID, &kind, &item.Title, &item.UnitPrice, &item.Quantity, &item.LineTotal)
		item.Kind = domain.Kind(kind)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order items %s: %w", o.ID, err)
	}
	o.Items = items

	return &o, nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

const insertBooking = `
INSERT INTO service_bookings (
    id, reference, customer_name, customer_email, customer_phone,
    service_id, service_title, booking_date, booking_time,
    payment_method, notes, price
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING status, created_at`

// InsertBooking writes the booking row.
func (s *Store) InsertBooking(ctx context.Context, b *domain.ServiceBooking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	date, err := time.Parse(bookingDateLayout, b.Date)
	if err != nil {
		return fmt.Errorf("booking date %q: %w", b.Date, err)
	}

	var status string
	err = s.db.QueryRow(ctx, insertBooking,
		b.ID,
		b.Reference,
		b.Customer.Name,
		b.Customer.Email,
		b.Customer.Phone,
		b.ServiceID,
		b.ServiceTitle,
		date,
		b.Time,
		string(b.PaymentMethod),
		b.Notes,
		money(b.Price),
	).Scan(&status, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking %s: %w", b.Reference, err)
	}

	b.Status = domain.Status(status)
	return nil
}

const getBookingByReference = `
SELECT id, reference, customer_name, customer_email, customer_phone,
       service_id, service_title, booking_date, booking_time,
       payment_method, notes, price, status, created_at
FROM service_bookings
WHERE reference = $1
ORDER BY created_at DESC
LIMIT 1`

// GetBookingByReference returns the newest booking with reference.
func (s *Store) GetBookingByReference(ctx context.Context, reference string) (*domain.ServiceBooking, error) {
	var (
		b             domain.ServiceBooking
		date          time.Time
		paymentMethod string
		status        string
	)
	err := s.db.QueryRow(ctx, getBookingByReference, reference).Scan(
		&b.ID,
		&b.Reference,
		&b.Customer.Name,
		&b.Customer.Email,
		&b.Customer.Phone,
		&b.ServiceID,
		&b.ServiceTitle,
		&date,
		&b.Time,
		&paymentMethod,
		&b.Notes,
		&b.Price,
		&status,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("booking.get", "booking", reference)
		}
		return nil, fmt.Errorf("get booking %s: %w", reference, err)
	}

	b.Date = date.Format(bookingDateLayout)
	b.PaymentMethod = domain.PaymentMethod(paymentMethod)
	b.Status = domain.Status(status)
	return &b, nil
}

// money rounds to the NUMERIC(12,2) scale at the storage boundary.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
