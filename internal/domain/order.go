package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of a submission record.
// Records are created pending; later transitions happen outside the storefront.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentCash   PaymentMethod = "cash"
)

// Customer is the contact block shared by orders and bookings.
type Customer struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email_strict,max=254"`
	Phone string `json:"phone" validate:"omitempty,max=40"`
}

// ShippingAddress is where an order is delivered.
type ShippingAddress struct {
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

// MaxLineQuantity caps the quantity of one item in a cart or an order.
const MaxLineQuantity = 99

// OrderLine is one requested item in an order request.
type OrderLine struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"line_quantity"`
}

// OrderRequest is the inbound order submission.
type OrderRequest struct {
	Customer        Customer        `json:"customer"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Items           []OrderLine     `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" validate:"required,oneof=card paypal cash"`
	Notes           string          `json:"notes" validate:"max=2000"`
}

// Order is a persisted order record.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	Reference       string          `json:"reference"`
	Customer        Customer        `json:"customer"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Notes           string          `json:"notes,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem is a persisted order line with its price snapshot.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ItemID    string          `json:"itemId"`
	Kind      Kind            `json:"kind"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// BookingRequest is the inbound service booking submission.
type BookingRequest struct {
	Customer      Customer      `json:"customer"`
	ServiceID     string        `json:"serviceId" validate:"required"`
	Date          string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string        `json:"time" validate:"required,datetime=15:04"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=card paypal cash"`
	Notes         string        `json:"notes" validate:"max=2000"`
}

// ServiceBooking is a persisted booking record.
type ServiceBooking struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	Customer      Customer        `json:"customer"`
	ServiceID     string          `json:"serviceId"`
	ServiceTitle  string          `json:"serviceTitle"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}
