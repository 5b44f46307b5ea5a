package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/lavka/internal/catalog"
	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/pricing"
)

// mockStore implements Store for testing
type mockStore struct {
	InsertOrderFunc           func(ctx context.Context, order *domain.Order) error
	InsertOrderItemsFunc      func(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error
	InsertBookingFunc         func(ctx context.Context, booking *domain.ServiceBooking) error
	GetOrderByReferenceFunc   func(ctx context.Context, reference string) (*domain.Order, error)
	GetBookingByReferenceFunc func(ctx context.Context, reference string) (*domain.ServiceBooking, error)

	orders   []*domain.Order
	items    []domain.OrderItem
	bookings []*domain.ServiceBooking
}

func (m *mockStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	if m.InsertOrderFunc != nil {
		if err := m.InsertOrderFunc(ctx, order); err != nil {
			return err
		}
	}
	order.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockStore) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error {
	if m.InsertOrderItemsFunc != nil {
		if err := m.InsertOrderItemsFunc(ctx, orderID, items); err != nil {
			return err
		}
	}
	m.items = append(m.items, items...)
	return nil
}

func (m *mockStore) InsertBooking(ctx context.Context, booking *domain.ServiceBooking) error {
	if m.InsertBookingFunc != nil {
		if err := m.InsertBookingFunc(ctx, booking); err != nil {
			return err
		}
	}
	m.bookings = append(m.bookings, booking)
	return nil
}

func (m *mockStore) GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error) {
	if m.GetOrderByReferenceFunc != nil {
		return m.GetOrderByReferenceFunc(ctx, reference)
	}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].Reference == reference {
			return m.orders[i], nil
		}
	}
	return nil, domain.NotFound("order.get", "order", reference)
}

func (m *mockStore) GetBookingByReference(ctx context.Context, reference string) (*domain.ServiceBooking, error) {
	if m.GetBookingByReferenceFunc != nil {
		return m.GetBookingByReferenceFunc(ctx, reference)
	}
	for i := len(m.bookings) - 1; i >= 0; i-- {
		if m.bookings[i].Reference == reference {
			return m.bookings[i], nil
		}
	}
	return nil, domain.NotFound("booking.get", "booking", reference)
}

// mockNotifier implements Notifier for testing. Sends may run concurrently.
type mockNotifier struct {
	OrderCustomerFunc   func(ctx context.Context, order *domain.Order) error
	OrderOperatorFunc   func(ctx context.Context, order *domain.Order) error
	BookingCustomerFunc func(ctx context.Context, booking *domain.ServiceBooking) error
	BookingOperatorFunc func(ctx context.Context, booking *domain.ServiceBooking) error

	mu    sync.Mutex
	calls []string
}

func (m *mockNotifier) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *mockNotifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockNotifier) NotifyOrderCustomer(ctx context.Context, order *domain.Order) error {
	m.record("order.customer")
	if m.OrderCustomerFunc != nil {
		return m.OrderCustomerFunc(ctx, order)
	}
	return nil
}

func (m *mockNotifier) NotifyOrderOperator(ctx context.Context, order *domain.Order) error {
	m.record("order.operator")
	if m.OrderOperatorFunc != nil {
		return m.OrderOperatorFunc(ctx, order)
	}
	return nil
}

func (m *mockNotifier) NotifyBookingCustomer(ctx context.Context, booking *domain.ServiceBooking) error {
	m.record("booking.customer")
	if m.BookingCustomerFunc != nil {
		return m.BookingCustomerFunc(ctx, booking)
	}
	return nil
}

func (m *mockNotifier) NotifyBookingOperator(ctx context.Context, booking *domain.ServiceBooking) error {
	m.record("booking.operator")
	if m.BookingOperatorFunc != nil {
		return m.BookingOperatorFunc(ctx, booking)
	}
	return nil
}

// fixedReferences returns the same codes every time.
type fixedReferences struct{}

func (fixedReferences) OrderReference() string   { return "123456" }
func (fixedReferences) BookingReference() string { return "BK-12345" }

func testCatalog() *catalog.Store {
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store, err := catalog.New([]domain.CatalogItem{
		{
			ID: "b1", Kind: domain.KindBook, Title: "The Salt Road",
			Price: decimal.RequireFromString("26.00"), Category: domain.CategoryFiction,
			Book: &domain.BookDetails{Pages: 300, PublishDate: &published},
		},
		{
			ID: "b2", Kind: domain.KindBook, Title: "Atlas of Lost Kingdoms",
			Price: decimal.RequireFromString("30.00"), Category: domain.CategoryHistory,
			Book: &domain.BookDetails{Pages: 500},
		},
		{
			ID: "s1", Kind: domain.KindService, Title: "Publishing Consultation",
			Price: decimal.RequireFromString("40.00"), Category: domain.CategoryConsultation,
			Service: &domain.ServiceDetails{Duration: "60 minutes"},
		},
	})
	if err != nil {
		panic(err)
	}
	return store
}

func newTestSubmissions(store *mockStore, notifier *mockNotifier) *Submissions {
	return NewSubmissions(testCatalog(), store, notifier, pricing.NewCalculator(pricing.DefaultRules()), Options{
		References:    fixedReferences{},
		NotifyTimeout: 2 * time.Second,
	})
}

func validCustomer() domain.Customer {
	return domain.Customer{Name: "Ana Ivanova", Email: "ana@example.bg", Phone: "+359 88 123 4567"}
}

func validOrderRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Customer: validCustomer(),
		ShippingAddress: domain.ShippingAddress{
			Street:     "12 Vitosha Blvd",
			City:       "Sofia",
			PostalCode: "1000",
			Country:    "Bulgaria",
		},
		Items: []domain.OrderLine{
			{ItemID: "b1", Quantity: 2},
			{ItemID: "b2", Quantity: 1},
		},
		PaymentMethod: domain.PaymentCard,
	}
}

func validBookingRequest() domain.BookingRequest {
	return domain.BookingRequest{
		Customer:      validCustomer(),
		ServiceID:     "s1",
		Date:          "2025-04-10",
		Time:          "14:30",
		PaymentMethod: domain.PaymentCash,
	}
}
