package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/lavka/internal/cart"
	"github.com/dukerupert/lavka/internal/catalog"
	"github.com/dukerupert/lavka/internal/cookie"
	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/handler"
	"github.com/dukerupert/lavka/internal/pricing"
	"github.com/dukerupert/lavka/internal/service"
)

type mockSubmitter struct {
	SubmitOrderFunc   func(ctx context.Context, req domain.OrderRequest) (*service.Result, error)
	SubmitBookingFunc func(ctx context.Context, req domain.BookingRequest) (*service.Result, error)
	CheckoutFunc      func(ctx context.Context, c *cart.Cart, details service.CheckoutDetails) (*service.Result, error)
	GetOrderFunc      func(ctx context.Context, reference string) (*domain.Order, error)
	GetBookingFunc    func(ctx context.Context, reference string) (*domain.ServiceBooking, error)
}

func (m *mockSubmitter) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*service.Result, error) {
	if m.SubmitOrderFunc != nil {
		return m.SubmitOrderFunc(ctx, req)
	}
	return nil, domain.Errorf(domain.ENOTIMPL, "mock", "SubmitOrder not configured")
}

func (m *mockSubmitter) SubmitBooking(ctx context.Context, req domain.BookingRequest) (*service.Result, error) {
	if m.SubmitBookingFunc != nil {
		return m.SubmitBookingFunc(ctx, req)
	}
	return nil, domain.Errorf(domain.ENOTIMPL, "mock", "SubmitBooking not configured")
}

func (m *mockSubmitter) Checkout(ctx context.Context, c *cart.Cart, details service.CheckoutDetails) (*service.Result, error) {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx, c, details)
	}
	return nil, domain.Errorf(domain.ENOTIMPL, "mock", "Checkout not configured")
}

func (m *mockSubmitter) GetOrder(ctx context.Context, reference string) (*domain.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, reference)
	}
	return nil, service.ErrOrderNotFound
}

func (m *mockSubmitter) GetBooking(ctx context.Context, reference string) (*domain.ServiceBooking, error) {
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, reference)
	}
	return nil, service.ErrBookingNotFound
}

type testServer struct {
	mux      *http.ServeMux
	sessions *cart.Sessions
	store    *catalog.Store
	subs     *mockSubmitter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := catalog.Default()
	require.NoError(t, err)

	sessions := cart.NewSessions(time.Hour)
	t.Cleanup(sessions.Stop)

	subs := &mockSubmitter{}
	calc := pricing.NewCalculator(pricing.DefaultRules())
	cookies := cookie.NewConfig("", false, 24*time.Hour)

	catalogH := NewCatalogHandler(store, catalog.NewEngine(catalog.DefaultRules(), 0))
	cartH := NewCartHandler(sessions, store, calc, cookies)
	subH := NewSubmissionHandler(subs, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /catalog", catalogH.List)
	mux.HandleFunc("GET /catalog/categories", catalogH.Categories)
	mux.HandleFunc("GET /catalog/{id}", catalogH.Get)
	mux.HandleFunc("GET /cart", cartH.View)
	mux.HandleFunc("GET /cart/totals", cartH.Totals)
	mux.HandleFunc("POST /cart/items", cartH.AddItem)
	mux.HandleFunc("PATCH /cart/items/{id}", cartH.UpdateItem)
	mux.HandleFunc("DELETE /cart/items/{id}", cartH.RemoveItem)
	mux.HandleFunc("DELETE /cart", cartH.Clear)
	mux.HandleFunc("POST /cart/checkout", subH.Checkout)
	mux.HandleFunc("POST /api/orders", subH.SubmitOrder)
	mux.HandleFunc("POST /api/bookings", subH.SubmitBooking)
	mux.HandleFunc("GET /api/orders/{reference}", subH.GetOrder)
	mux.HandleFunc("GET /api/bookings/{reference}", subH.GetBooking)

	return &testServer{mux: mux, sessions: sessions, store: store, subs: subs}
}

// do sends a request through the cart cookie middleware, attaching the
// session cookie when one is given.
func (s *testServer) do(method, target, body, session string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: cookie.CartCookieName, Value: session})
	}

	rec := httptest.NewRecorder()
	cookie.WithCartSession(s.mux).ServeHTTP(rec, req)
	return rec
}

func sessionFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookie.CartCookieName {
			return c.Value
		}
	}
	return ""
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestCatalog_List(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		query     string
		status    int
		wantTotal int
		check     func(t *testing.T, res catalog.Result)
	}{
		{
			name:      "everything",
			query:     "",
			status:    http.StatusOK,
			wantTotal: s.store.Len(),
			check: func(t *testing.T, res catalog.Result) {
				assert.Equal(t, 1, res.Page)
				assert.Equal(t, catalog.DefaultPageSize, res.PageSize)
				assert.LessOrEqual(t, len(res.Items), catalog.DefaultPageSize)
			},
		},
		{
			name:      "services only",
			query:     "?kind=service",
			status:    http.StatusOK,
			wantTotal: len(s.store.Services()),
			check: func(t *testing.T, res catalog.Result) {
				for _, item := range res.Items {
					assert.Equal(t, domain.KindService, item.Kind)
				}
			},
		},
		{
			name:      "books sorted by price",
			query:     "?kind=book&sort=price-low&pageSize=50",
			status:    http.StatusOK,
			wantTotal: len(s.store.Books()),
			check: func(t *testing.T, res catalog.Result) {
				for i := 1; i < len(res.Items); i++ {
					assert.False(t, res.Items[i].Price.LessThan(res.Items[i-1].Price), "items out of order at %d", i)
				}
			},
		},
		{
			name:      "unknown category matches nothing",
			query:     "?category=does-not-exist",
			status:    http.StatusOK,
			wantTotal: 0,
			check: func(t *testing.T, res catalog.Result) {
				assert.Empty(t, res.Items)
				assert.Equal(t, 0, res.TotalPages)
			},
		},
		{
			name:      "page past the end is empty",
			query:     "?page=99",
			status:    http.StatusOK,
			wantTotal: s.store.Len(),
			check: func(t *testing.T, res catalog.Result) {
				assert.Empty(t, res.Items)
				assert.Equal(t, 99, res.Page)
			},
		},
		{
			name:   "invalid kind",
			query:  "?kind=vinyl",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/catalog"+tt.query, "", "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			res := decode[catalog.Result](t, rec)
			assert.Equal(t, tt.wantTotal, res.TotalCount)
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestCatalog_Get(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/catalog/b-001", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[domain.CatalogItem](t, rec)
	assert.Equal(t, "b-001", item.ID)

	rec = s.do(http.MethodGet, "/catalog/b-999", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[handler.ErrorBody](t, rec)
	assert.Equal(t, domain.ENOTFOUND, body.Code)
}

func TestCatalog_Categories(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/catalog/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Categories []catalog.CategoryInfo `json:"categories"`
	}](t, rec)
	assert.Equal(t, len(s.store.Categories()), len(body.Categories))
}

func TestCart_EmptyWithoutSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/cart", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sessionFrom(t, rec), "viewing must not create a session")

	view := decode[cartView](t, rec)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.TotalItems)
	assert.Equal(t, "0.00", view.Totals.Subtotal)
	assert.Equal(t, "5.00", view.Totals.ShippingCost)
	assert.Equal(t, "0.00", view.Totals.Tax)
	assert.Equal(t, "5.00", view.Totals.Total)
	assert.Equal(t, domain.Currency, view.Totals.Currency)
}

func TestCart_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	// first add creates the session
	rec := s.do(http.MethodPost, "/cart/items", `{"itemId":"b-001"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := sessionFrom(t, rec)
	require.NotEmpty(t, session)

	view := decode[cartView](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.Equal(t, "26.00", view.Items[0].LineTotal)

	// adding again merges into the same line
	rec = s.do(http.MethodPost, "/cart/items", `{"itemId":"b-001","quantity":2}`, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sessionFrom(t, rec), "existing session must not be reissued")
	view = decode[cartView](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "78.00", view.Items[0].LineTotal)
	assert.Equal(t, "78.00", view.Totals.Subtotal)
	assert.Equal(t, "0.00", view.Totals.ShippingCost)
	assert.Equal(t, "15.60", view.Totals.Tax)
	assert.Equal(t, "93.60", view.Totals.Total)

	rec = s.do(http.MethodPatch, "/cart/items/b-001", `{"quantity":1}`, session)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[cartView](t, rec)
	assert.Equal(t, 1, view.TotalItems)

	rec = s.do(http.MethodGet, "/cart/totals", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode[totalsView](t, rec)
	assert.Equal(t, "26.00", totals.Subtotal)
	assert.Equal(t, "5.00", totals.ShippingCost)
	assert.Equal(t, "5.20", totals.Tax)
	assert.Equal(t, "36.20", totals.Total)

	rec = s.do(http.MethodPatch, "/cart/items/b-001", `{"quantity":0}`, session)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[cartView](t, rec)
	assert.Empty(t, view.Items)
}

func TestCart_AddItemErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown item", `{"itemId":"b-999"}`, http.StatusNotFound},
		{"missing item id", `{"quantity":1}`, http.StatusBadRequest},
		{"zero quantity", `{"itemId":"b-001","quantity":0}`, http.StatusBadRequest},
		{"negative quantity", `{"itemId":"b-001","quantity":-2}`, http.StatusBadRequest},
		{"quantity above limit", `{"itemId":"b-001","quantity":100}`, http.StatusBadRequest},
		{"unknown field", `{"sku":"b-001"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/cart/items", tt.body, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCart_UpdateMissing(t *testing.T) {
	s := newTestServer(t)

	// no session at all
	rec := s.do(http.MethodPatch, "/cart/items/b-001", `{"quantity":2}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// session without that line
	id, c := s.sessions.Get("")
	_, err := c.Add(mustItem(t, s.store, "b-002"), 1)
	require.NoError(t, err)

	rec = s.do(http.MethodPatch, "/cart/items/b-001", `{"quantity":2}`, id)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPatch, "/cart/items/b-002", `{}`, id)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_RemoveAndClear(t *testing.T) {
	s := newTestServer(t)

	id, c := s.sessions.Get("")
	_, err := c.Add(mustItem(t, s.store, "b-001"), 1)
	require.NoError(t, err)
	_, err = c.Add(mustItem(t, s.store, "s-001"), 1)
	require.NoError(t, err)

	rec := s.do(http.MethodDelete, "/cart/items/b-001", "", id)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[cartView](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "s-001", view.Items[0].ItemID)

	// removing an absent line is a no-op
	rec = s.do(http.MethodDelete, "/cart/items/b-001", "", id)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/cart", "", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.IsEmpty())

	// clearing without a session is fine too
	rec = s.do(http.MethodDelete, "/cart", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCart_ExpiredSessionGetsNewCookie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/cart/items", `{"itemId":"b-001"}`, "gone-"+uuid.NewString())
	require.Equal(t, http.StatusOK, rec.Code)

	session := sessionFrom(t, rec)
	require.NotEmpty(t, session)
	_, ok := s.sessions.Lookup(session)
	assert.True(t, ok)
}

func TestSubmitOrder(t *testing.T) {
	s := newTestServer(t)

	s.subs.SubmitOrderFunc = func(ctx context.Context, req domain.OrderRequest) (*service.Result, error) {
		require.Len(t, req.Items, 1)
		assert.Equal(t, "b-001", req.Items[0].ItemID)
		return &service.Result{
			Success:   true,
			Message:   "Order submitted",
			Reference: "123456",
			Status:    domain.StatusPending,
			EmailSent: true,
		}, nil
	}

	body := `{
		"customer": {"name": "Ana", "email": "ana@example.com"},
		"shippingAddress": {"street": "1 Main", "city": "Sofia", "postalCode": "1000", "country": "BG"},
		"items": [{"itemId": "b-001", "quantity": 1}],
		"paymentMethod": "card"
	}`
	rec := s.do(http.MethodPost, "/api/orders", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[service.Result](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "123456", res.Reference)
	assert.True(t, res.EmailSent)
}

func TestSubmitOrder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{
			name:   "malformed body",
			body:   `{"customer":`,
			status: http.StatusBadRequest,
			code:   domain.EINVALID,
		},
		{
			name:   "validation",
			body:   `{"items":[]}`,
			err:    domain.NewValidationError("order.submit", "items", "is required"),
			status: http.StatusBadRequest,
			code:   domain.EINVALID,
		},
		{
			name:   "persistence",
			body:   `{"items":[]}`,
			err:    domain.Internal(context.DeadlineExceeded, "order.persist", "Failed to save order"),
			status: http.StatusInternalServerError,
			code:   domain.EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.subs.SubmitOrderFunc = func(ctx context.Context, req domain.OrderRequest) (*service.Result, error) {
				return nil, tt.err
			}

			rec := s.do(http.MethodPost, "/api/orders", tt.body, "")
			require.Equal(t, tt.status, rec.Code)
			body := decode[handler.ErrorBody](t, rec)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestSubmitBooking_Degraded(t *testing.T) {
	s := newTestServer(t)

	s.subs.SubmitBookingFunc = func(ctx context.Context, req domain.BookingRequest) (*service.Result, error) {
		assert.Equal(t, "s-001", req.ServiceID)
		return &service.Result{
			Success:   true,
			Message:   "Booking stored",
			Reference: "BK-12345",
			Status:    domain.StatusPending,
			NotificationErrors: []*service.NotificationError{
				{Recipient: service.RecipientCustomer, Err: context.DeadlineExceeded},
			},
		}, nil
	}

	body := `{
		"customer": {"name": "Ana", "email": "ana@example.com"},
		"serviceId": "s-001",
		"date": "2026-11-02",
		"time": "10:30",
		"paymentMethod": "cash"
	}`
	rec := s.do(http.MethodPost, "/api/bookings", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	res := decode[map[string]any](t, rec)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, false, res["emailSent"])
	assert.NotContains(t, res, "NotificationErrors")
}

func TestCheckout(t *testing.T) {
	s := newTestServer(t)

	details := `{
		"customer": {"name": "Ana", "email": "ana@example.com"},
		"shippingAddress": {"street": "1 Main", "city": "Sofia", "postalCode": "1000", "country": "BG"},
		"paymentMethod": "paypal"
	}`

	t.Run("no session", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/cart/checkout", details, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[handler.ErrorBody](t, rec)
		assert.Equal(t, "Cart is empty", body.Error)
	})

	t.Run("session cart is passed through", func(t *testing.T) {
		id, c := s.sessions.Get("")
		_, err := c.Add(mustItem(t, s.store, "b-003"), 2)
		require.NoError(t, err)

		s.subs.CheckoutFunc = func(ctx context.Context, got *cart.Cart, d service.CheckoutDetails) (*service.Result, error) {
			assert.Same(t, c, got)
			assert.Equal(t, domain.PaymentPayPal, d.PaymentMethod)
			assert.Equal(t, "Sofia", d.ShippingAddress.City)
			got.Clear()
			return &service.Result{Success: true, Reference: "654321", EmailSent: true}, nil
		}

		rec := s.do(http.MethodPost, "/cart/checkout", details, id)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		res := decode[service.Result](t, rec)
		assert.Equal(t, "654321", res.Reference)
		assert.True(t, c.IsEmpty())
	})
}

func TestLookups(t *testing.T) {
	s := newTestServer(t)

	s.subs.GetOrderFunc = func(ctx context.Context, reference string) (*domain.Order, error) {
		switch reference {
		case "123456":
			return &domain.Order{Reference: reference, Status: domain.StatusPending}, nil
		case "abc":
			return nil, service.ErrInvalidReference
		}
		return nil, service.ErrOrderNotFound
	}

	tests := []struct {
		target string
		status int
	}{
		{"/api/orders/123456", http.StatusOK},
		{"/api/orders/000000", http.StatusNotFound},
		{"/api/orders/abc", http.StatusBadRequest},
		{"/api/bookings/BK-00000", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.target, "", "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func mustItem(t *testing.T, store *catalog.Store, id string) domain.CatalogItem {
	t.Helper()
	item, ok := store.Get(id)
	require.True(t, ok, "seed item %s missing", id)
	return item
}
