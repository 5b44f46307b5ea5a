package storefront

import (
	"context"
	"net/http"

	"github.com/dukerupert/lavka/internal/cart"
	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/handler"
	"github.com/dukerupert/lavka/internal/service"
)

// Submitter runs the order and booking pipelines.
type Submitter interface {
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*service.Result, error)
	SubmitBooking(ctx context.Context, req domain.BookingRequest) (*service.Result, error)
	Checkout(ctx context.Context, c *cart.Cart, details service.CheckoutDetails) (*service.Result, error)
	GetOrder(ctx context.Context, reference string) (*domain.Order, error)
	GetBooking(ctx context.Context, reference string) (*domain.ServiceBooking, error)
}

// SubmissionHandler handles order, booking and checkout routes.
type SubmissionHandler struct {
	subs     Submitter
	sessions *cart.Sessions
}

// NewSubmissionHandler creates a submission handler.
func NewSubmissionHandler(subs Submitter, sessions *cart.Sessions) *SubmissionHandler {
	return &SubmissionHandler{subs: subs, sessions: sessions}
}

// SubmitOrder handles POST /api/orders
func (h *SubmissionHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	res, err := h.subs.SubmitOrder(r.Context(), req)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.created(w, res)
}

// SubmitBooking handles POST /api/bookings
func (h *SubmissionHandler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	res, err := h.subs.SubmitBooking(r.Context(), req)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.created(w, res)
}

// Checkout handles POST /cart/checkout. The session cart supplies the items;
// the body supplies everything else.
func (h *SubmissionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var details service.CheckoutDetails
	if err := handler.DecodeJSON(r, &details); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	c, ok := h.sessionCart(r)
	if !ok {
		handler.ErrorResponse(w, r, service.ErrEmptyCart)
		return
	}

	res, err := h.subs.Checkout(r.Context(), c, details)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.created(w, res)
}

// GetOrder handles GET /api/orders/{reference}
func (h *SubmissionHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.subs.GetOrder(r.Context(), r.PathValue("reference"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, order)
}

// GetBooking handles GET /api/bookings/{reference}
func (h *SubmissionHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.subs.GetBooking(r.Context(), r.PathValue("reference"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, booking)
}

func (h *SubmissionHandler) sessionCart(r *http.Request) (*cart.Cart, bool) {
	id := domain.CartSessionFromContext(r.Context())
	if id == "" {
		return nil, false
	}
	return h.sessions.Lookup(id)
}

// created writes a stored submission. A degraded result is still a 201.
func (h *SubmissionHandler) created(w http.ResponseWriter, res *service.Result) {
	handler.JSON(w, http.StatusCreated, res)
}
