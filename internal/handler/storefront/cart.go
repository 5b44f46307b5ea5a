package storefront

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/lavka/internal/cart"
	"github.com/dukerupert/lavka/internal/catalog"
	"github.com/dukerupert/lavka/internal/cookie"
	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/handler"
	"github.com/dukerupert/lavka/internal/pricing"
	"github.com/dukerupert/lavka/internal/telemetry"
)

// CartHandler handles all session cart routes
type CartHandler struct {
	sessions *cart.Sessions
	catalog  *catalog.Store
	calc     *pricing.Calculator
	cookies  *cookie.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions *cart.Sessions, store *catalog.Store, calc *pricing.Calculator, cookies *cookie.Config) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  store,
		calc:     calc,
		cookies:  cookies,
	}
}

type cartLineView struct {
	ItemID    string      `json:"itemId"`
	Kind      domain.Kind `json:"kind"`
	Title     string      `json:"title"`
	Price     string      `json:"price"`
	Quantity  int         `json:"quantity"`
	LineTotal string      `json:"lineTotal"`
}

type totalsView struct {
	Subtotal     string `json:"subtotal"`
	ShippingCost string `json:"shippingCost"`
	Tax          string `json:"tax"`
	Total        string `json:"total"`
	Currency     string `json:"currency"`
}

type cartView struct {
	Items      []cartLineView `json:"items"`
	TotalItems int            `json:"totalItems"`
	Totals     totalsView     `json:"totals"`
}

type addItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity *int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	handler.JSON(w, http.StatusOK, h.view(h.current(r)))
}

// Totals handles GET /cart/totals
func (h *CartHandler) Totals(w http.ResponseWriter, r *http.Request) {
	handler.JSON(w, http.StatusOK, h.totals(h.current(r).Subtotal))
}

// AddItem handles POST /cart/items. Quantity defaults to 1. Adding an
// item already in the cart increases its quantity.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if req.ItemID == "" {
		handler.ErrorResponse(w, r, domain.NewValidationError("cart.add", "itemId", "is required"))
		return
	}

	item, ok := h.catalog.Get(req.ItemID)
	if !ok {
		handler.ErrorResponse(w, r, domain.NotFound("cart.add", "item", req.ItemID))
		return
	}

	c := h.session(w, r)
	snap, err := c.Add(item, qty)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.mutated("add", snap)
	handler.JSON(w, http.StatusOK, h.view(snap))
}

// UpdateItem handles PATCH /cart/items/{id}. A quantity of zero or less
// removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.Quantity == nil {
		handler.ErrorResponse(w, r, domain.NewValidationError("cart.update", "quantity", "is required"))
		return
	}

	c, ok := h.existing(r)
	if !ok {
		handler.ErrorResponse(w, r, cart.ErrLineNotFound)
		return
	}

	snap, err := c.UpdateQuantity(r.PathValue("id"), *req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	action := "update"
	if *req.Quantity <= 0 {
		action = "remove"
	}
	h.mutated(action, snap)
	handler.JSON(w, http.StatusOK, h.view(snap))
}

// RemoveItem handles DELETE /cart/items/{id}. Removing an item that is not
// in the cart is not an error.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.existing(r)
	if !ok {
		handler.JSON(w, http.StatusOK, h.view(cart.Snapshot{}))
		return
	}

	snap := c.Remove(r.PathValue("id"))
	h.mutated("remove", snap)
	handler.JSON(w, http.StatusOK, h.view(snap))
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.existing(r); ok {
		c.Clear()
		h.mutated("clear", cart.Snapshot{})
	}
	handler.JSON(w, http.StatusOK, h.view(cart.Snapshot{}))
}

// current returns the session cart contents, or an empty snapshot when the
// request has no live session.
func (h *CartHandler) current(r *http.Request) cart.Snapshot {
	if c, ok := h.existing(r); ok {
		return c.Snapshot()
	}
	return cart.Snapshot{}
}

func (h *CartHandler) existing(r *http.Request) (*cart.Cart, bool) {
	id := domain.CartSessionFromContext(r.Context())
	if id == "" {
		return nil, false
	}
	return h.sessions.Lookup(id)
}

// session returns the request's cart, creating it when needed. A new or
// expired session gets a fresh id and cookie.
func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) *cart.Cart {
	if c, ok := h.existing(r); ok {
		return c
	}
	id, c := h.sessions.Get("")
	h.cookies.SetCart(w, id)
	return c
}

func (h *CartHandler) mutated(action string, snap cart.Snapshot) {
	telemetry.Business.RecordCartMutation(action, snap.Subtotal)
}

func (h *CartHandler) view(snap cart.Snapshot) cartView {
	v := cartView{
		Items:      make([]cartLineView, 0, len(snap.Lines)),
		TotalItems: snap.TotalItems,
		Totals:     h.totals(snap.Subtotal),
	}
	for _, l := range snap.Lines {
		v.Items = append(v.Items, cartLineView{
			ItemID:    l.ItemID,
			Kind:      l.Kind,
			Title:     l.Title,
			Price:     money(l.Price),
			Quantity:  l.Quantity,
			LineTotal: money(l.LineTotal()),
		})
	}
	return v
}

func (h *CartHandler) totals(subtotal decimal.Decimal) totalsView {
	res := h.calc.Calculate(subtotal)
	return totalsView{
		Subtotal:     money(res.Subtotal),
		ShippingCost: money(res.ShippingCost),
		Tax:          money(res.Tax),
		Total:        money(res.Total),
		Currency:     domain.Currency,
	}
}

// money formats an amount for display: 2 places, half away from zero.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
