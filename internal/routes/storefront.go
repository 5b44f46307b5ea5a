package routes

import (
	"github.com/dukerupert/lavka/internal/cookie"
	"github.com/dukerupert/lavka/internal/handler"
	"github.com/dukerupert/lavka/internal/router"
)

// RegisterStorefrontRoutes registers the catalog, cart and submission API.
// Every cart route reads the session cookie; submission routes are rate
// limited per client.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Catalog browsing
	r.Get("/catalog", deps.CatalogHandler.List)
	r.Get("/catalog/categories", deps.CatalogHandler.Categories)
	r.Get("/catalog/{id}", deps.CatalogHandler.Get)

	// Shopping cart
	carts := r.Group(cookie.WithCartSession)
	carts.Get("/cart", deps.CartHandler.View)
	carts.Get("/cart/totals", deps.CartHandler.Totals)
	carts.Post("/cart/items", deps.CartHandler.AddItem)
	carts.Patch("/cart/items/{id}", deps.CartHandler.UpdateItem)
	carts.Delete("/cart/items/{id}", deps.CartHandler.RemoveItem)
	carts.Delete("/cart", deps.CartHandler.Clear)

	// Submissions
	submit := r
	if deps.SubmissionLimit != nil {
		submit = r.Group(deps.SubmissionLimit)
	}
	submit.Post("/api/orders", deps.SubmissionHandler.SubmitOrder)
	submit.Post("/api/bookings", deps.SubmissionHandler.SubmitBooking)
	submit.Post("/cart/checkout", deps.SubmissionHandler.Checkout, cookie.WithCartSession)

	// Lookups
	r.Get("/api/orders/{reference}", deps.SubmissionHandler.GetOrder)
	r.Get("/api/bookings/{reference}", deps.SubmissionHandler.GetBooking)

	r.NotFound(handler.NotFound)
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health)
	if deps.Metrics != nil {
		r.Handle("GET", "/metrics", deps.Metrics)
	}
}
