package routes

import (
	"net/http"

	"github.com/dukerupert/lavka/internal/handler/storefront"
	"github.com/dukerupert/lavka/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Catalog browsing (list, detail, category facets)
	CatalogHandler *storefront.CatalogHandler

	// Session cart
	CartHandler *storefront.CartHandler

	// Orders, bookings and cart checkout
	SubmissionHandler *storefront.SubmissionHandler

	// SubmissionLimit throttles the endpoints that store records and send
	// email. Nil disables it.
	SubmissionLimit router.Middleware
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	Health  http.HandlerFunc
	Metrics http.Handler
}
