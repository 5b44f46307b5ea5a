// Package storefront holds the JSON HTTP handlers for the catalog, the
// session cart and order/booking submission.
package storefront

import (
	"net/http"

	"github.com/dukerupert/lavka/internal/catalog"
	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/handler"
	"github.com/dukerupert/lavka/internal/telemetry"
)

// CatalogHandler serves catalog browsing routes.
type CatalogHandler struct {
	store  *catalog.Store
	engine *catalog.Engine
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(store *catalog.Store, engine *catalog.Engine) *CatalogHandler {
	return &CatalogHandler{store: store, engine: engine}
}

// List handles GET /catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items := h.store.Items()
	kind := q.Get("kind")
	if kind != "" {
		k := domain.Kind(kind)
		if !k.Valid() {
			handler.ErrorResponse(w, r, domain.Invalid("catalog.list", "kind must be book or service"))
			return
		}
		items = h.store.OfKind(k)
	}

	toggles := make(map[string]bool, len(catalog.FlagKeys()))
	for _, key := range catalog.FlagKeys() {
		toggles[key] = handler.QueryBool(r, key)
	}

	criteria := catalog.FilterCriteria{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Flags:    catalog.ParseFlags(toggles),
	}
	sort := catalog.ParseSortKey(q.Get("sort"))
	page := catalog.Page{
		Index: handler.QueryInt(r, "page", 1),
		Size:  handler.QueryInt(r, "pageSize", 0),
	}

	result := h.engine.Query(items, criteria, sort, page)

	filtered := !criteria.Flags.Empty() || criteria.Search != "" ||
		(criteria.Category != "" && criteria.Category != domain.CategoryAll)
	telemetry.Business.RecordCatalogQuery(kind, string(sort), filtered, result.TotalCount)

	handler.JSON(w, http.StatusOK, result)
}

// Get handles GET /catalog/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, ok := h.store.Get(id)
	if !ok {
		handler.ErrorResponse(w, r, domain.NotFound("catalog.get", "item", id))
		return
	}

	telemetry.Business.RecordItemView(string(item.Kind))
	handler.JSON(w, http.StatusOK, item)
}

// Categories handles GET /catalog/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	handler.JSON(w, http.StatusOK, map[string]any{
		"categories": h.store.Categories(),
	})
}
