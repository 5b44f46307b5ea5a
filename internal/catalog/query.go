package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dukerupert/lavka/internal/domain"
)

const (
	// DefaultPageSize is used when a page size is missing or invalid.
	DefaultPageSize = 12

	// MaxPageSize caps client supplied page sizes.
	MaxPageSize = 100
)

// SortKey selects the ordering of query results.
type SortKey string

const (
	SortNone      SortKey = ""
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortFeatured  SortKey = "featured"
)

// ParseSortKey maps a request value to a SortKey.
// Unknown values yield SortNone, which keeps catalog order.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortNewest, SortOldest, SortPriceLow, SortPriceHigh, SortFeatured:
		return k
	default:
		return SortNone
	}
}

// FilterCriteria narrows a catalog query.
// Category and Search are ANDed with each other and with Flags;
// flags inside the set are ORed.
type FilterCriteria struct {
	Category string
	Search   string
	Flags    FlagSet
}

// Page is a 1-based page request.
type Page struct {
	Index int
	Size  int
}

// Result is one page of a query.
type Result struct {
	Items      []domain.CatalogItem `json:"items"`
	TotalCount int                  `json:"totalCount"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

// Engine runs catalog queries. It holds no state besides its configuration
// and never mutates its input.
type Engine struct {
	rules           Rules
	defaultPageSize int
}

// NewEngine creates an engine. A pageSize below 1 falls back to DefaultPageSize.
func NewEngine(rules Rules, pageSize int) *Engine {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &Engine{rules: rules, defaultPageSize: pageSize}
}

// Rules returns the flag thresholds the engine applies.
func (e *Engine) Rules() Rules { return e.rules }

// Query filters, sorts and paginates items. It never fails: unknown
// categories match nothing and out-of-range pages are empty.
func (e *Engine) Query(items []domain.CatalogItem, criteria FilterCriteria, sort SortKey, page Page) Result {
	filtered := e.Filter(items, criteria)
	Sort(filtered, sort)

	page = e.normalize(page)
	return Result{
		Items:      Paginate(filtered, page),
		TotalCount: len(filtered),
		Page:       page.Index,
		PageSize:   page.Size,
		TotalPages: (len(filtered) + page.Size - 1) / page.Size,
	}
}

// Filter returns a new slice with the items matching criteria, in input order.
func (e *Engine) Filter(items []domain.CatalogItem, criteria FilterCriteria) []domain.CatalogItem {
	category := strings.TrimSpace(criteria.Category)
	term := strings.ToLower(strings.TrimSpace(criteria.Search))

	out := make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		if !MatchesCategory(item, category) {
			continue
		}
		if !MatchesSearch(item, term) {
			continue
		}
		if !e.rules.Matches(item, criteria.Flags) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (e *Engine) normalize(p Page) Page {
	if p.Index < 1 {
		p.Index = 1
	}
	if p.Size < 1 {
		p.Size = e.defaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// MatchesCategory is an exact category match; "" and "all" match everything.
func MatchesCategory(item domain.CatalogItem, category string) bool {
	if category == "" || category == domain.CategoryAll {
		return true
	}
	return item.Category == category
}

// MatchesSearch is a case-insensitive substring match on title or description.
// term must already be lower-cased; an empty term matches everything.
func MatchesSearch(item domain.CatalogItem, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Title), term) ||
		strings.Contains(strings.ToLower(item.Description), term)
}

// Sort orders items in place by key. The sort is stable.
func Sort(items []domain.CatalogItem, key SortKey) {
	switch key {
	case SortNewest:
		slices.SortStableFunc(items, func(a, b domain.CatalogItem) int {
			return cmp.Compare(publishUnix(b), publishUnix(a))
		})
	case SortOldest:
		slices.SortStableFunc(items, func(a, b domain.CatalogItem) int {
			return cmp.Compare(publishUnix(a), publishUnix(b))
		})
	case SortPriceLow:
		slices.SortStableFunc(items, func(a, b domain.CatalogItem) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(items, func(a, b domain.CatalogItem) int {
			return b.Price.Cmp(a.Price)
		})
	case SortFeatured:
		slices.SortStableFunc(items, func(a, b domain.CatalogItem) int {
			return cmp.Compare(featuredRank(a), featuredRank(b))
		})
	}
}

// Paginate returns the [(index-1)*size, index*size) window of items.
// An index below 1 is treated as 1, a size below 1 as DefaultPageSize and a
// size above MaxPageSize as MaxPageSize.
func Paginate(items []domain.CatalogItem, p Page) []domain.CatalogItem {
	if p.Index < 1 {
		p.Index = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Index > len(items) {
		return []domain.CatalogItem{}
	}
	start := (p.Index - 1) * p.Size
	if start >= len(items) {
		return []domain.CatalogItem{}
	}
	end := min(start+p.Size, len(items))
	return items[start:end]
}

// publishUnix treats a missing publish date as the Unix epoch.
func publishUnix(item domain.CatalogItem) int64 {
	if d := item.PublishDate(); d != nil {
		return d.Unix()
	}
	return 0
}

func featuredRank(item domain.CatalogItem) int {
	if item.Featured {
		return 0
	}
	return 1
}
