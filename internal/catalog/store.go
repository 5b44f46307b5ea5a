// Package catalog holds the read-only storefront catalog and the query engine
// that filters, searches, sorts and paginates it.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/lavka/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

// dateLayout is the publish date format in catalog files.
const dateLayout = "2006-01-02"

// Store is an immutable, in-memory catalog. Every accessor returns deep
// copies, so callers may modify what they get back.
// It is safe for concurrent use since nothing mutates it after Load.
type Store struct {
	items []domain.CatalogItem
	index map[string]int
}

// CategoryInfo describes one category facet.
type CategoryInfo struct {
	Kind     domain.Kind     `json:"kind"`
	Category string          `json:"category"`
	Count    int             `json:"count"`
	MinPrice decimal.Decimal `json:"minPrice"`
	MaxPrice decimal.Decimal `json:"maxPrice"`
}

type fileItem struct {
	ID          string `yaml:"id"`
	Kind        string `yaml:"kind"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	Featured    bool   `yaml:"featured"`
	Image       string `yaml:"image"`
	Book        *struct {
		Author      string `yaml:"author"`
		Pages       int    `yaml:"pages"`
		PublishDate string `yaml:"publishDate"`
		Digital     bool   `yaml:"digital"`
	} `yaml:"book"`
	Service *struct {
		Duration string   `yaml:"duration"`
		Includes []string `yaml:"includes"`
	} `yaml:"service"`
}

type file struct {
	Items []fileItem `yaml:"items"`
}

// Default returns the catalog built from the embedded seed.
func Default() (*Store, error) {
	return Load(bytes.NewReader(seedYAML))
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a YAML catalog.
func Load(r io.Reader) (*Store, error) {
	const op = "catalog.load"

	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "failed to decode catalog")
	}

	items := make([]domain.CatalogItem, 0, len(doc.Items))
	for i, fi := range doc.Items {
		item, err := fi.toItem()
		if err != nil {
			return nil, domain.Errorf(domain.EINVALID, op, "item %d (%s): %v", i, fi.ID, err)
		}
		items = append(items, item)
	}

	return New(items)
}

// New builds a store from already-constructed items.
// Ids must be unique.
func New(items []domain.CatalogItem) (*Store, error) {
	s := &Store{
		items: make([]domain.CatalogItem, len(items)),
		index: make(map[string]int, len(items)),
	}
	copy(s.items, items)

	for i, item := range s.items {
		if _, dup := s.index[item.ID]; dup {
			return nil, domain.Errorf(domain.EINVALID, "catalog.new", "duplicate item id %q", item.ID)
		}
		s.index[item.ID] = i
	}
	return s, nil
}

func (fi fileItem) toItem() (domain.CatalogItem, error) {
	if strings.TrimSpace(fi.ID) == "" {
		return domain.CatalogItem{}, fmt.Errorf("id is required")
	}
	if strings.TrimSpace(fi.Title) == "" {
		return domain.CatalogItem{}, fmt.Errorf("title is required")
	}

	kind := domain.Kind(fi.Kind)
	if !kind.Valid() {
		return domain.CatalogItem{}, fmt.Errorf("unknown kind %q", fi.Kind)
	}
	if !domain.ValidCategory(kind, fi.Category) {
		return domain.CatalogItem{}, fmt.Errorf("category %q is not a %s category", fi.Category, kind)
	}

	price, err := decimal.NewFromString(fi.Price)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("invalid price %q: %w", fi.Price, err)
	}
	if price.IsNegative() {
		return domain.CatalogItem{}, fmt.Errorf("price must not be negative")
	}

	item := domain.CatalogItem{
		ID:          fi.ID,
		Kind:        kind,
		Title:       fi.Title,
		Description: fi.Description,
		Price:       price,
		Category:    fi.Category,
		Featured:    fi.Featured,
		Image:       fi.Image,
	}

	switch kind {
	case domain.KindBook:
		if fi.Book == nil || fi.Service != nil {
			return domain.CatalogItem{}, fmt.Errorf("book needs a book block and no service block")
		}
		details := &domain.BookDetails{
			Author:  fi.Book.Author,
			Pages:   fi.Book.Pages,
			Digital: fi.Book.Digital,
		}
		if fi.Book.PublishDate != "" {
			t, err := time.Parse(dateLayout, fi.Book.PublishDate)
			if err != nil {
				return domain.CatalogItem{}, fmt.Errorf("invalid publishDate %q: %w", fi.Book.PublishDate, err)
			}
			details.PublishDate = &t
		}
		item.Book = details
	case domain.KindService:
		if fi.Service == nil || fi.Book != nil {
			return domain.CatalogItem{}, fmt.Errorf("service needs a service block and no book block")
		}
		item.Service = &domain.ServiceDetails{
			Duration: fi.Service.Duration,
			Includes: append([]string(nil), fi.Service.Includes...),
		}
	}

	return item, nil
}

// Items returns a deep copy of every item in catalog order.
func (s *Store) Items() []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Len returns the number of items.
func (s *Store) Len() int { return len(s.items) }

// Get looks up an item by id.
func (s *Store) Get(id string) (domain.CatalogItem, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.CatalogItem{}, false
	}
	return s.items[i].Clone(), true
}

// Books returns the book items in catalog order.
func (s *Store) Books() []domain.CatalogItem {
	return s.OfKind(domain.KindBook)
}

// Services returns the service items in catalog order.
func (s *Store) Services() []domain.CatalogItem {
	return s.OfKind(domain.KindService)
}

// OfKind returns the items of one kind. An empty kind returns everything.
func (s *Store) OfKind(k domain.Kind) []domain.CatalogItem {
	if k == "" {
		return s.Items()
	}
	var out []domain.CatalogItem
	for _, item := range s.items {
		if item.Kind == k {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Categories returns facet metadata for every known category, books first.
// Categories without items are reported with a zero count.
func (s *Store) Categories() []CategoryInfo {
	var out []CategoryInfo
	for _, kind := range []domain.Kind{domain.KindBook, domain.KindService} {
		for _, category := range domain.CategoriesFor(kind) {
			info := CategoryInfo{Kind: kind, Category: category}
			for _, item := range s.items {
				if item.Kind != kind || item.Category != category {
					continue
				}
				if info.Count == 0 || item.Price.LessThan(info.MinPrice) {
					info.MinPrice = item.Price
				}
				if info.Count == 0 || item.Price.GreaterThan(info.MaxPrice) {
					info.MaxPrice = item.Price
				}
				info.Count++
			}
			out = append(out, info)
		}
	}
	return out
}
