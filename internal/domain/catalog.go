package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the single unit all catalog prices are expressed in.
const Currency = "BGN"

// Kind discriminates the CatalogItem variants.
type Kind string

const (
	KindBook    Kind = "book"
	KindService Kind = "service"
)

// Valid reports whether k is a known item kind.
func (k Kind) Valid() bool {
	return k == KindBook || k == KindService
}

// Book categories.
const (
	CategoryFiction    = "fiction"
	CategoryNonFiction = "non-fiction"
	CategoryPoetry     = "poetry"
	CategoryChildren   = "children"
	CategoryHistory    = "history"
)

// Service categories.
const (
	CategoryEditing      = "editing"
	CategoryTranslation  = "translation"
	CategoryConsultation = "consultation"
	CategoryWorkshop     = "workshop"
)

// CategoryAll bypasses the category filter.
const CategoryAll = "all"

var (
	bookCategories = []string{
		CategoryFiction, CategoryNonFiction, CategoryPoetry, CategoryChildren, CategoryHistory,
	}
	serviceCategories = []string{
		CategoryEditing, CategoryTranslation, CategoryConsultation, CategoryWorkshop,
	}
)

// CategoriesFor returns the closed category set of a kind, in display order.
func CategoriesFor(k Kind) []string {
	switch k {
	case KindBook:
		return append([]string(nil), bookCategories...)
	case KindService:
		return append([]string(nil), serviceCategories...)
	default:
		return nil
	}
}

// ValidCategory reports whether category belongs to the set of kind k.
func ValidCategory(k Kind, category string) bool {
	for _, c := range CategoriesFor(k) {
		if c == category {
			return true
		}
	}
	return false
}

// CatalogItem is a sellable book or a bookable service.
// Exactly one of Book or Service is set, matching Kind.
type CatalogItem struct {
	ID          string          `json:"id" yaml:"id"`
	Kind        Kind            `json:"kind" yaml:"kind"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Category    string          `json:"category" yaml:"category"`
	Featured    bool            `json:"featured" yaml:"featured"`
	Image       string          `json:"image,omitempty" yaml:"image"`

	Book    *BookDetails    `json:"book,omitempty" yaml:"book"`
	Service *ServiceDetails `json:"service,omitempty" yaml:"service"`
}

// BookDetails holds the book-only fields.
type BookDetails struct {
	Author      string     `json:"author,omitempty" yaml:"author"`
	Pages       int        `json:"pages" yaml:"pages"`
	PublishDate *time.Time `json:"publishDate,omitempty" yaml:"-"`
	Digital     bool       `json:"digital" yaml:"digital"`
}

// ServiceDetails holds the service-only fields.
type ServiceDetails struct {
	Duration string   `json:"duration" yaml:"duration"`
	Includes []string `json:"includes" yaml:"includes"`
}

// Clone returns a copy of i that shares no pointers or slices with it.
func (i CatalogItem) Clone() CatalogItem {
	if i.Book != nil {
		book := *i.Book
		if book.PublishDate != nil {
			d := *book.PublishDate
			book.PublishDate = &d
		}
		i.Book = &book
	}
	if i.Service != nil {
		svc := *i.Service
		svc.Includes = append([]string(nil), svc.Includes...)
		i.Service = &svc
	}
	return i
}

// IsBook reports whether the item is a book.
func (i CatalogItem) IsBook() bool { return i.Kind == KindBook }

// IsService reports whether the item is a service.
func (i CatalogItem) IsService() bool { return i.Kind == KindService }

// PublishDate returns the book publish date, or nil for services and undated books.
func (i CatalogItem) PublishDate() *time.Time {
	if i.Book == nil {
		return nil
	}
	return i.Book.PublishDate
}

// IsDigital reports whether the item is a digital book.
func (i CatalogItem) IsDigital() bool {
	return i.Book != nil && i.Book.Digital
}
