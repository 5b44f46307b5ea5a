package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/lavka/internal/domain"
)

// FlagSet is a closed set of boolean catalog predicates.
// An item passes a non-empty set when it satisfies any flag in it.
type FlagSet uint8

const (
	FlagFeatured FlagSet = 1 << iota
	FlagNewRelease
	FlagBestseller
	FlagDigital
)

// flagNames maps the request keys to flags, in a fixed order.
var flagNames = []struct {
	key  string
	flag FlagSet
}{
	{"featured", FlagFeatured},
	{"newReleases", FlagNewRelease},
	{"bestsellers", FlagBestseller},
	{"digital", FlagDigital},
}

// FlagKeys returns the request keys that toggle flags.
func FlagKeys() []string {
	keys := make([]string, len(flagNames))
	for i, f := range flagNames {
		keys[i] = f.key
	}
	return keys
}

// ParseFlags builds a FlagSet from key/value toggles. Unknown keys and false
// values are ignored.
func ParseFlags(toggles map[string]bool) FlagSet {
	var set FlagSet
	for _, f := range flagNames {
		if toggles[f.key] {
			set |= f.flag
		}
	}
	return set
}

// Has reports whether every flag in f is set.
func (s FlagSet) Has(f FlagSet) bool { return s&f == f }

// Empty reports whether no flag is set.
func (s FlagSet) Empty() bool { return s == 0 }

// String lists the active keys, comma separated.
func (s FlagSet) String() string {
	var keys []string
	for _, f := range flagNames {
		if s.Has(f.flag) {
			keys = append(keys, f.key)
		}
	}
	return strings.Join(keys, ",")
}

// Rules holds the thresholds behind the newReleases and bestsellers flags.
type Rules struct {
	// NewReleaseCutoff: books published strictly after it are new releases.
	NewReleaseCutoff time.Time

	// BestsellerMinPrice: items priced at or above it count as bestsellers.
	BestsellerMinPrice decimal.Decimal
}

// DefaultRules returns the storefront's standard flag thresholds.
func DefaultRules() Rules {
	return Rules{
		NewReleaseCutoff:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		BestsellerMinPrice: decimal.NewFromInt(30),
	}
}

// Matches reports whether item satisfies any flag in set.
// An empty set matches everything.
func (r Rules) Matches(item domain.CatalogItem, set FlagSet) bool {
	if set.Empty() {
		return true
	}
	if set.Has(FlagFeatured) && item.Featured {
		return true
	}
	if set.Has(FlagNewRelease) {
		if d := item.PublishDate(); d != nil && d.After(r.NewReleaseCutoff) {
			return true
		}
	}
	if set.Has(FlagBestseller) && item.Price.GreaterThanOrEqual(r.BestsellerMinPrice) {
		return true
	}
	if set.Has(FlagDigital) && item.IsDigital() {
		return true
	}
	return false
}
