// Package cart implements the session shopping cart.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/lavka/internal/domain"
)

// MaxQuantity is the most of one item a line may hold. It matches the
// order line limit so every cart can be checked out.
const MaxQuantity = domain.MaxLineQuantity

var (
	ErrInvalidQuantity = domain.Errorf(domain.EINVALID, "", "Quantity must be between 1 and %d", MaxQuantity)
	ErrLineNotFound    = domain.Errorf(domain.ENOTFOUND, "", "Item is not in the cart")
)

// Line is one catalog item in a cart. Price and Title are copied from the
// catalog when the line is created and do not follow later catalog changes.
type Line struct {
	ItemID   string          `json:"itemId"`
	Kind     domain.Kind     `json:"kind"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// LineTotal is Price × Quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is a consistent, detached view of a cart.
type Snapshot struct {
	Lines      []Line          `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"totalItems"`
}

// Cart holds ordered lines, at most one per item id, each with quantity >= 1.
// All methods are safe for concurrent use; every mutation is applied whole
// under a single lock.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts qty of item in the cart. An existing line for the same id has its
// quantity increased instead of gaining a duplicate. Neither qty nor the
// resulting line quantity may exceed MaxQuantity; a rejected add leaves the
// cart unchanged.
func (c *Cart) Add(item domain.CatalogItem, qty int) (Snapshot, error) {
	if qty < 1 || qty > MaxQuantity {
		return Snapshot{}, ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(item.ID); i >= 0 {
		if c.lines[i].Quantity > MaxQuantity-qty {
			return Snapshot{}, ErrInvalidQuantity
		}
		c.lines[i].Quantity += qty
		return c.snapshot(), nil
	}

	c.lines = append(c.lines, Line{
		ItemID:   item.ID,
		Kind:     item.Kind,
		Title:    item.Title,
		Price:    item.Price,
		Quantity: qty,
	})
	return c.snapshot(), nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line; one above MaxQuantity is rejected.
func (c *Cart) UpdateQuantity(id string, qty int) (Snapshot, error) {
	if qty > MaxQuantity {
		return Snapshot{}, ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(id)
	if i < 0 {
		return Snapshot{}, ErrLineNotFound
	}
	if qty <= 0 {
		c.removeAt(i)
	} else {
		c.lines[i].Quantity = qty
	}
	return c.snapshot(), nil
}

// Remove deletes the line for id. Removing an absent id is a no-op.
func (c *Cart) Remove(id string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(id); i >= 0 {
		c.removeAt(i)
	}
	return c.snapshot()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// RemoveSnapshot takes the lines of snap out of the cart: each line's
// quantity is reduced by the snapshotted quantity and dropped at zero.
// Lines added or increased after the snapshot keep the difference.
func (c *Cart) RemoveSnapshot(snap Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, taken := range snap.Lines {
		i := c.find(taken.ItemID)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity <= taken.Quantity {
			c.removeAt(i)
			continue
		}
		c.lines[i].Quantity -= taken.Quantity
	}
	return c.snapshot()
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Subtotal is the sum of price × quantity over all lines, unrounded.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return subtotal(c.lines)
}

// TotalItems is the sum of quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalItems(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Snapshot returns lines and derived totals read under one lock.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cart) snapshot() Snapshot {
	return Snapshot{
		Lines:      append([]Line{}, c.lines...),
		Subtotal:   subtotal(c.lines),
		TotalItems: totalItems(c.lines),
	}
}

func (c *Cart) find(id string) int {
	for i, l := range c.lines {
		if l.ItemID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

func totalItems(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
