package cart

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/lavka/internal/domain"
)

func item(id, price string) domain.CatalogItem {
	return domain.CatalogItem{
		ID:    id,
		Kind:  domain.KindBook,
		Title: "Title " + id,
		Price: decimal.RequireFromString(price),
	}
}

func TestCart_AddMergesLines(t *testing.T) {
	c := New()

	_, err := c.Add(item("x", "10.00"), 2)
	require.NoError(t, err)
	snap, err := c.Add(item("x", "10.00"), 3)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 5, snap.Lines[0].Quantity)
	assert.Equal(t, 5, snap.TotalItems)
	assert.True(t, decimal.RequireFromString("50").Equal(snap.Subtotal))
}

func TestCart_AddRejectsNonPositiveQuantity(t *testing.T) {
	c := New()

	for _, qty := range []int{0, -1} {
		_, err := c.Add(item("x", "1"), qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.True(t, c.IsEmpty())
}

func TestCart_QuantityLimit(t *testing.T) {
	t.Run("add above limit", func(t *testing.T) {
		c := New()
		for _, qty := range []int{MaxQuantity + 1, math.MaxInt} {
			_, err := c.Add(item("x", "1"), qty)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		}
		assert.True(t, c.IsEmpty())
	})

	t.Run("add exactly limit", func(t *testing.T) {
		c := New()
		snap, err := c.Add(item("x", "1"), MaxQuantity)
		require.NoError(t, err)
		assert.Equal(t, MaxQuantity, snap.TotalItems)
	})

	t.Run("merge past limit leaves line unchanged", func(t *testing.T) {
		c := New()
		_, err := c.Add(item("x", "1"), 60)
		require.NoError(t, err)

		_, err = c.Add(item("x", "1"), 60)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		lines := c.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, 60, lines[0].Quantity)
	})

	t.Run("merge huge quantity does not overflow", func(t *testing.T) {
		c := New()
		_, err := c.Add(item("x", "1"), 1)
		require.NoError(t, err)

		_, err = c.Add(item("x", "1"), math.MaxInt)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, 1, c.Lines()[0].Quantity)
	})

	t.Run("update above limit", func(t *testing.T) {
		c := New()
		_, err := c.Add(item("x", "1"), 2)
		require.NoError(t, err)

		_, err = c.UpdateQuantity("x", MaxQuantity+1)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, 2, c.Lines()[0].Quantity)

		_, err = c.UpdateQuantity("x", MaxQuantity)
		require.NoError(t, err)
		assert.Equal(t, MaxQuantity, c.Lines()[0].Quantity)
	})
}

func TestCart_RemoveSnapshot(t *testing.T) {
	c := New()
	_, _ = c.Add(item("a", "5"), 2)
	_, _ = c.Add(item("b", "7"), 1)
	snap := c.Snapshot()

	// Changes made after the snapshot survive its removal.
	_, _ = c.Add(item("a", "5"), 3)
	_, _ = c.Add(item("c", "9"), 1)

	left := c.RemoveSnapshot(snap)

	require.Len(t, left.Lines, 2)
	assert.Equal(t, "a", left.Lines[0].ItemID)
	assert.Equal(t, 3, left.Lines[0].Quantity)
	assert.Equal(t, "c", left.Lines[1].ItemID)
	assert.Equal(t, 4, left.TotalItems)

	// A line removed since the snapshot is skipped.
	c.Remove("c")
	left = c.RemoveSnapshot(Snapshot{Lines: []Line{{ItemID: "c", Quantity: 1}}})
	assert.Equal(t, 3, left.TotalItems)
}

func TestCart_SnapshotsPriceAtAddTime(t *testing.T) {
	c := New()
	_, err := c.Add(item("x", "10.00"), 1)
	require.NoError(t, err)

	// A later add with a different catalog price keeps the original snapshot.
	_, err = c.Add(item("x", "99.00"), 1)
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "10", lines[0].Price.String())
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name          string
		id            string
		qty           int
		expectedErr   error
		expectedLines int
		expectedQty   int
	}{
		{name: "sets quantity", id: "a", qty: 7, expectedLines: 2, expectedQty: 7},
		{name: "zero removes line", id: "a", qty: 0, expectedLines: 1},
		{name: "negative removes line", id: "a", qty: -3, expectedLines: 1},
		{name: "unknown id", id: "zzz", qty: 2, expectedErr: ErrLineNotFound, expectedLines: 2, expectedQty: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			_, _ = c.Add(item("a", "5"), 1)
			_, _ = c.Add(item("b", "5"), 1)

			_, err := c.UpdateQuantity(tt.id, tt.qty)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}

			lines := c.Lines()
			assert.Len(t, lines, tt.expectedLines)
			if tt.expectedQty > 0 {
				assert.Equal(t, "a", lines[0].ItemID)
				assert.Equal(t, tt.expectedQty, lines[0].Quantity)
			}
			for _, l := range lines {
				assert.GreaterOrEqual(t, l.Quantity, 1)
			}
		})
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New()
	_, _ = c.Add(item("a", "1"), 1)
	_, _ = c.Add(item("b", "2"), 1)
	_, _ = c.Add(item("c", "3"), 1)

	snap := c.Remove("b")
	assert.Equal(t, []string{"a", "c"}, []string{snap.Lines[0].ItemID, snap.Lines[1].ItemID})

	snap = c.Remove("missing")
	assert.Len(t, snap.Lines, 2)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Subtotal().IsZero())
	assert.Equal(t, 0, c.TotalItems())
}

func TestCart_SubtotalScenario(t *testing.T) {
	c := New()
	_, _ = c.Add(item("book", "26.00"), 2)
	_, _ = c.Add(item("other", "30.00"), 1)

	assert.True(t, decimal.RequireFromString("82.00").Equal(c.Subtotal()))
	assert.Equal(t, 3, c.TotalItems())
}

func TestCart_ConcurrentAdds(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Add(item("x", "1.10"), 1)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 50, snap.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("55").Equal(snap.Subtotal))
}

func TestSessions_GetAndEvict(t *testing.T) {
	s := NewSessions(time.Hour)
	defer s.Stop()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	id, c := s.Get("")
	require.NotEmpty(t, id)
	_, _ = c.Add(item("x", "1"), 1)

	sameID, same := s.Get(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, c, same)

	otherID, _ := s.Get("other")
	assert.Equal(t, "other", otherID)
	assert.Equal(t, 2, s.Len())

	now = now.Add(30 * time.Minute)
	_, ok := s.Lookup(id)
	require.True(t, ok)

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, s.Evict(), "only the untouched cart is evicted")

	_, ok = s.Lookup("other")
	assert.False(t, ok)
	_, ok = s.Lookup(id)
	assert.True(t, ok)

	s.Stop()
	s.Stop()
}
