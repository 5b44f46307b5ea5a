package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched cart is kept.
const DefaultIdleTTL = 24 * time.Hour

type entry struct {
	cart     *Cart
	lastSeen time.Time
}

// Sessions keeps one in-memory cart per browser session.
// Carts not touched for the idle TTL are evicted by a background sweeper.
type Sessions struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewSessions creates a registry and starts its sweeper. Call Stop to end it.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	s := &Sessions{
		ttl:     ttl,
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go s.sweep(sweepInterval(ttl))

	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}
	return interval
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the cart for id, creating an empty one when absent.
// An empty id gets a new session id.
func (s *Sessions) Get(id string) (string, *Cart) {
	if id == "" {
		id = NewSessionID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &entry{cart: New()}
		s.entries[id] = e
	}
	e.lastSeen = s.now()
	return id, e.cart
}

// Lookup returns the cart for id without creating one.
func (s *Sessions) Lookup(id string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.cart, true
}

// Len returns the number of live carts.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Evict removes carts idle for longer than the TTL and returns how many went.
func (s *Sessions) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *Sessions) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Evict()
		case <-s.stop:
			return
		}
	}
}

// Stop ends the sweeper. It is safe to call more than once.
func (s *Sessions) Stop() {
	s.once.Do(func() { close(s.stop) })
}
