// Package cookie provides the cart session cookie helpers.
package cookie

import (
	"net/http"
	"time"

	"github.com/dukerupert/lavka/internal/domain"
)

// CartCookieName stores the anonymous cart session id.
const CartCookieName = "lavka_cart"

// Config holds cookie attributes shared by every cookie the storefront sets.
type Config struct {
	// Domain scopes the cookie. Empty means host-only, which is right for
	// a single storefront host.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool

	// SameSite defaults to Lax. Use None (with Secure) when the storefront
	// frontend is served from another site and calls the API with
	// credentials.
	SameSite http.SameSite

	// MaxAge is the cart cookie lifetime. It should not be shorter than
	// the idle TTL of the in-memory cart registry.
	MaxAge time.Duration
}

// NewConfig creates a cookie configuration with Lax SameSite.
func NewConfig(domain string, secure bool, maxAge time.Duration) *Config {
	return &Config{
		Domain:   domain,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// SetSession sets an HttpOnly session cookie on path "/".
func (c *Config) SetSession(w http.ResponseWriter, name, value string) {
	sameSite := c.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	})
}

// ClearSession removes a session cookie by setting MaxAge to -1.
// Domain and Path must match the original cookie.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
	})
}

// SetCart stores the cart session id.
func (c *Config) SetCart(w http.ResponseWriter, sessionID string) {
	c.SetSession(w, CartCookieName, sessionID)
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WithCartSession copies the cart cookie into the request context so
// handlers read it through domain.CartSessionFromContext. It never creates
// a session; that happens on the first cart mutation.
func WithCartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := Get(r, CartCookieName); id != "" {
			r = r.WithContext(domain.NewContextWithCartSession(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
