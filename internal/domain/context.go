// Package domain provides the shared storefront types, application error
// codes and context helpers for lavka.
package domain

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey contextKey = iota

	// cartSessionContextKey stores the cart session ID resolved from the cookie.
	cartSessionContextKey
)

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}

// --- Cart Session Context Helpers ---

// NewContextWithCartSession returns a new context carrying the cart session ID.
func NewContextWithCartSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, cartSessionContextKey, sessionID)
}

// CartSessionFromContext returns the cart session ID, or "" when none is set.
func CartSessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(cartSessionContextKey).(string)
	return id
}
