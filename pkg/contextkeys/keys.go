// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here so that
// key usage stays discoverable and a typo cannot silently create a
// second key.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains *guard.Principal
	// Set by: guard.Authenticate middleware
	// Required by: every protected endpoint
	PrincipalKey Key = "principal"

	// ClubKey contains the resolved club id (int64) for the request
	// Set by: guard capability middleware after verification
	// Required by: club-scoped handlers building queries
	ClubKey Key = "club_id"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: observability middleware
	LoggerKey Key = "logger"
)

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal interface{}) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// WithClubID adds the resolved club id to the context
func WithClubID(ctx context.Context, clubID int64) context.Context {
	return context.WithValue(ctx, ClubKey, clubID)
}

// ClubID retrieves the resolved club id from the context
func ClubID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ClubKey).(int64)
	return id, ok
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from the context
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}
