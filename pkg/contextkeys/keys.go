// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/warden/pkg/contextkeys"
//	ctx = contextkeys.WithAuth(ctx, authCtx)
//	authCtx := contextkeys.GetAuth(ctx) // nil when unauthenticated
package contextkeys

import (
	"context"

	"github.com/platinummonkey/warden/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *auth.AuthContext
	// Set by: middleware.AuthMiddleware.Authenticate (pkg/middleware/auth.go)
	// Required by: profile and admin endpoints, middleware.RequireRole
	AuthKey Key = "auth_context"

	// RequestIDKey contains the request ID string (UUID unless the client sent one)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, X-Request-ID response header
	RequestIDKey Key = "request_id"

	// UserIDKey contains the authenticated user's ID
	// Set by: middleware.AuthMiddleware.Authenticate
	// Used by: Logger
	UserIDKey Key = "user_id"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: observability.FromContext
	// Stored untyped: observability imports this package.
	LoggerKey Key = "logger"
)

// WithAuth adds authentication context to the context
func WithAuth(ctx context.Context, authCtx *auth.AuthContext) context.Context {
	return context.WithValue(ctx, AuthKey, authCtx)
}

// GetAuth retrieves the authentication context, or nil
func GetAuth(ctx context.Context) *auth.AuthContext {
	authCtx, _ := ctx.Value(AuthKey).(*auth.AuthContext)
	return authCtx
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
