// Package middleware provides HTTP middleware for authentication and authorization.
//
// # Stage A: Authenticate
//
//	authMW := middleware.NewAuthMiddleware(issuer, store, middleware.WithFailureRecorder(metrics))
//	router.Handle("/api/auth/profile", authMW.Authenticate(profileHandler))
//
// Authenticate extracts the "Bearer <token>" credential, verifies it, loads the
// user by id and attaches an *auth.AuthContext to the request. Missing or
// malformed headers get 401 "Not authorized, no token" without touching the
// store; a token that fails verification, or names a user that no longer
// exists, gets 401 "Not authorized, token failed". Store failures are 500.
//
// # Stage B: RequireRole
//
//	admin := httputil.Chain(authMW.Authenticate, middleware.RequireRole(auth.RoleAdmin))
//
// RequireRole answers 403 "Access denied. Admins only." when the resolved user
// is not an admin, and also when no user was resolved at all.
//
// # Related Packages
//
//   - pkg/auth: Token verification and roles
//   - pkg/contextkeys: Request context keys
package middleware
