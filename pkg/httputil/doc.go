// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// Every error body has the shape {"message": "..."}:
//
//	httputil.WriteSuccess(w, user)
//	httputil.WriteCreated(w, session)
//	httputil.WriteBadRequest(w, "User already exists")
//	httputil.WriteUnauthorized(w, "Not authorized, no token")
//	httputil.WriteForbidden(w, "Access denied. Admins only.")
//	httputil.WriteInternalError(w) // always "Server error"
//
// # Request Parsing
//
//	var req LoginRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//	token, ok := httputil.BearerToken(r)
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.CORSMiddleware(origins),
//		httputil.MaxBytesMiddleware(1<<20),
//		httputil.ContentTypeMiddleware,
//	)(router)
//
// # Related Packages
//
//   - pkg/middleware: Authentication and authorization middleware
package httputil
