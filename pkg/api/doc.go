// Package api provides the HTTP API server for Warden.
//
// # Overview
//
// The API is built on gorilla/mux and mounted under /api. Handlers are thin:
// they decode JSON, call users.Service and translate its errors into
// {"message": "..."} responses.
//
// # API Endpoints
//
// Public:
//
//	POST   /api/users/register    Create an account and return a token
//	POST   /api/auth/login        Exchange credentials for a token
//
// Authenticated (Bearer token):
//
//	GET    /api/auth/profile      Current user
//
// Admin only:
//
//	GET    /api/users             List users
//	PUT    /api/users/{id}        Update name, email or password
//	DELETE /api/users/{id}        Delete a user
//
// Documentation, when enabled:
//
//	GET    /api/openapi.yaml
//	GET    /api/openapi.json
//	GET    /api/docs
//
// Everything else is served by the optional frontend handler.
//
// # Usage
//
//	server := api.NewServer(svc, authMW, api.Options{
//		Logger:      logger,
//		Metrics:     metrics,
//		CORSOrigins: []string{"http://localhost:5173"},
//		Frontend:    web.Handler(),
//		Docs:        docs, // swagger.NewSwaggerHandlers("/api")
//	})
//	http.ListenAndServe(":5000", server)
//
// # Related Packages
//
//   - pkg/users: Account operations
//   - pkg/middleware: Bearer authentication and role gating
//   - pkg/httputil: JSON helpers and generic middleware
package api
