package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/middleware"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/users"
)

// DefaultMaxBodyBytes limits JSON request bodies
const DefaultMaxBodyBytes = 1 << 20

// Options configures the HTTP surface around the handlers
type Options struct {
	Logger       *observability.Logger
	Metrics      *observability.Metrics // nil disables request metrics
	CORSOrigins  []string
	MaxBodyBytes int64
	Tracing      bool         // wrap the server in otelhttp
	Frontend     http.Handler // served for every non-API path when set
	Docs         RouteRegistrar
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	users   *UserHandlers
	auth    *AuthHandlers
	authMW  *middleware.AuthMiddleware
}

// NewServer creates a new API server
func NewServer(svc *users.Service, authMW *middleware.AuthMiddleware, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		router: mux.NewRouter(),
		users:  NewUserHandlers(svc),
		auth:   NewAuthHandlers(svc),
		authMW: authMW,
	}
	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	s.setupRoutes(opts.Frontend, opts.Docs)

	handler := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(opts.Logger),
		httputil.RecoveryMiddleware,
		httputil.CORSMiddleware(opts.CORSOrigins),
		httputil.MaxBytesMiddleware(opts.MaxBodyBytes),
	)(s.router)
	if opts.Tracing {
		handler = otelhttp.NewHandler(handler, "warden-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "HTTP " + r.Method
			}),
		)
	}
	s.handler = handler
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(frontend http.Handler, docs RouteRegistrar) {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(httputil.ContentTypeMiddleware)

	authenticated := httputil.Chain(s.authMW.Authenticate, middleware.RequireCapability(auth.CapabilityReadProfile))
	adminOnly := httputil.Chain(s.authMW.Authenticate, middleware.RequireRole(auth.RoleAdmin))

	// Public routes
	api.HandleFunc("/users/register", s.users.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.auth.login).Methods(http.MethodPost)

	// Authenticated routes
	api.Handle("/auth/profile", authenticated(http.HandlerFunc(s.auth.profile))).Methods(http.MethodGet)

	// Admin routes
	api.Handle("/users", adminOnly(http.HandlerFunc(s.users.list))).Methods(http.MethodGet)
	api.Handle("/users/{id}", adminOnly(http.HandlerFunc(s.users.update))).Methods(http.MethodPut)
	api.Handle("/users/{id}", adminOnly(http.HandlerFunc(s.users.remove))).Methods(http.MethodDelete)

	// API documentation
	if docs != nil {
		docs.RegisterRoutes(api)
	}

	api.NotFoundHandler = http.HandlerFunc(notFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	if frontend != nil {
		s.router.PathPrefix("/").Handler(frontend)
	} else {
		s.router.NotFoundHandler = http.HandlerFunc(notFound)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router returns the underlying router without the outer middleware chain
func (s *Server) Router() *mux.Router {
	return s.router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNotFoundError(w, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}
