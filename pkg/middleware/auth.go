package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/contextkeys"
	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
)

// Client-facing messages. The underlying reason is only logged.
const (
	MsgNoToken     = "Not authorized, no token"
	MsgTokenFailed = "Not authorized, token failed"
	MsgAdminsOnly  = "Access denied. Admins only."
	MsgForbidden   = "Access denied."
)

// Failure reasons recorded for rejected credentials
const (
	ReasonMissingToken = "missing_token"
	ReasonInvalidToken = "invalid_token"
	ReasonExpiredToken = "expired_token"
	ReasonUnknownUser  = "unknown_user"
)

// TokenVerifier verifies a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserResolver loads the current user record, without its password hash
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*auth.User, error)
}

// FailureRecorder counts rejected credentials by reason
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// AuthMiddleware authenticates bearer tokens and attaches the resolved user
type AuthMiddleware struct {
	verifier TokenVerifier
	users    UserResolver
	failures FailureRecorder
}

// Option configures an AuthMiddleware
type Option func(*AuthMiddleware)

// WithFailureRecorder reports every rejected credential to rec
func WithFailureRecorder(rec FailureRecorder) Option {
	return func(m *AuthMiddleware) {
		m.failures = rec
	}
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier TokenVerifier, users UserResolver, opts ...Option) *AuthMiddleware {
	m := &AuthMiddleware{
		verifier: verifier,
		users:    users,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate rejects requests without a valid bearer token for an existing user.
// The store is only consulted after the token has verified.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := httputil.BearerToken(r)
		if !ok {
			m.reject(r, ReasonMissingToken, nil)
			httputil.WriteUnauthorized(w, MsgNoToken)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			reason := ReasonInvalidToken
			if errors.Is(err, auth.ErrTokenExpired) {
				reason = ReasonExpiredToken
			}
			m.reject(r, reason, err)
			httputil.WriteUnauthorized(w, MsgTokenFailed)
			return
		}

		user, err := m.users.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				m.reject(r, ReasonUnknownUser, err)
				httputil.WriteUnauthorized(w, MsgTokenFailed)
				return
			}
			observability.FromContext(r.Context()).WithError(err).Error("failed to resolve authenticated user")
			httputil.WriteInternalError(w)
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), &auth.AuthContext{User: user.Public()})
		ctx = contextkeys.WithUserID(ctx, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(r *http.Request, reason string, err error) {
	if m.failures != nil {
		m.failures.RecordAuthFailure(reason)
	}
	observability.FromContext(r.Context()).
		WithField("reason", reason).
		WithError(err).
		Info("authentication rejected")
}

// GetAuthContext extracts auth context from request
func GetAuthContext(r *http.Request) *auth.AuthContext {
	return contextkeys.GetAuth(r.Context())
}

// RequireRole allows only authenticated users holding exactly role.
// A request that reaches it without an auth context is rejected.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	message := MsgForbidden
	if role == auth.RoleAdmin {
		message = MsgAdminsOnly
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetAuthContext(r).HasRole(role) {
				httputil.WriteForbidden(w, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability allows only authenticated users whose role grants c
func RequireCapability(c auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetAuthContext(r).Can(c) {
				httputil.WriteForbidden(w, MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
