package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/storage"
)

var testSecret = []byte("middleware-test-secret")

type countingResolver struct {
	users map[string]*auth.User
	err   error
	calls int
}

func (c *countingResolver) GetUserByID(_ context.Context, id string) (*auth.User, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	user, ok := c.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user.Public(), nil
}

type recordingFailures struct {
	reasons []string
}

func (r *recordingFailures) RecordAuthFailure(reason string) {
	r.reasons = append(r.reasons, reason)
}

func newResolver() *countingResolver {
	return &countingResolver{users: map[string]*auth.User{
		"u-1": {ID: "u-1", Name: "Ada", Email: "ada@example.com", Role: auth.RoleUser, PasswordHash: "hash"},
		"a-1": {ID: "a-1", Name: "Root", Email: "root@example.com", Role: auth.RoleAdmin, PasswordHash: "hash"},
	}}
}

func issue(t *testing.T, issuer *auth.TokenIssuer, userID string) string {
	t.Helper()
	token, err := issuer.Issue(userID, "", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

// okHandler echoes the authenticated user's id
func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r)
		if authCtx == nil || authCtx.User == nil {
			t.Error("expected auth context in protected handler")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(authCtx.User.ID))
	})
}

func TestAuthenticate_MissingOrMalformedHeader(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret)
	token := issue(t, issuer, "u-1")

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"token without scheme", token},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newResolver()
			failures := &recordingFailures{}
			mw := NewAuthMiddleware(issuer, resolver, WithFailureRecorder(failures))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.Authenticate(okHandler(t)).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if msg := decodeMessage(t, rec); msg != MsgNoToken {
				t.Errorf("message = %q, want %q", msg, MsgNoToken)
			}
			if resolver.calls != 0 {
				t.Errorf("store was queried %d times for a request without a token", resolver.calls)
			}
			if len(failures.reasons) != 1 || failures.reasons[0] != ReasonMissingToken {
				t.Errorf("failures = %v, want [%s]", failures.reasons, ReasonMissingToken)
			}
		})
	}
}

func TestAuthenticate_TokenFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := auth.NewTokenIssuer(testSecret, auth.WithClock(func() time.Time { return now }))
	expiredIssuer := auth.NewTokenIssuer(testSecret, auth.WithClock(func() time.Time { return now.Add(-48 * time.Hour) }))
	foreignIssuer := auth.NewTokenIssuer([]byte("some-other-secret-value"))

	expired, err := expiredIssuer.Issue("u-1", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	userToken := strings.Split(issue(t, issuer, "u-1"), ".")
	adminToken := strings.Split(issue(t, issuer, "a-1"), ".")
	tampered := strings.Join([]string{adminToken[0], adminToken[1], userToken[2]}, ".")

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{"garbage", "not.a.jwt", ReasonInvalidToken},
		{"wrong secret", issue(t, foreignIssuer, "u-1"), ReasonInvalidToken},
		{"tampered", tampered, ReasonInvalidToken},
		{"expired", expired, ReasonExpiredToken},
		{"deleted user", issue(t, issuer, "gone"), ReasonUnknownUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := &recordingFailures{}
			mw := NewAuthMiddleware(issuer, newResolver(), WithFailureRecorder(failures))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			mw.Authenticate(okHandler(t)).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if msg := decodeMessage(t, rec); msg != MsgTokenFailed {
				t.Errorf("message = %q, want %q", msg, MsgTokenFailed)
			}
			if len(failures.reasons) != 1 || failures.reasons[0] != tt.reason {
				t.Errorf("failures = %v, want [%s]", failures.reasons, tt.reason)
			}
		})
	}
}

func TestAuthenticate_StoreError(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret)
	resolver := newResolver()
	resolver.err = errors.New("connection reset")
	failures := &recordingFailures{}
	mw := NewAuthMiddleware(issuer, resolver, WithFailureRecorder(failures))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, issuer, "u-1"))
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if msg := decodeMessage(t, rec); msg != httputil.ServerErrorMessage {
		t.Errorf("message = %q, want %q", msg, httputil.ServerErrorMessage)
	}
	if len(failures.reasons) != 0 {
		t.Errorf("store errors should not count as auth failures, got %v", failures.reasons)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret)
	mw := NewAuthMiddleware(issuer, newResolver())

	var seen *auth.AuthContext
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthContext(r)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "bearer "+issue(t, issuer, "u-1"))
	rec := httptest.NewRecorder()
	mw.Authenticate(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if seen == nil || seen.User == nil {
		t.Fatal("expected auth context")
	}
	if seen.User.ID != "u-1" || seen.User.Role != auth.RoleUser {
		t.Errorf("user = %+v", seen.User)
	}
	if seen.User.PasswordHash != "" {
		t.Error("password hash leaked into request context")
	}
}

func TestGetAuthContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetAuthContext(req) != nil {
		t.Error("expected nil auth context")
	}
}

func TestRequireRole(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret)
	mw := NewAuthMiddleware(issuer, newResolver())
	admin := httputil.Chain(mw.Authenticate, RequireRole(auth.RoleAdmin))

	tests := []struct {
		name       string
		userID     string
		wantStatus int
		wantMsg    string
	}{
		{"admin passes", "a-1", http.StatusOK, ""},
		{"user rejected", "u-1", http.StatusForbidden, MsgAdminsOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, issuer, tt.userID))
			rec := httptest.NewRecorder()
			admin(okHandler(t)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantMsg != "" {
				if msg := decodeMessage(t, rec); msg != tt.wantMsg {
					t.Errorf("message = %q, want %q", msg, tt.wantMsg)
				}
			} else if rec.Body.String() != tt.userID {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.userID)
			}
		})
	}
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	called := false
	handler := RequireRole(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/users/x", nil))

	if called {
		t.Error("handler must not run without an auth context")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if msg := decodeMessage(t, rec); msg != MsgAdminsOnly {
		t.Errorf("message = %q, want %q", msg, MsgAdminsOnly)
	}
}

func TestRequireCapability(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret)
	mw := NewAuthMiddleware(issuer, newResolver())

	for _, tc := range []struct {
		userID     string
		capability auth.Capability
		want       int
	}{
		{"u-1", auth.CapabilityReadProfile, http.StatusOK},
		{"u-1", auth.CapabilityManageUsers, http.StatusForbidden},
		{"a-1", auth.CapabilityManageUsers, http.StatusOK},
	} {
		handler := httputil.Chain(mw.Authenticate, RequireCapability(tc.capability))(okHandler(t))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, issuer, tc.userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Errorf("%s/%s: status = %d, want %d", tc.userID, tc.capability, rec.Code, tc.want)
		}
	}
}
