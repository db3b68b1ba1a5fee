package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/middleware"
	"github.com/platinummonkey/warden/pkg/users"
)

// AuthHandlers handles login and the current user's profile
type AuthHandlers struct {
	svc *users.Service
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(svc *users.Service) *AuthHandlers {
	return &AuthHandlers{svc: svc}
}

// login handles POST /api/auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req users.LoginInput
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	session, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, newSessionResponse(session))
}

// profile handles GET /api/auth/profile
func (h *AuthHandlers) profile(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteUnauthorized(w, middleware.MsgNoToken)
		return
	}
	httputil.WriteSuccess(w, authCtx.User)
}
