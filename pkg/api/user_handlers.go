package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/users"
)

// UserHandlers handles registration and admin user management
type UserHandlers struct {
	svc *users.Service
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(svc *users.Service) *UserHandlers {
	return &UserHandlers{svc: svc}
}

// register handles POST /api/users/register
func (h *UserHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterInput
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	session, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, newSessionResponse(session))
}

// list handles GET /api/users
func (h *UserHandlers) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if all == nil {
		all = []*auth.User{}
	}
	httputil.WriteSuccess(w, all)
}

// update handles PUT /api/users/{id}
func (h *UserHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req users.UpdateInput
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// remove handles DELETE /api/users/{id}
func (h *UserHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, MsgUserDeleted)
}
