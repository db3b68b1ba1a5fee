package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
	"github.com/platinummonkey/warden/pkg/users"
)

// Client-facing messages
const (
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserNotFound       = "User not found"
	MsgUserDeleted        = "User deleted"
)

// writeServiceError translates a users.Service error into exactly one response.
// Unexpected errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *users.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteBadRequest(w, verr.Message)
	case errors.Is(err, users.ErrUserExists):
		httputil.WriteBadRequest(w, MsgUserExists)
	case errors.Is(err, users.ErrInvalidCredentials):
		httputil.WriteBadRequest(w, MsgInvalidCredentials)
	case errors.Is(err, storage.ErrNotFound):
		httputil.WriteNotFoundError(w, MsgUserNotFound)
	default:
		observability.FromContext(r.Context()).
			WithError(err).
			WithField("path", r.URL.Path).
			Error("request failed")
		httputil.WriteInternalError(w)
	}
}
