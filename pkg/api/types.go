package api

import "github.com/platinummonkey/warden/pkg/users"

// SessionResponse is returned by register and login
type SessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func newSessionResponse(session *users.Session) SessionResponse {
	return SessionResponse{
		ID:    session.User.ID,
		Name:  session.User.Name,
		Email: session.User.Email,
		Role:  string(session.User.Role),
		Token: session.Token,
	}
}
