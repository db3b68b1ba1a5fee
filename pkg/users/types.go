package users

import (
	"errors"

	"github.com/platinummonkey/warden/pkg/auth"
)

var (
	// ErrUserExists is returned when the email is already registered
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed or missing input. Message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// RegisterInput is the registration request
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginInput is the login request
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateInput is a partial admin update. Nil fields are left untouched and a
// blank password keeps the current one.
type UpdateInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Session is an authenticated identity together with its bearer token
type Session struct {
	User  *auth.User
	Token string
}
