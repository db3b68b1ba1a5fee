package users

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// maxPasswordBytes is the bcrypt input limit
const maxPasswordBytes = 72

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "Name is required")
	}
	return nil
}

// validateEmail expects an already normalized address. Display names and
// addresses without a domain dot are rejected.
func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "Please provide a valid email")
	}
	_, domain, _ := strings.Cut(email, "@")
	if !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid("email", "Please provide a valid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return invalid("password", "Password must be at least 6 characters")
	}
	if len(password) > maxPasswordBytes {
		return invalid("password", "Password must be at most 72 bytes")
	}
	return nil
}
