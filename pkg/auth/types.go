package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// User represents a registered account.
// PasswordHash is only populated by the credentials lookup used at login.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose hash
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public returns a copy of the user with the password hash cleared
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

// UserUpdate holds a partial update of a user record. Nil fields are left untouched.
// PasswordHash must already be hashed.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether the update changes nothing
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil
}

// Role represents an account role
type Role string

const (
	RoleUser  Role = "user"  // Standard account
	RoleAdmin Role = "admin" // Can manage all users
)

// ErrInvalidRole is returned by ParseRole for values outside the enumeration
var ErrInvalidRole = errors.New("invalid role")

// ParseRole parses a role name. An empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Capability is an operation a role may be allowed to perform
type Capability string

const (
	CapabilityReadProfile Capability = "profile:read"
	CapabilityManageUsers Capability = "users:manage"
)

var roleCapabilities = map[Role][]Capability{
	RoleUser:  {CapabilityReadProfile},
	RoleAdmin: {CapabilityReadProfile, CapabilityManageUsers},
}

// Can reports whether the role grants the capability
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// AuthContext holds authenticated user information
type AuthContext struct {
	User *User
}

// HasRole checks if the authenticated user has exactly the given role
func (ac *AuthContext) HasRole(role Role) bool {
	if ac == nil || ac.User == nil {
		return false
	}
	return ac.User.Role == role
}

// Can checks if the authenticated user's role grants the capability
func (ac *AuthContext) Can(c Capability) bool {
	if ac == nil || ac.User == nil {
		return false
	}
	return ac.User.Role.Can(c)
}
