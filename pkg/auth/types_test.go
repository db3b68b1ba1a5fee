package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"", RoleUser, false},
		{"user", RoleUser, false},
		{"admin", RoleAdmin, false},
		{" Admin ", RoleAdmin, false},
		{"superuser", "", true},
		{"root", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Errorf("ParseRole(%q) expected ErrInvalidRole, got %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole_Can(t *testing.T) {
	if !RoleAdmin.Can(CapabilityManageUsers) {
		t.Error("admin should manage users")
	}
	if RoleUser.Can(CapabilityManageUsers) {
		t.Error("standard user should not manage users")
	}
	if !RoleUser.Can(CapabilityReadProfile) {
		t.Error("standard user should read its profile")
	}
	if Role("bogus").Can(CapabilityReadProfile) {
		t.Error("unknown role should have no capabilities")
	}
}

func TestAuthContext_HasRole(t *testing.T) {
	tests := []struct {
		name string
		ac   *AuthContext
		role Role
		want bool
	}{
		{"nil context", nil, RoleAdmin, false},
		{"nil user", &AuthContext{}, RoleAdmin, false},
		{"admin user", &AuthContext{User: &User{Role: RoleAdmin}}, RoleAdmin, true},
		{"standard user", &AuthContext{User: &User{Role: RoleUser}}, RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ac.HasRole(tt.role); got != tt.want {
				t.Errorf("HasRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	u := &User{ID: "1", Name: "A", Email: "a@x.com", PasswordHash: "$2a$10$secret", Role: RoleUser}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "secret") || strings.Contains(strings.ToLower(string(data)), "password") {
		t.Errorf("serialized user leaks password: %s", data)
	}
}

func TestUser_Public(t *testing.T) {
	u := &User{ID: "1", PasswordHash: "hash"}
	pub := u.Public()
	if pub.PasswordHash != "" {
		t.Error("Public() should clear the hash")
	}
	if u.PasswordHash != "hash" {
		t.Error("Public() should not modify the receiver")
	}
	if (*User)(nil).Public() != nil {
		t.Error("Public() on nil should return nil")
	}
}
