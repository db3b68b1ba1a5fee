package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordHasher_Cost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{"minimum cost", bcrypt.MinCost, bcrypt.MinCost},
		{"default cost", DefaultBcryptCost, DefaultBcryptCost},
		{"too low falls back", 1, DefaultBcryptCost},
		{"too high falls back", bcrypt.MaxCost + 1, DefaultBcryptCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPasswordHasher(tt.cost).Cost(); got != tt.want {
				t.Errorf("Cost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if digest == "secret1" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !h.Verify("secret1", digest) {
		t.Error("Verify() should accept the original password")
	}
	if h.Verify("secret2", digest) {
		t.Error("Verify() should reject a different password")
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	for _, digest := range []string{"", "plain", "$2a$10$short"} {
		if h.Verify("secret1", digest) {
			t.Errorf("Verify() accepted malformed digest %q", digest)
		}
	}
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", 73))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}
