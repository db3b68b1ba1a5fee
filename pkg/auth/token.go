package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and unexpected algorithms
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a correctly signed token past its expiry
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the payload of a bearer token
type Claims struct {
	UserID string `json:"uid"`
	Role   Role   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens with a server secret
type TokenIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// TokenOption configures a TokenIssuer
type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and verifying
func WithClock(now func() time.Time) TokenOption {
	return func(ti *TokenIssuer) {
		ti.now = now
	}
}

// WithIssuer sets the iss claim; verification then requires it
func WithIssuer(issuer string) TokenOption {
	return func(ti *TokenIssuer) {
		ti.issuer = issuer
	}
}

// NewTokenIssuer creates a token issuer. The secret is copied.
func NewTokenIssuer(secret []byte, opts ...TokenOption) *TokenIssuer {
	ti := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ti)
	}
	return ti
}

// Issue creates a signed token for the user. An empty role is left out of the payload.
func (ti *TokenIssuer) Issue(userID string, role Role, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	now := ti.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Errors are ErrTokenExpired or ErrTokenInvalid.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
