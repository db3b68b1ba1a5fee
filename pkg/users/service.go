package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
)

// Store is the subset of storage.UserStore the service needs
type Store interface {
	storage.UserReader
	storage.CredentialReader
	storage.UserWriter
}

// Recorder receives account events for metrics
type Recorder interface {
	RecordLogin(success bool)
	RecordRegistration(role string)
}

// Config controls token lifetimes and self-service admin signup
type Config struct {
	TokenTTL         time.Duration // login tokens
	RegisterTokenTTL time.Duration // registration tokens
	AllowAdminSignup bool
}

// Option configures a Service
type Option func(*Service)

// WithRecorder reports logins and registrations to rec
func WithRecorder(rec Recorder) Option {
	return func(s *Service) {
		s.recorder = rec
	}
}

// Service implements account operations on top of a Store
type Service struct {
	store     Store
	hasher    *auth.PasswordHasher
	issuer    *auth.TokenIssuer
	config    Config
	recorder  Recorder
	dummyHash string
}

// NewService creates a new Service
func NewService(store Store, hasher *auth.PasswordHasher, issuer *auth.TokenIssuer, config Config, opts ...Option) (*Service, error) {
	// Compared against when the login email is unknown so both failure paths cost one bcrypt verify
	dummyHash, err := hasher.Hash("warden-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare login hasher: %w", err)
	}

	s := &Service{
		store:     store,
		hasher:    hasher,
		issuer:    issuer,
		config:    config,
		dummyHash: dummyHash,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates the input, creates the user and issues a token carrying its role
func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *Session, err error) {
	ctx, span := observability.StartSpan(ctx, "users.Register")
	defer func() { observability.EndSpan(span, err) }()

	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, invalid("role", "Invalid role")
	}
	if role == auth.RoleAdmin && !s.config.AllowAdminSignup {
		return nil, invalid("role", "Admin registration is disabled")
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &auth.User{
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Role, s.config.RegisterTokenTTL)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID), attribute.String("user.role", string(user.Role)))
	if s.recorder != nil {
		s.recorder.RecordRegistration(string(user.Role))
	}
	return &Session{User: user.Public(), Token: token}, nil
}

// Login checks the credentials and issues a token without a role claim
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	ctx, span := observability.StartSpan(ctx, "users.Login")
	session, err := s.login(ctx, in)
	observability.EndSpan(span, err)
	if s.recorder != nil {
		s.recorder.RecordLogin(err == nil)
	}
	return session, err
}

func (s *Service) login(ctx context.Context, in LoginInput) (*Session, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.Verify(in.Password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, "", s.config.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{User: user.Public(), Token: token}, nil
}

// Get returns a single user
func (s *Service) Get(ctx context.Context, id string) (*auth.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// List returns every user ordered by creation time
func (s *Service) List(ctx context.Context) ([]*auth.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update applies a partial update. Unknown ids return storage.ErrNotFound.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (_ *auth.User, err error) {
	ctx, span := observability.StartSpan(ctx, "users.Update", attribute.String("user.id", id))
	defer func() { observability.EndSpan(span, err) }()

	var update auth.UserUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		update.Name = &name
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		update.Email = &email
	}

	if in.Password != nil && strings.TrimSpace(*in.Password) != "" {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &digest
	}

	if update.IsEmpty() {
		return s.store.GetUserByID(ctx, id)
	}

	user, err := s.store.UpdateUser(ctx, id, update)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Delete removes a user. Unknown ids return storage.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, "users.Delete", attribute.String("user.id", id))
	defer func() { observability.EndSpan(span, err) }()

	return s.store.DeleteUser(ctx, id)
}

// EnsureAdmin creates a bootstrap admin account unless the email is already registered.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	if err := validateName(name); err != nil {
		return false, err
	}
	if err := validateEmail(email); err != nil {
		return false, err
	}
	if err := validatePassword(password); err != nil {
		return false, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	admin := &auth.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: digest,
		Role:         auth.RoleAdmin,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	observability.FromContext(ctx).WithField("user_id", admin.ID).Infof("created bootstrap admin %s", email)
	return true, nil
}
