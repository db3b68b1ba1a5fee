package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/warden/pkg/auth"
)

// MemoryStore implements UserStore in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*auth.User
	byEmail map[string]string // email -> id
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*auth.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// CreateUser implements UserWriter.CreateUser
func (s *MemoryStore) CreateUser(ctx context.Context, user *auth.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}

	now := s.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[user.Email] = user.ID
	return nil
}

// GetUserByID implements UserReader.GetUserByID
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user.Public(), nil
}

// GetUserByEmail implements UserReader.GetUserByEmail
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, err := s.GetCredentialsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// GetCredentialsByEmail implements CredentialReader.GetCredentialsByEmail
func (s *MemoryStore) GetCredentialsByEmail(ctx context.Context, email string) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// ListUsers implements UserReader.ListUsers
func (s *MemoryStore) ListUsers(ctx context.Context) ([]*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	users := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Public())
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// UpdateUser implements UserWriter.UpdateUser
func (s *MemoryStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	if update.Email != nil && *update.Email != user.Email {
		if _, taken := s.byEmail[*update.Email]; taken {
			return nil, ErrDuplicateEmail
		}
		delete(s.byEmail, user.Email)
		s.byEmail[*update.Email] = id
		user.Email = *update.Email
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	user.UpdatedAt = s.now().UTC()

	return user.Public(), nil
}

// DeleteUser implements UserWriter.DeleteUser
func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, user.Email)
	delete(s.users, id)
	return nil
}

// Ping implements HealthChecker.Ping
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close implements UserStore.Close
func (s *MemoryStore) Close() error {
	return nil
}
