package storage

import (
	"context"
	"time"

	"github.com/platinummonkey/warden/pkg/auth"
)

// OperationObserver records the outcome of a store operation
type OperationObserver interface {
	ObserveStoreOperation(operation, backend string, duration time.Duration, err error)
}

// InstrumentedStore reports the duration and result of every call to an observer
type InstrumentedStore struct {
	next     UserStore
	backend  string
	observer OperationObserver
}

// Instrument wraps a store. A nil observer returns the store unchanged.
func Instrument(next UserStore, backend string, observer OperationObserver) UserStore {
	if observer == nil {
		return next
	}
	return &InstrumentedStore{next: next, backend: backend, observer: observer}
}

func (s *InstrumentedStore) observe(operation string, start time.Time, err error) {
	s.observer.ObserveStoreOperation(operation, s.backend, time.Since(start), err)
}

// CreateUser implements UserWriter.CreateUser
func (s *InstrumentedStore) CreateUser(ctx context.Context, user *auth.User) error {
	start := time.Now()
	err := s.next.CreateUser(ctx, user)
	s.observe("create_user", start, err)
	return err
}

// GetUserByID implements UserReader.GetUserByID
func (s *InstrumentedStore) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	start := time.Now()
	user, err := s.next.GetUserByID(ctx, id)
	s.observe("get_user_by_id", start, err)
	return user, err
}

// GetUserByEmail implements UserReader.GetUserByEmail
func (s *InstrumentedStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	start := time.Now()
	user, err := s.next.GetUserByEmail(ctx, email)
	s.observe("get_user_by_email", start, err)
	return user, err
}

// GetCredentialsByEmail implements CredentialReader.GetCredentialsByEmail
func (s *InstrumentedStore) GetCredentialsByEmail(ctx context.Context, email string) (*auth.User, error) {
	start := time.Now()
	user, err := s.next.GetCredentialsByEmail(ctx, email)
	s.observe("get_credentials_by_email", start, err)
	return user, err
}

// ListUsers implements UserReader.ListUsers
func (s *InstrumentedStore) ListUsers(ctx context.Context) ([]*auth.User, error) {
	start := time.Now()
	users, err := s.next.ListUsers(ctx)
	s.observe("list_users", start, err)
	return users, err
}

// UpdateUser implements UserWriter.UpdateUser
func (s *InstrumentedStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	start := time.Now()
	user, err := s.next.UpdateUser(ctx, id, update)
	s.observe("update_user", start, err)
	return user, err
}

// DeleteUser implements UserWriter.DeleteUser
func (s *InstrumentedStore) DeleteUser(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.DeleteUser(ctx, id)
	s.observe("delete_user", start, err)
	return err
}

// Ping implements HealthChecker.Ping
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close implements UserStore.Close
func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
