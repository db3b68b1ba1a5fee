// Package cache provides a read-through cache in front of a storage.UserStore.
//
// Lookups by id go to an in-process expirable LRU first, then to Redis when
// configured, then to the wrapped store. Updates and deletes invalidate both
// tiers before returning.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
)

// invalidateTimeout bounds a Redis DEL issued after the store write has committed
const invalidateTimeout = 2 * time.Second

// Stats holds cache counters
type Stats struct {
	Hits      int64
	Misses    int64
	RedisHits int64
}

// flight tracks the reads of one id that are between lookup and fill.
// gen is bumped by every invalidation of that id.
type flight struct {
	readers int
	gen     uint64
}

// Store wraps a storage.UserStore with a two-tier user cache
type Store struct {
	next  storage.UserStore
	local *lru.LRU[string, *auth.User]
	redis *RedisClient

	// ids whose Redis entry could not be deleted; their Redis tier is bypassed
	stale *lru.LRU[string, struct{}]

	mu      sync.Mutex
	flights map[string]*flight

	hits      atomic.Int64
	misses    atomic.Int64
	redisHits atomic.Int64
}

// New creates a caching store. redisClient may be nil.
func New(next storage.UserStore, size int, ttl time.Duration, redisClient *RedisClient) *Store {
	if size < 1 {
		size = 1
	}
	return &Store{
		next:    next,
		local:   lru.NewLRU[string, *auth.User](size, nil, ttl),
		redis:   redisClient,
		stale:   lru.NewLRU[string, struct{}](size, nil, ttl),
		flights: make(map[string]*flight),
	}
}

func clone(u *auth.User) *auth.User {
	cp := *u
	return &cp
}

func (s *Store) begin(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		f = &flight{}
		s.flights[id] = f
	}
	f.readers++
	return f.gen
}

func (s *Store) end(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.flights[id]; f != nil {
		f.readers--
		if f.readers == 0 {
			delete(s.flights, id)
		}
	}
}

func (s *Store) current(id string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.flights[id]
	return f != nil && f.gen == gen
}

// fillLocal caches user unless id was invalidated after gen was taken
func (s *Store) fillLocal(id string, user *auth.User, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.flights[id]; f == nil || f.gen != gen {
		return false
	}
	s.local.Add(id, clone(user))
	return true
}

// GetUserByID implements storage.UserReader.GetUserByID
func (s *Store) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	if user, ok := s.local.Get(id); ok {
		s.hits.Add(1)
		return clone(user), nil
	}

	gen := s.begin(id)
	defer s.end(id)

	stale := s.stale.Contains(id)
	if s.redis != nil && !stale {
		// redis errors fall through to the store
		if user, err := s.redis.GetUser(ctx, id); err == nil && user != nil {
			s.redisHits.Add(1)
			s.fillLocal(id, user, gen)
			return clone(user), nil
		}
	}

	s.misses.Add(1)
	user, err := s.next.GetUserByID(ctx, id)
	if err != nil {
		if stale && errors.Is(err, storage.ErrNotFound) {
			// retry the delete that failed when the user was removed
			_ = s.invalidateRedis(ctx, id)
		}
		return nil, err
	}

	if s.fillLocal(id, user, gen) && s.redis != nil {
		s.publish(ctx, id, user, gen)
	}
	return user, nil
}

// publish writes user to Redis, deleting it again if an invalidation raced the write
func (s *Store) publish(ctx context.Context, id string, user *auth.User, gen uint64) {
	if err := s.redis.SetUser(ctx, user); err != nil {
		observability.FromContext(ctx).WithError(err).WithField("user_id", id).Debug("Failed to cache user in redis")
		return
	}
	s.stale.Remove(id)
	if !s.current(id, gen) {
		_ = s.invalidateRedis(ctx, id)
	}
}

func (s *Store) invalidate(ctx context.Context, id string) {
	s.mu.Lock()
	if f := s.flights[id]; f != nil {
		f.gen++
	}
	s.local.Remove(id)
	s.mu.Unlock()

	if s.redis != nil {
		_ = s.invalidateRedis(ctx, id)
	}
}

// invalidateRedis deletes the Redis entry on a context that outlives the
// request. On failure the id is marked stale so this process stops trusting
// the Redis tier for it.
func (s *Store) invalidateRedis(ctx context.Context, id string) error {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	if err := s.redis.InvalidateUser(delCtx, id); err != nil {
		s.stale.Add(id, struct{}{})
		observability.FromContext(ctx).WithError(err).WithField("user_id", id).Warn("Failed to invalidate cached user in redis")
		return err
	}
	s.stale.Remove(id)
	return nil
}

// GetUserByEmail implements storage.UserReader.GetUserByEmail
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.next.GetUserByEmail(ctx, email)
}

// GetCredentialsByEmail implements storage.CredentialReader.GetCredentialsByEmail
func (s *Store) GetCredentialsByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.next.GetCredentialsByEmail(ctx, email)
}

// ListUsers implements storage.UserReader.ListUsers
func (s *Store) ListUsers(ctx context.Context) ([]*auth.User, error) {
	return s.next.ListUsers(ctx)
}

// CreateUser implements storage.UserWriter.CreateUser
func (s *Store) CreateUser(ctx context.Context, user *auth.User) error {
	return s.next.CreateUser(ctx, user)
}

// UpdateUser implements storage.UserWriter.UpdateUser
func (s *Store) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	user, err := s.next.UpdateUser(ctx, id, update)
	s.invalidate(ctx, id)
	return user, err
}

// DeleteUser implements storage.UserWriter.DeleteUser
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	err := s.next.DeleteUser(ctx, id)
	s.invalidate(ctx, id)
	return err
}

// Ping checks the wrapped store and Redis
func (s *Store) Ping(ctx context.Context) error {
	if err := s.next.Ping(ctx); err != nil {
		return err
	}
	if s.redis != nil {
		return s.redis.Ping(ctx)
	}
	return nil
}

// Close closes Redis and the wrapped store
func (s *Store) Close() error {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return s.next.Close()
}

// Stats returns hit and miss counters
func (s *Store) Stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		RedisHits: s.redisHits.Load(),
	}
}

// Len returns the number of entries in the local tier
func (s *Store) Len() int {
	return s.local.Len()
}
