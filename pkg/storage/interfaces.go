package storage

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/warden/pkg/auth"
)

var (
	// ErrNotFound is returned when no user matches the id or email
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a write would violate email uniqueness
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserReader provides read access to user records.
// Returned users never carry a password hash.
type UserReader interface {
	GetUserByID(ctx context.Context, id string) (*auth.User, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.User, error)
	ListUsers(ctx context.Context) ([]*auth.User, error)
}

// CredentialReader is the only read path that returns the password hash
type CredentialReader interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*auth.User, error)
}

// UserWriter provides write access to user records
type UserWriter interface {
	// CreateUser persists a new user and assigns ID, CreatedAt and UpdatedAt
	CreateUser(ctx context.Context, user *auth.User) error
	UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// HealthChecker reports backend connectivity
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// UserStore is the full credential store used by the service layer
type UserStore interface {
	UserReader
	CredentialReader
	UserWriter
	HealthChecker
	Close() error
}

// Backend types
const (
	TypeMongo    = "mongo"
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// Config for storage backend
type Config struct {
	Type string `yaml:"type"` // "mongo", "postgres", "memory"

	// MongoDB config
	MongoURI      string        `yaml:"mongo_uri"`
	MongoDatabase string        `yaml:"mongo_database"`
	MongoTimeout  time.Duration `yaml:"mongo_timeout"`

	// PostgreSQL config
	PostgresURL      string        `yaml:"postgres_url"`
	PostgresMaxConns int           `yaml:"postgres_max_conns"`
	PostgresMinConns int           `yaml:"postgres_min_conns"`
	PostgresTimeout  time.Duration `yaml:"postgres_timeout"`

	// Redis config (shared user cache)
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPoolSize int    `yaml:"redis_pool_size"`

	// Cache config
	CacheEnabled bool          `yaml:"cache_enabled"`
	CacheSize    int           `yaml:"cache_size"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:             TypeMongo,
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "warden",
		MongoTimeout:     10 * time.Second,
		PostgresMaxConns: 10,
		PostgresMinConns: 2,
		PostgresTimeout:  5 * time.Second,
		RedisDB:          0,
		RedisPoolSize:    10,
		CacheEnabled:     true,
		CacheSize:        1024,
		CacheTTL:         30 * time.Second,
	}
}
