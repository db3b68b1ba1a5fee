package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultConfig tests the DefaultConfig function
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, TypeMongo, cfg.Type)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "warden", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.MongoTimeout)
	assert.Equal(t, 10, cfg.PostgresMaxConns)
	assert.Equal(t, 2, cfg.PostgresMinConns)
	assert.Equal(t, 5*time.Second, cfg.PostgresTimeout)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 10, cfg.RedisPoolSize)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

// TestMemoryStore_ImplementsUserStore is a compile-time style check
func TestMemoryStore_ImplementsUserStore(t *testing.T) {
	var _ UserStore = NewMemoryStore()
	var _ UserStore = Instrument(NewMemoryStore(), TypeMemory, nil)
}
