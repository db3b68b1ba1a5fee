//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/storage"
)

func setupPostgresContainer(t *testing.T) *UserStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("warden_test"),
		tcpostgres.WithUsername("warden"),
		tcpostgres.WithPassword("warden"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := storage.DefaultConfig()
	cfg.PostgresURL = connStr
	cfg.PostgresTimeout = 10 * time.Second

	store, err := NewUserStoreFromConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserStore_Integration(t *testing.T) {
	store := setupPostgresContainer(t)
	ctx := context.Background()

	ann := &auth.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: auth.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, ann))

	dup := &auth.User{Name: "Dup", Email: "ann@example.com", PasswordHash: "hash", Role: auth.RoleUser}
	assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrDuplicateEmail)

	got, err := store.GetUserByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Empty(t, got.PasswordHash)

	creds, err := store.GetCredentialsByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", creds.PasswordHash)

	name := "Annie"
	updated, err := store.UpdateUser(ctx, ann.ID, auth.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, store.DeleteUser(ctx, ann.ID))
	_, err = store.GetUserByID(ctx, ann.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// migrations are idempotent
	require.NoError(t, Migrate(ctx, store.DB()))
}
