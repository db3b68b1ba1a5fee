package cli

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/platinummonkey/warden/pkg/api"
	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/middleware"
	"github.com/platinummonkey/warden/pkg/storage"
	"github.com/platinummonkey/warden/pkg/users"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func startServer(t *testing.T) string {
	t.Helper()
	store := storage.NewMemoryStore()
	issuer := auth.NewTokenIssuer([]byte("cli-test-secret-value"))
	svc, err := users.NewService(store, auth.NewPasswordHasher(bcrypt.MinCost), issuer, users.Config{
		TokenTTL:         time.Hour,
		RegisterTokenTTL: time.Hour,
		AllowAdminSignup: true,
	})
	require.NoError(t, err)

	server := httptest.NewServer(api.NewServer(svc, middleware.NewAuthMiddleware(issuer, store), api.Options{}))
	t.Cleanup(server.Close)
	return server.URL
}

// run executes one CLI invocation and returns its output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewRootCommand(&out, quietLogger()).Execute(args)
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand(io.Discard, quietLogger())

	assert.Equal(t, "warden-cli", root.Name)
	for _, name := range []string{"register", "login", "profile", "users"} {
		assert.Contains(t, root.Subcommands, name)
	}
	assert.Len(t, root.Subcommands, 4)

	for _, name := range []string{"list", "update", "delete"} {
		assert.Contains(t, root.Subcommands["users"].Subcommands, name)
	}
}

func TestCommandUsage(t *testing.T) {
	output, err := run(t)
	require.NoError(t, err)

	assert.Contains(t, output, "Usage: warden-cli <command> [args]")
	assert.Less(t, strings.Index(output, "login"), strings.Index(output, "register"), "commands are sorted")

	output, err = run(t, "users", "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "Manage users")
	assert.Contains(t, output, "delete")
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "frobnicate")
	assert.EqualError(t, err, "unknown command: frobnicate")
}

func TestMissingArguments(t *testing.T) {
	t.Setenv("WARDEN_TOKEN", "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"register", "--name", "A"}, "name, email and password are required"},
		{[]string{"login", "--email", "a@x.com"}, "email and password are required"},
		{[]string{"profile"}, "a token is required"},
		{[]string{"users", "list"}, "a token is required"},
		{[]string{"users", "update"}, "id is required"},
		{[]string{"users", "update", "--id", "1", "--token", "t"}, "nothing to update"},
		{[]string{"users", "delete"}, "id is required"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWorkflow(t *testing.T) {
	server := startServer(t)
	t.Setenv("WARDEN_URL", server)
	t.Setenv("WARDEN_TOKEN", "")

	adminToken, err := run(t, "register", "--name", "Root", "--email", "root@x.com", "--password", "secret1", "--role", "admin", "--quiet")
	require.NoError(t, err)
	adminToken = strings.TrimSpace(adminToken)
	require.NotEmpty(t, adminToken)

	output, err := run(t, "register", "--name", "Ada", "--email", "ada@x.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, output, "Email: ada@x.com")
	assert.Contains(t, output, "Role:  user")

	userToken, err := run(t, "login", "--email", "ada@x.com", "--password", "secret1", "--quiet")
	require.NoError(t, err)
	userToken = strings.TrimSpace(userToken)

	_, err = run(t, "login", "--email", "ada@x.com", "--password", "wrong!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")

	output, err = run(t, "profile", "--token", userToken)
	require.NoError(t, err)
	assert.Contains(t, output, "Name:  Ada")

	_, err = run(t, "users", "list", "--token", userToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access denied. Admins only.")

	t.Setenv("WARDEN_TOKEN", adminToken)
	output, err = run(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "EMAIL")
	assert.Contains(t, output, "ada@x.com")
	assert.Contains(t, output, "root@x.com")

	var adaID string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "ada@x.com") {
			adaID = strings.Fields(line)[0]
		}
	}
	require.NotEmpty(t, adaID)

	output, err = run(t, "users", "update", "--id", adaID, "--name", "Ada Lovelace")
	require.NoError(t, err)
	assert.Contains(t, output, "Ada Lovelace")

	output, err = run(t, "users", "delete", "--id", adaID)
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted "+adaID)

	_, err = run(t, "users", "delete", "--id", adaID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User not found")
}
