package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/storage"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

const userColumns = `id, name, email, role, created_at, updated_at`

// UserStore implements storage.UserStore using PostgreSQL
type UserStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserStore creates a store on an open database handle
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

// NewUserStoreFromConfig opens a connection, applies migrations and returns a store
func NewUserStoreFromConfig(ctx context.Context, config storage.Config) (*UserStore, error) {
	db, err := Open(ctx, ConnectionConfig{
		URL:      config.PostgresURL,
		MaxConns: config.PostgresMaxConns,
		MinConns: config.PostgresMinConns,
		Timeout:  config.PostgresTimeout,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewUserStore(db), nil
}

// DB returns the underlying handle for health checks
func (s *UserStore) DB() *sql.DB {
	return s.db
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner, withPassword bool) (*auth.User, error) {
	var (
		user auth.User
		role string
	)
	dest := []interface{}{&user.ID, &user.Name, &user.Email, &role, &user.CreatedAt, &user.UpdatedAt}
	if withPassword {
		dest = append(dest, &user.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	user.Role = auth.Role(role)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// validID reports whether id can name a row; the id column is a UUID
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CreateUser implements storage.UserWriter.CreateUser
func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) error {
	id := uuid.NewString()
	now := s.now().UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		id, user.Name, user.Email, user.PasswordHash, string(user.Role), now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByID implements storage.UserReader.GetUserByID
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	if !validID(id) {
		return nil, storage.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return s.scanOne(row, false)
}

// GetUserByEmail implements storage.UserReader.GetUserByEmail
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return s.scanOne(row, false)
}

// GetCredentialsByEmail implements storage.CredentialReader.GetCredentialsByEmail
func (s *UserStore) GetCredentialsByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`, email)
	return s.scanOne(row, true)
}

func (s *UserStore) scanOne(row *sql.Row, withPassword bool) (*auth.User, error) {
	user, err := scanUser(row, withPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers implements storage.UserReader.ListUsers
func (s *UserStore) ListUsers(ctx context.Context) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0)
	for rows.Next() {
		user, err := scanUser(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser implements storage.UserWriter.UpdateUser
func (s *UserStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	if !validID(id) {
		return nil, storage.ErrNotFound
	}

	sets := []string{"updated_at = $1"}
	args := []interface{}{s.now().UTC().Truncate(time.Microsecond)}
	add := func(column string, value string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.PasswordHash != nil {
		add("password_hash", *update.PasswordHash)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, storage.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser implements storage.UserWriter.DeleteUser
func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return storage.ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Ping implements storage.HealthChecker.Ping
func (s *UserStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *UserStore) Close() error {
	return s.db.Close()
}
