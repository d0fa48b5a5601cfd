package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/keygate/internal/infrastructure/database"
)

// UserRepository persists users and their credential state.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetBySecretHash(ctx context.Context, secretHash string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)

	// SetKeyToken stores the pair only if neither is set yet.
	SetKeyToken(ctx context.Context, id, clientKey, tokenHash string) error

	// SetSecret stores the secret digest only if none is set and the stored
	// key and token still equal the presented ones.
	SetSecret(ctx context.Context, id, secretHash, clientKey, tokenHash string) error
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role_id, client_key, client_token, client_secret, created_at, updated_at`

// Create inserts a new user with no credentials. The ID is generated if empty.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = database.NewID("usr-")
	}
	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt, user.UpdatedAt = now, now
	user.ClientKey, user.ClientTokenHash, user.ClientSecretHash = "", "", ""

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.RoleID,
		database.FormatTime(now), database.FormatTime(now),
	)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return ErrEmailExists
	case database.IsForeignKeyViolation(err):
		return ErrRoleNotFound
	default:
		return fmt.Errorf("creating user: %w", err)
	}
}

// GetByID retrieves a user by ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetBySecretHash retrieves the user whose stored secret digest equals secretHash.
func (r *SQLiteUserRepository) GetBySecretHash(ctx context.Context, secretHash string) (*User, error) {
	if secretHash == "" {
		return nil, ErrUserNotFound
	}
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE client_secret = ?", secretHash))
}

// List returns all users ordered by creation date.
func (r *SQLiteUserRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Delete removes a user and with it all credential state.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the number of users.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// SetKeyToken stores the key and token digest in one conditional update.
// Of several concurrent callers exactly one sees nil; the rest see
// ErrKeyTokenIssued.
func (r *SQLiteUserRepository) SetKeyToken(ctx context.Context, id, clientKey, tokenHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET client_key = ?, client_token = ?, updated_at = ?
		 WHERE id = ? AND client_key IS NULL AND client_token IS NULL`,
		clientKey, tokenHash, database.FormatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("storing client key and token: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 1 { //nolint:errcheck // always succeeds on SQLite
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrKeyTokenIssued
}

// SetSecret stores the secret digest in one conditional update.
func (r *SQLiteUserRepository) SetSecret(ctx context.Context, id, secretHash, clientKey, tokenHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET client_secret = ?, updated_at = ?
		 WHERE id = ? AND client_secret IS NULL AND client_key = ? AND client_token = ?`,
		secretHash, database.FormatTime(time.Now()), id, clientKey, tokenHash,
	)
	if err != nil {
		return fmt.Errorf("storing client secret: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 1 { //nolint:errcheck // always succeeds on SQLite
		return nil
	}

	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.HasSecret() {
		return ErrSecretIssued
	}
	return ErrCredentialMismatch
}

func scanUser(s scanner) (*User, error) {
	var u User
	var key, token, secret sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID,
		&key, &token, &secret, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.ClientKey = key.String
	u.ClientTokenHash = token.String
	u.ClientSecretHash = secret.String
	u.CreatedAt = database.ParseTime(createdAt)
	u.UpdatedAt = database.ParseTime(updatedAt)
	return &u, nil
}
