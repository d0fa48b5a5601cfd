package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/keygate/internal/infrastructure/database"
)

// PermissionRepository persists the permission catalog.
type PermissionRepository interface {
	Create(ctx context.Context, p *Permission) error
	GetByID(ctx context.Context, id string) (*Permission, error)
	GetByName(ctx context.Context, name string) (*Permission, error)
	List(ctx context.Context) ([]Permission, error)
	ListBySection(ctx context.Context, section string) ([]Permission, error)
}

// SQLitePermissionRepository implements PermissionRepository using SQLite.
type SQLitePermissionRepository struct {
	db *sql.DB
}

// NewPermissionRepository creates a new SQLite-backed permission repository.
func NewPermissionRepository(db *sql.DB) *SQLitePermissionRepository {
	return &SQLitePermissionRepository{db: db}
}

const permissionColumns = `id, name, description, section, created_at`

// Create inserts a permission after validating its name.
func (r *SQLitePermissionRepository) Create(ctx context.Context, p *Permission) error {
	if err := ValidatePermissionName(p.Name); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = database.NewID("prm-")
	}
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (id, name, description, section, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Section, database.FormatTime(p.CreatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrPermissionExists
		}
		return fmt.Errorf("creating permission: %w", err)
	}
	return nil
}

// GetByID retrieves a permission by ID.
func (r *SQLitePermissionRepository) GetByID(ctx context.Context, id string) (*Permission, error) {
	return scanPermission(r.db.QueryRowContext(ctx,
		"SELECT "+permissionColumns+" FROM permissions WHERE id = ?", id))
}

// GetByName retrieves a permission by its unique name.
func (r *SQLitePermissionRepository) GetByName(ctx context.Context, name string) (*Permission, error) {
	return scanPermission(r.db.QueryRowContext(ctx,
		"SELECT "+permissionColumns+" FROM permissions WHERE name = ?", name))
}

// List returns every permission ordered by section then name.
func (r *SQLitePermissionRepository) List(ctx context.Context) ([]Permission, error) {
	return r.query(ctx, "SELECT "+permissionColumns+" FROM permissions ORDER BY section, name")
}

// ListBySection returns the permissions of one section ordered by name.
func (r *SQLitePermissionRepository) ListBySection(ctx context.Context, section string) ([]Permission, error) {
	return r.query(ctx, "SELECT "+permissionColumns+" FROM permissions WHERE section = ? ORDER BY name", section)
}

func (r *SQLitePermissionRepository) query(ctx context.Context, query string, args ...any) ([]Permission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	perms := []Permission{}
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}
	return perms, nil
}

func scanPermission(s scanner) (*Permission, error) {
	var p Permission
	var createdAt string
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Section, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("scanning permission: %w", err)
	}
	p.CreatedAt = database.ParseTime(createdAt)
	return &p, nil
}
