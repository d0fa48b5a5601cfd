package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/keygate/internal/infrastructure/database"
)

// RoleRepository persists roles and their permission links.
type RoleRepository interface {
	// Create inserts role and links permissionIDs in one transaction.
	Create(ctx context.Context, role *Role, permissionIDs []string) error
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]RoleWithPermissions, error)
	RoleWithPermissions(ctx context.Context, id string) (*RoleWithPermissions, error)

	// PermissionNames returns the effective permission names of a role.
	// A missing role is ErrRoleNotFound; a role with no links yields an
	// empty slice.
	PermissionNames(ctx context.Context, roleID string) ([]string, error)

	Update(ctx context.Context, id string, patch RolePatch) (*Role, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRoleRepository implements RoleRepository using SQLite.
type SQLiteRoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new SQLite-backed role repository.
func NewRoleRepository(db *sql.DB) *SQLiteRoleRepository {
	return &SQLiteRoleRepository{db: db}
}

const roleColumns = `id, name, description, created_at, updated_at`

// Create inserts role and its links atomically. Every permission ID must
// exist; otherwise nothing is written and ErrPermissionNotFound is returned.
func (r *SQLiteRoleRepository) Create(ctx context.Context, role *Role, permissionIDs []string) error {
	if err := ValidateRoleName(role.Name); err != nil {
		return err
	}
	if role.ID == "" {
		role.ID = database.NewID("rol-")
	}
	now := time.Now().UTC().Truncate(time.Second)
	role.CreatedAt, role.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO roles (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		role.ID, role.Name, role.Description, database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrRoleExists
		}
		return fmt.Errorf("creating role: %w", err)
	}

	if err := linkPermissions(ctx, tx, role.ID, permissionIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by ID.
func (r *SQLiteRoleRepository) GetByID(ctx context.Context, id string) (*Role, error) {
	return scanRole(r.db.QueryRowContext(ctx, "SELECT "+roleColumns+" FROM roles WHERE id = ?", id))
}

// GetByName retrieves a role by its unique name.
func (r *SQLiteRoleRepository) GetByName(ctx context.Context, name string) (*Role, error) {
	return scanRole(r.db.QueryRowContext(ctx, "SELECT "+roleColumns+" FROM roles WHERE name = ?", name))
}

// List returns every role with its permission names, ordered by role name.
func (r *SQLiteRoleRepository) List(ctx context.Context) ([]RoleWithPermissions, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at, p.name
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		ORDER BY r.name, r.id, p.name`)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	roles := []RoleWithPermissions{}
	for rows.Next() {
		var role Role
		var createdAt, updatedAt string
		var perm sql.NullString
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &createdAt, &updatedAt, &perm); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}

		if n := len(roles); n == 0 || roles[n-1].ID != role.ID {
			role.CreatedAt = database.ParseTime(createdAt)
			role.UpdatedAt = database.ParseTime(updatedAt)
			roles = append(roles, RoleWithPermissions{Role: role, Permissions: []string{}})
		}
		if perm.Valid {
			last := &roles[len(roles)-1]
			last.Permissions = append(last.Permissions, perm.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}
	return roles, nil
}

// RoleWithPermissions returns a role and its effective permission names.
func (r *SQLiteRoleRepository) RoleWithPermissions(ctx context.Context, id string) (*RoleWithPermissions, error) {
	role, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	names, err := r.permissionNames(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoleWithPermissions{Role: *role, Permissions: names}, nil
}

// PermissionNames returns the names reachable through the role's links.
func (r *SQLiteRoleRepository) PermissionNames(ctx context.Context, roleID string) ([]string, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM roles WHERE id = ?", roleID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("checking role: %w", err)
	}
	return r.permissionNames(ctx, roleID)
}

func (r *SQLiteRoleRepository) permissionNames(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.name FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ?
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("loading role permissions: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning permission name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating role permissions: %w", err)
	}
	return names, nil
}

// Update applies patch atomically. Already linked permissions are ignored;
// an unknown permission ID aborts the whole patch.
func (r *SQLiteRoleRepository) Update(ctx context.Context, id string, patch RolePatch) (*Role, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	role, err := scanRole(tx.QueryRowContext(ctx, "SELECT "+roleColumns+" FROM roles WHERE id = ?", id))
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := ValidateRoleName(*patch.Name); err != nil {
			return nil, err
		}
		role.Name = *patch.Name
	}
	if patch.Description != nil {
		role.Description = *patch.Description
	}
	role.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	_, err = tx.ExecContext(ctx,
		`UPDATE roles SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		role.Name, role.Description, database.FormatTime(role.UpdatedAt), id,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrRoleExists
		}
		return nil, fmt.Errorf("updating role: %w", err)
	}

	if err := linkPermissions(ctx, tx, id, patch.AddPermissionIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing role update: %w", err)
	}
	return role, nil
}

// Delete removes a role that no user references.
func (r *SQLiteRoleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var users int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role_id = ?", id).Scan(&users); err != nil {
		return fmt.Errorf("counting role users: %w", err)
	}
	if users > 0 {
		return ErrRoleInUse
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrRoleNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing role delete: %w", err)
	}
	return nil
}

// linkPermissions adds role_permissions rows inside tx. Existing links are
// kept as they are.
func linkPermissions(ctx context.Context, tx *sql.Tx, roleID string, permissionIDs []string) error {
	for _, pid := range permissionIDs {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM permissions WHERE id = ?", pid).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrPermissionNotFound, pid)
			}
			return fmt.Errorf("checking permission %s: %w", pid, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)",
			roleID, pid,
		); err != nil {
			return fmt.Errorf("linking permission %s: %w", pid, err)
		}
	}
	return nil
}

func scanRole(s scanner) (*Role, error) {
	var role Role
	var createdAt, updatedAt string
	if err := s.Scan(&role.ID, &role.Name, &role.Description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("scanning role: %w", err)
	}
	role.CreatedAt = database.ParseTime(createdAt)
	role.UpdatedAt = database.ParseTime(updatedAt)
	return &role, nil
}
