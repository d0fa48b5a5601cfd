package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/keygate/internal/events"
)

// Registry manages the permission catalog and the roles built from it.
type Registry struct {
	roles RoleRepository
	perms PermissionRepository
	hooks hooks
}

// NewRegistry creates a Registry.
func NewRegistry(roles RoleRepository, perms PermissionRepository, opts ...Option) *Registry {
	return &Registry{roles: roles, perms: perms, hooks: newHooks(opts)}
}

// CreatePermission adds a permission to the catalog.
func (r *Registry) CreatePermission(ctx context.Context, p *Permission) error {
	if strings.TrimSpace(p.Section) == "" {
		return fmt.Errorf("%w: section is required", ErrValidation)
	}
	if err := r.perms.Create(ctx, p); err != nil {
		return err
	}
	r.hooks.publish(ctx, events.New(events.TypePermissionCreated, "permission", p.ID).
		With("name", p.Name).
		With("section", p.Section))
	return nil
}

// GetPermission returns one permission.
func (r *Registry) GetPermission(ctx context.Context, id string) (*Permission, error) {
	return r.perms.GetByID(ctx, id)
}

// ListPermissions returns the whole catalog.
func (r *Registry) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.perms.List(ctx)
}

// PermissionsBySection returns the permissions of section. An unknown or
// empty section is ErrNotFound.
func (r *Registry) PermissionsBySection(ctx context.Context, section string) ([]Permission, error) {
	if section == "" {
		return nil, fmt.Errorf("%w: section_name is required", ErrBadRequest)
	}
	perms, err := r.perms.ListBySection(ctx, section)
	if err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("%w: no permissions in section %q", ErrNotFound, section)
	}
	return perms, nil
}

// CreateRole creates role linked to permissionIDs in one transaction.
func (r *Registry) CreateRole(ctx context.Context, role *Role, permissionIDs []string) (*RoleWithPermissions, error) {
	if err := r.roles.Create(ctx, role, permissionIDs); err != nil {
		return nil, err
	}
	r.hooks.publish(ctx, events.New(events.TypeRoleCreated, "role", role.ID).
		With("name", role.Name).
		With("permission_ids", permissionIDs))
	return r.roles.RoleWithPermissions(ctx, role.ID)
}

// RoleWithPermissions returns a role and its permission names.
func (r *Registry) RoleWithPermissions(ctx context.Context, id string) (*RoleWithPermissions, error) {
	return r.roles.RoleWithPermissions(ctx, id)
}

// ListRoles returns every role with its permission names.
func (r *Registry) ListRoles(ctx context.Context) ([]RoleWithPermissions, error) {
	return r.roles.List(ctx)
}

// UpdateRole applies patch and returns the updated role.
func (r *Registry) UpdateRole(ctx context.Context, id string, patch RolePatch) (*RoleWithPermissions, error) {
	if _, err := r.roles.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	r.hooks.publish(ctx, events.New(events.TypeRoleUpdated, "role", id).
		With("added_permission_ids", patch.AddPermissionIDs))
	return r.roles.RoleWithPermissions(ctx, id)
}

// DeleteRole removes a role that no user references.
func (r *Registry) DeleteRole(ctx context.Context, id string) error {
	if err := r.roles.Delete(ctx, id); err != nil {
		return err
	}
	r.hooks.publish(ctx, events.New(events.TypeRoleDeleted, "role", id))
	return nil
}
