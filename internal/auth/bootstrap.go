package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// bootstrapPasswordLength is the length of the generated admin password.
const bootstrapPasswordLength = 24

// AdministratorRole is the name of the role created on first boot.
const AdministratorRole = "Administrator"

// BootstrapConfig describes the first-boot administrator.
type BootstrapConfig struct {
	AdminName  string
	AdminEmail string
	Password   PasswordParams
}

// bootstrapIssuanceWarning is logged with the bootstrap admin.
const bootstrapIssuanceWarning = "issue the admin credentials now; issuance is first come, first served"

// Bootstrap seeds an empty database: the default permission catalog, an
// Administrator role holding all of it, and an admin user with a random
// password. It does nothing when any user exists.
//
// The generated password is logged once and returned. The operator then
// issues the admin's key/token and secret through the API. The issuance
// routes are unguarded, so anyone who learns the admin's ID can complete
// the handshake first: run it immediately after first boot.
func Bootstrap(ctx context.Context, cfg BootstrapConfig, users UserRepository, roles RoleRepository, perms PermissionRepository, logger *slog.Logger) (string, error) {
	count, err := users.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}
	if count > 0 {
		logger.Info("users exist, skipping bootstrap")
		return "", nil
	}

	permIDs, err := ensurePermissions(ctx, perms)
	if err != nil {
		return "", err
	}

	roleID, err := ensureAdministratorRole(ctx, roles, permIDs)
	if err != nil {
		return "", err
	}

	password, err := randomString(bootstrapPasswordLength, credentialAlphabet)
	if err != nil {
		return "", fmt.Errorf("generating bootstrap password: %w", err)
	}
	hash, err := HashPassword(password, cfg.Password)
	if err != nil {
		return "", fmt.Errorf("hashing bootstrap password: %w", err)
	}

	admin := &User{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if err := users.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating bootstrap admin: %w", err)
	}

	logger.Warn("bootstrap administrator created",
		"user_id", admin.ID,
		"email", admin.Email,
		"password", password,
		"next_step", "POST /api/useradmin/user/credentials/"+admin.ID,
		"warning", bootstrapIssuanceWarning,
	)
	return password, nil
}

// ensurePermissions creates any missing default permission and returns the
// IDs of the whole default catalog.
func ensurePermissions(ctx context.Context, perms PermissionRepository) ([]string, error) {
	specs := DefaultPermissions()
	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		p := &Permission{Name: spec.Name, Description: spec.Description, Section: spec.Section}
		err := perms.Create(ctx, p)
		if errors.Is(err, ErrPermissionExists) {
			existing, getErr := perms.GetByName(ctx, spec.Name)
			if getErr != nil {
				return nil, fmt.Errorf("loading permission %s: %w", spec.Name, getErr)
			}
			p, err = existing, nil
		}
		if err != nil {
			return nil, fmt.Errorf("creating permission %s: %w", spec.Name, err)
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// ensureAdministratorRole creates the Administrator role, or links the
// catalog to it if it survived an earlier partial bootstrap.
func ensureAdministratorRole(ctx context.Context, roles RoleRepository, permIDs []string) (string, error) {
	role := &Role{Name: AdministratorRole, Description: "Full access to every admin section"}
	err := roles.Create(ctx, role, permIDs)
	if err == nil {
		return role.ID, nil
	}
	if !errors.Is(err, ErrRoleExists) {
		return "", fmt.Errorf("creating administrator role: %w", err)
	}

	existing, err := roles.GetByName(ctx, AdministratorRole)
	if err != nil {
		return "", fmt.Errorf("loading administrator role: %w", err)
	}
	if _, err := roles.Update(ctx, existing.ID, RolePatch{AddPermissionIDs: permIDs}); err != nil {
		return "", fmt.Errorf("linking administrator permissions: %w", err)
	}
	return existing.ID, nil
}
