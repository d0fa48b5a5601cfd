package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/keygate/internal/events"
)

// Authorizer checks a user's role against required permission names.
type Authorizer struct {
	roles RoleRepository
	hooks hooks
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(roles RoleRepository, opts ...Option) *Authorizer {
	return &Authorizer{roles: roles, hooks: newHooks(opts)}
}

// Authorize admits user if its role holds any one of required.
//
// An empty required list denies. A role that no longer exists, or a storage
// failure, is reported as ErrInternal and never admits.
func (a *Authorizer) Authorize(ctx context.Context, user *User, required ...string) error {
	if user == nil {
		return fmt.Errorf("%w: authorize called without a user", ErrInternal)
	}

	allowed, err := a.decide(ctx, user.RoleID, required)
	a.hooks.metrics.WriteAuthDecision(user.RoleID, required, allowed, a.hooks.now())
	if err != nil {
		return err
	}

	if !allowed {
		a.hooks.publish(ctx, events.New(events.TypeAuthorizationDenied, "user", user.ID).
			By(user.ID).
			With("role_id", user.RoleID).
			With("required", required))
		return fmt.Errorf("%w: requires one of [%s]", ErrForbidden, strings.Join(required, ", "))
	}
	return nil
}

func (a *Authorizer) decide(ctx context.Context, roleID string, required []string) (bool, error) {
	if len(required) == 0 {
		return false, nil
	}

	names, err := a.roles.PermissionNames(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return false, fmt.Errorf("%w: role %s does not exist", ErrInternal, roleID)
		}
		return false, fmt.Errorf("%w: loading permissions of role %s: %w", ErrInternal, roleID, err)
	}

	granted := make(map[string]struct{}, len(names))
	for _, n := range names {
		granted[n] = struct{}{}
	}
	for _, r := range required {
		if _, ok := granted[r]; ok {
			return true, nil
		}
	}
	return false, nil
}
