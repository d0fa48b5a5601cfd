package auth

import (
	"context"
	"fmt"

	"github.com/nerrad567/keygate/internal/events"
)

// NewUser is the input for creating a user.
type NewUser struct {
	Name     string
	Email    string
	Password string
	RoleID   string
}

// Accounts manages administrator accounts.
type Accounts struct {
	users  UserRepository
	roles  RoleRepository
	params PasswordParams
	hooks  hooks
}

// NewAccounts creates an Accounts service hashing passwords with params.
func NewAccounts(users UserRepository, roles RoleRepository, params PasswordParams, opts ...Option) *Accounts {
	return &Accounts{users: users, roles: roles, params: params, hooks: newHooks(opts)}
}

// CreateUser validates in, hashes the password and stores the user with
// no credentials issued.
func (a *Accounts) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	if err := ValidateNewUser(in.Name, in.Email, in.Password, in.RoleID); err != nil {
		return nil, err
	}
	if _, err := a.roles.GetByID(ctx, in.RoleID); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, a.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	user := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		RoleID:       in.RoleID,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}

	a.hooks.publish(ctx, events.New(events.TypeUserCreated, "user", user.ID).
		With("email", user.Email).
		With("role_id", user.RoleID))
	return user, nil
}

// GetUser returns one user.
func (a *Accounts) GetUser(ctx context.Context, id string) (*User, error) {
	return a.users.GetByID(ctx, id)
}

// ListUsers returns every user.
func (a *Accounts) ListUsers(ctx context.Context) ([]User, error) {
	return a.users.List(ctx)
}

// DeleteUser removes a user; any issued secret stops authenticating.
func (a *Accounts) DeleteUser(ctx context.Context, id string) error {
	if err := a.users.Delete(ctx, id); err != nil {
		return err
	}
	a.hooks.publish(ctx, events.New(events.TypeUserDeleted, "user", id))
	return nil
}
