package auth

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package matches exactly one
// of these with errors.Is, which is what the API maps to a status code.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorised")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyIssued     = errors.New("already issued")
	ErrInvalidName       = errors.New("invalid name")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal error")
)

// Specific errors, each wrapping its class.
var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrRoleNotFound       = fmt.Errorf("role %w", ErrNotFound)
	ErrPermissionNotFound = fmt.Errorf("permission %w", ErrNotFound)

	ErrKeyTokenIssued = fmt.Errorf("client key and token %w", ErrAlreadyIssued)
	ErrSecretIssued   = fmt.Errorf("client secret %w", ErrAlreadyIssued)

	ErrKeyTokenRequired   = fmt.Errorf("%w: client key and client token are required", ErrBadRequest)
	ErrCredentialMismatch = fmt.Errorf("%w: client key or client token does not match", ErrUnauthorized)
	ErrInvalidCredential  = fmt.Errorf("%w: invalid client secret", ErrUnauthorized)

	ErrEmailExists      = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrRoleExists       = fmt.Errorf("%w: role name already exists", ErrConflict)
	ErrPermissionExists = fmt.Errorf("%w: permission name already exists", ErrConflict)
	ErrRoleInUse        = fmt.Errorf("%w: role is assigned to users", ErrConflict)
)
