package auth

import (
	"time"
)

// Permission is a named capability, grouped by section for listing.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Section     string    `json:"section"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role is a named bundle of permissions.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleWithPermissions is a role together with its effective permission names.
type RoleWithPermissions struct {
	Role
	Permissions []string `json:"permissions"`
}

// RolePatch describes a partial role update. Nil fields are left alone.
// AddPermissionIDs links additional permissions; existing links are kept.
type RolePatch struct {
	Name             *string
	Description      *string
	AddPermissionIDs []string
}

// User is an administrator account and its credential state.
//
// The three credential fields start empty. ClientKey and ClientTokenHash are
// set together once; ClientSecretHash is set once after both.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	RoleID           string    `json:"role_id"`
	ClientKey        string    `json:"-"`
	ClientTokenHash  string    `json:"-"`
	ClientSecretHash string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasKeyToken reports whether the key/token pair has been issued.
func (u *User) HasKeyToken() bool {
	return u.ClientKey != "" && u.ClientTokenHash != ""
}

// HasSecret reports whether the client secret has been issued.
func (u *User) HasSecret() bool {
	return u.ClientSecretHash != ""
}

// KeyToken is the plaintext pair returned once by IssueKeyToken.
type KeyToken struct {
	ClientKey   string `json:"client_key"`
	ClientToken string `json:"client_token"`
}
