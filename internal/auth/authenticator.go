package auth

import (
	"context"
	"errors"
)

// Authenticator resolves a client secret to its user.
type Authenticator struct {
	users  UserRepository
	signer *SecretSigner
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(users UserRepository, signer *SecretSigner) *Authenticator {
	return &Authenticator{users: users, signer: signer}
}

// Authenticate returns the user owning secret.
//
// The signature is checked first so forged values never reach storage.
// The stored digest is then looked up, which is what makes a deleted user's
// secret stop working.
func (a *Authenticator) Authenticate(ctx context.Context, secret string) (*User, error) {
	if secret == "" {
		return nil, ErrMissingCredential
	}

	claims, err := a.signer.Verify(secret)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetBySecretHash(ctx, HashCredential(secret))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if user.ID != claims.Subject {
		return nil, ErrInvalidCredential
	}
	return user, nil
}
