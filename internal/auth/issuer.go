package auth

import (
	"context"
	"fmt"

	"github.com/nerrad567/keygate/internal/events"
)

// Issuer runs the two-phase credential handshake: a one-time key/token
// pair, then a one-time exchange of that pair for a client secret.
type Issuer struct {
	users  UserRepository
	signer *SecretSigner
	hooks  hooks
}

// NewIssuer creates an Issuer.
func NewIssuer(users UserRepository, signer *SecretSigner, opts ...Option) *Issuer {
	return &Issuer{users: users, signer: signer, hooks: newHooks(opts)}
}

// IssueKeyToken generates and stores the user's key/token pair.
//
// The plaintext token is returned once; only its digest is stored.
//
// Returns:
//   - ErrUserNotFound if the user does not exist
//   - ErrKeyTokenIssued if a pair was already issued, including when a
//     concurrent call won the race
func (i *Issuer) IssueKeyToken(ctx context.Context, userID string) (*KeyToken, error) {
	user, err := i.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasKeyToken() {
		return nil, ErrKeyTokenIssued
	}

	key, err := NewClientKey(user.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: generating client key: %w", ErrInternal, err)
	}
	token, err := NewClientToken()
	if err != nil {
		return nil, fmt.Errorf("%w: generating client token: %w", ErrInternal, err)
	}

	if err := i.users.SetKeyToken(ctx, user.ID, key, HashCredential(token)); err != nil {
		return nil, err
	}

	i.hooks.metrics.WriteCredentialIssued(IssuedKeyToken, i.hooks.now())
	i.hooks.publish(ctx, events.New(events.TypeKeyTokenIssued, "user", user.ID).
		With("client_key", key))

	return &KeyToken{ClientKey: key, ClientToken: token}, nil
}

// IssueSecret exchanges a matching key/token pair for the user's secret.
//
// Checks run in this order:
//  1. empty key or token: ErrKeyTokenRequired
//  2. unknown user: ErrUserNotFound
//  3. secret already issued: ErrSecretIssued
//  4. pair never issued or not matching: ErrCredentialMismatch
func (i *Issuer) IssueSecret(ctx context.Context, userID, clientKey, clientToken string) (string, error) {
	if clientKey == "" || clientToken == "" {
		return "", ErrKeyTokenRequired
	}

	user, err := i.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.HasSecret() {
		return "", ErrSecretIssued
	}
	if !user.HasKeyToken() {
		return "", ErrCredentialMismatch
	}

	keyOK := constantTimeEqual(clientKey, user.ClientKey)
	tokenOK := credentialMatches(clientToken, user.ClientTokenHash)
	if !keyOK || !tokenOK {
		return "", ErrCredentialMismatch
	}

	now := i.hooks.now()
	secret, err := i.signer.Sign(user.ID, clientKey, clientToken, now)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if err := i.users.SetSecret(ctx, user.ID, HashCredential(secret), user.ClientKey, user.ClientTokenHash); err != nil {
		return "", err
	}

	i.hooks.metrics.WriteCredentialIssued(IssuedSecret, now)
	i.hooks.publish(ctx, events.New(events.TypeSecretIssued, "user", user.ID).
		With("client_key", user.ClientKey))

	return secret, nil
}
