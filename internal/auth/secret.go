package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// secretIssuer is the iss claim of every client secret.
const secretIssuer = "keygate"

// SecretClaims are carried by a client secret.
type SecretClaims struct {
	jwt.RegisteredClaims
	ClientKey   string `json:"client_key"`
	ClientToken string `json:"client_token"`
}

// SecretSigner mints and verifies client secrets (HS256 JWTs).
// Secrets carry no expiry; revocation is by deleting the user.
type SecretSigner struct {
	key []byte
}

// NewSecretSigner creates a signer for key. The key must not be empty.
func NewSecretSigner(key string) (*SecretSigner, error) {
	if key == "" {
		return nil, errors.New("secret signing key is empty")
	}
	return &SecretSigner{key: []byte(key)}, nil
}

// Sign mints a secret for userID bound to the presented key and token.
func (s *SecretSigner) Sign(userID, clientKey, clientToken string, issuedAt time.Time) (string, error) {
	claims := SecretClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			Issuer:   secretIssuer,
			IssuedAt: jwt.NewNumericDate(issuedAt),
			ID:       uuid.NewString(),
		},
		ClientKey:   clientKey,
		ClientToken: clientToken,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing client secret: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm and issuer of secret.
// Any failure is reported as ErrInvalidCredential.
func (s *SecretSigner) Verify(secret string) (*SecretClaims, error) {
	token, err := jwt.ParseWithClaims(secret, &SecretClaims{}, func(_ *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(secretIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*SecretClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}
	return claims, nil
}
