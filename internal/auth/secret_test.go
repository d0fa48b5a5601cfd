package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSecretSigner_SignVerify(t *testing.T) {
	s := testSigner(t)
	at := time.Now().Add(-time.Minute)

	secret, err := s.Sign("usr-1", "Alice-key", "token", at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	claims, err := s.Verify(secret)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "usr-1" || claims.ClientKey != "Alice-key" || claims.ClientToken != "token" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != secretIssuer || claims.ID == "" {
		t.Errorf("issuer = %q, jti = %q", claims.Issuer, claims.ID)
	}
}

func TestSecretSigner_UniquePerSign(t *testing.T) {
	s := testSigner(t)
	at := time.Now()
	a, _ := s.Sign("usr-1", "k", "t", at)
	b, _ := s.Sign("usr-1", "k", "t", at)
	if a == b {
		t.Error("two signatures of the same claims should differ by jti")
	}
}

func TestSecretSigner_Rejects(t *testing.T) {
	s := testSigner(t)
	other, _ := NewSecretSigner("another-signing-key-0123456789abcdef")

	forged, _ := other.Sign("usr-1", "k", "t", time.Now())

	none := jwt.NewWithClaims(jwt.SigningMethodNone, SecretClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "usr-1", Issuer: secretIssuer},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, SecretClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "usr-1", Issuer: "someone-else"},
	}).SignedString([]byte(testSigningKey))

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, SecretClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: secretIssuer},
	}).SignedString([]byte(testSigningKey))

	tests := []struct {
		name   string
		secret string
	}{
		{"garbage", "not-a-jwt"},
		{"other key", forged},
		{"alg none", unsigned},
		{"wrong issuer", wrongIssuer},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.secret)
			if !errors.Is(err, ErrInvalidCredential) || !errors.Is(err, ErrUnauthorized) {
				t.Errorf("Verify() error = %v, want ErrInvalidCredential", err)
			}
		})
	}
}

func TestNewSecretSigner_EmptyKey(t *testing.T) {
	if _, err := NewSecretSigner(""); err == nil {
		t.Error("NewSecretSigner(\"\") should fail")
	}
}
