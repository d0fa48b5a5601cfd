package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("Correct-Horse-9", testPasswordParams)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("hash %q does not carry its parameters", hash)
	}

	ok, err := VerifyPassword("Correct-Horse-9", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("VerifyPassword() = false for correct password")
	}

	ok, err = VerifyPassword("Wrong-Horse-9", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if ok {
		t.Error("VerifyPassword() = true for wrong password")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, _ := HashPassword("same", testPasswordParams)
	b, _ := HashPassword("same", testPasswordParams)
	if a == b {
		t.Error("hashes of the same password should differ by salt")
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	}
	for _, encoded := range tests {
		if _, err := VerifyPassword("pw", encoded); err == nil {
			t.Errorf("VerifyPassword(%q) error = nil, want error", encoded)
		}
	}
}
