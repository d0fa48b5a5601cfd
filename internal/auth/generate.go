package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// credentialAlphabet is the character set for keys and tokens.
const credentialAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Credential lengths.
const (
	keyGroupLong  = 10
	keyGroupShort = 5
	tokenLength   = 80
)

// randomString draws n characters uniformly from alphabet using crypto/rand.
func randomString(n int, alphabet string) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// NewClientKey builds a key of the form <name>-XXXXXXXXXX-XXXXX-XXXXX, with
// all whitespace removed from name.
func NewClientKey(name string) (string, error) {
	groups := make([]string, 0, 4)
	groups = append(groups, sanitizeName(name))
	for _, n := range []int{keyGroupLong, keyGroupShort, keyGroupShort} {
		g, err := randomString(n, credentialAlphabet)
		if err != nil {
			return "", err
		}
		groups = append(groups, g)
	}
	return strings.Join(groups, "-"), nil
}

// NewClientToken returns an 80-character random token.
func NewClientToken() (string, error) {
	return randomString(tokenLength, credentialAlphabet)
}

// HashCredential returns the SHA-256 hex digest stored for tokens and secrets.
func HashCredential(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// credentialMatches compares raw against a stored digest in constant time.
func credentialMatches(raw, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(HashCredential(raw)), []byte(digest)) == 1
}

// constantTimeEqual compares two plaintext values in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}
