package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Fixed Argon2id output sizes.
const (
	argonKeyLen  = 32
	argonSaltLen = 16
)

// PasswordParams are the tunable Argon2id costs.
type PasswordParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultPasswordParams follow the OWASP recommendation for argon2id.
var DefaultPasswordParams = PasswordParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// HashPassword hashes password with Argon2id and returns a PHC string:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func HashPassword(password string, p PasswordParams) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks password against a PHC hash produced by HashPassword.
// The cost parameters are read from the hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	salt, hash, p, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

func decodePHC(encoded string) (salt, hash []byte, p PasswordParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // PHC format has exactly 6 $-delimited parts
		return nil, nil, p, fmt.Errorf("invalid PHC hash format")
	}
	if parts[1] != "argon2id" {
		return nil, nil, p, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow
		return nil, nil, p, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, p, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil { //nolint:govet // shadow
		return nil, nil, p, fmt.Errorf("parsing parameters: %w", err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, p, fmt.Errorf("decoding salt: %w", err)
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, p, fmt.Errorf("decoding hash: %w", err)
	}

	return salt, hash, p, nil
}
