package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// emailPattern is deliberately narrow: a two to four letter TLD.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,4}$`)

// minPasswordLength is the shortest accepted password.
const minPasswordLength = 8

// ValidatePermissionName rejects empty names and names containing any
// Unicode whitespace.
func ValidatePermissionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: permission name is required", ErrInvalidName)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: permission name %q must not contain whitespace", ErrInvalidName, name)
	}
	return nil
}

// ValidateRoleName rejects blank role names.
func ValidateRoleName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: role name is required", ErrInvalidName)
	}
	return nil
}

// ValidateEmail checks email against the accepted address format.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

// ValidatePassword requires at least eight characters with an upper-case
// letter, a lower-case letter, a digit and a special character.
func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "an upper-case letter")
	}
	if !lower {
		missing = append(missing, "a lower-case letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !special {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: password must contain %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateNewUser checks the fields required to create a user.
func ValidateNewUser(name, email, password, roleID string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if roleID == "" {
		return fmt.Errorf("%w: role_id is required", ErrValidation)
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}
