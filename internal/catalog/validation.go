package catalog

import (
	"fmt"
	"strings"

	"github.com/nerrad567/keygate/internal/auth"
)

// Validation limits.
const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// ValidateName checks a brand title, category or subcategory name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", auth.ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", auth.ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateDescription checks a category or subcategory description.
func ValidateDescription(desc string) error {
	if len(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", auth.ErrValidation, maxDescriptionLength)
	}
	return nil
}
