package database

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// NewID returns prefix followed by eight random hex characters.
func NewID(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

// FormatTime renders t as a UTC RFC3339 column value.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTime parses a FormatTime or strftime column value.
// Malformed input yields the zero time.
func ParseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // zero time on malformed input
	return t
}

// IsUniqueViolation reports a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// IsForeignKeyViolation reports a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
