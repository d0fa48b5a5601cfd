package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Entry is one row of the security audit trail.
type Entry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"` // event type, e.g. credential.secret_issued
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"` // acting user, empty for system actions
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter controls which entries List returns. Zero fields are ignored.
type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     string
	Since      time.Time
	Limit      int // default 50, max 200
	Offset     int
}

// ListResult is one page of audit entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores and queries the audit trail.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores audit entries in the audit_logs table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new audit repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts an entry. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "aud-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var details any
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		details = string(b)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, entity_type, entity_id, user_id, source, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.EntityType,
		nullableString(entry.EntityID), nullableString(entry.UserID),
		entry.Source, details,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	filter = clampPage(filter)
	where, args := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs" + where //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := "SELECT id, action, entity_type, entity_id, user_id, source, details, created_at FROM audit_logs" + //nolint:gosec // WHERE built from parameterised conditions
		where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func clampPage(f Filter) Filter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func buildWhere(f Filter) (string, []any) {
	var conditions []string
	var args []any

	add := func(cond string, v any) {
		conditions = append(conditions, cond)
		args = append(args, v)
	}
	if f.Action != "" {
		add("action = ?", f.Action)
	}
	if f.EntityType != "" {
		add("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		add("entity_id = ?", f.EntityID)
	}
	if f.UserID != "" {
		add("user_id = ?", f.UserID)
	}
	if !f.Since.IsZero() {
		add("created_at >= ?", formatTime(f.Since))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var entityID, userID, details sql.NullString
	var createdAt string

	if err := rows.Scan(&e.ID, &e.Action, &e.EntityType,
		&entityID, &userID, &e.Source, &details, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scanning audit entry: %w", err)
	}

	e.EntityID = entityID.String
	e.UserID = userID.String
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
			return Entry{}, fmt.Errorf("decoding audit details for %s: %w", e.ID, err)
		}
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
	}
	e.CreatedAt = t

	return e, nil
}

// formatTime uses fixed-width fractional seconds so lexical order in
// SQLite matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
