package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/keygate/internal/events"
	"github.com/nerrad567/keygate/internal/infrastructure/database"
	_ "github.com/nerrad567/keygate/migrations"
)

// testSigningKey is long enough to pass config validation.
const testSigningKey = "test-signing-key-0123456789abcdef0123"

// testPasswordParams keep argon2id cheap in tests.
var testPasswordParams = PasswordParams{Time: 1, Memory: 1024, Threads: 1}

// testDB opens a migrated SQLite database in a temp dir.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db.DB
}

func testSigner(t *testing.T) *SecretSigner {
	t.Helper()
	s, err := NewSecretSigner(testSigningKey)
	if err != nil {
		t.Fatalf("NewSecretSigner() error = %v", err)
	}
	return s
}

// seedPermissions creates one permission per name in section "Test" and
// returns their IDs keyed by name.
func seedPermissions(t *testing.T, db *sql.DB, names ...string) map[string]string {
	t.Helper()
	repo := NewPermissionRepository(db)
	ids := make(map[string]string, len(names))
	for _, name := range names {
		p := &Permission{Name: name, Description: describe(name), Section: "Test"}
		if err := repo.Create(context.Background(), p); err != nil {
			t.Fatalf("creating permission %s: %v", name, err)
		}
		ids[name] = p.ID
	}
	return ids
}

// seedRole creates a role holding the named permissions, creating them first.
func seedRole(t *testing.T, db *sql.DB, name string, perms ...string) *Role {
	t.Helper()
	ids := seedPermissions(t, db, perms...)
	linked := make([]string, 0, len(ids))
	for _, id := range ids {
		linked = append(linked, id)
	}
	role := &Role{Name: name, Description: name + " role"}
	if err := NewRoleRepository(db).Create(context.Background(), role, linked); err != nil {
		t.Fatalf("creating role %s: %v", name, err)
	}
	return role
}

// seedUser inserts a user with a pre-hashed dummy password.
func seedUser(t *testing.T, db *sql.DB, name, email, roleID string) *User {
	t.Helper()
	u := &User{Name: name, Email: email, PasswordHash: "$argon2id$test", RoleID: roleID}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return u
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// decision is one recorded authorization outcome.
type decision struct {
	roleID   string
	required []string
	allowed  bool
}

// recordingMetrics captures metrics writes.
type recordingMetrics struct {
	mu        sync.Mutex
	decisions []decision
	issued    []string
	times     []time.Time
}

func (m *recordingMetrics) WriteAuthDecision(roleID string, required []string, allowed bool, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, decision{roleID, required, allowed})
	m.times = append(m.times, at)
}

func (m *recordingMetrics) WriteCredentialIssued(kind string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued = append(m.issued, kind)
	m.times = append(m.times, at)
}
