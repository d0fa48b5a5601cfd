package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/keygate/internal/audit"
	"github.com/nerrad567/keygate/internal/auth"
	"github.com/nerrad567/keygate/internal/catalog"
	"github.com/nerrad567/keygate/internal/events"
	"github.com/nerrad567/keygate/internal/infrastructure/config"
	"github.com/nerrad567/keygate/internal/infrastructure/database"
	"github.com/nerrad567/keygate/internal/infrastructure/logging"
	_ "github.com/nerrad567/keygate/migrations"
)

const testSigningKey = "test-signing-key-0123456789abcdef0123"

var testPasswordParams = auth.PasswordParams{Time: 1, Memory: 1024, Threads: 1}

// testEnv is a server over a migrated temp database seeded with the
// default permission catalog.
type testEnv struct {
	srv      *Server
	handler  http.Handler
	db       *database.DB
	perms    *auth.SQLitePermissionRepository
	roles    *auth.SQLiteRoleRepository
	accounts *auth.Accounts
	issuer   *auth.Issuer
	audit    *audit.SQLiteRepository
	users    int
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "discard"}, "test")
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "api.db"),
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

	log := testLogger()
	users := auth.NewUserRepository(db.DB)
	roles := auth.NewRoleRepository(db.DB)
	perms := auth.NewPermissionRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	if _, err := auth.Bootstrap(ctx, auth.BootstrapConfig{
		AdminName:  "Admin",
		AdminEmail: "admin@example.com",
		Password:   testPasswordParams,
	}, users, roles, perms, log.Logger); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	signer, err := auth.NewSecretSigner(testSigningKey)
	if err != nil {
		t.Fatalf("NewSecretSigner() error = %v", err)
	}

	env := &testEnv{
		db:       db,
		perms:    perms,
		roles:    roles,
		accounts: auth.NewAccounts(users, roles, testPasswordParams),
		issuer:   auth.NewIssuer(users, signer),
		audit:    auditRepo,
	}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:        log,
		DB:            db,
		Version:       "test",
		Authenticator: auth.NewAuthenticator(users, signer),
		Authorizer:    auth.NewAuthorizer(roles),
		Issuer:        env.issuer,
		Accounts:      env.accounts,
		Registry:      auth.NewRegistry(roles, perms),
		Catalog:       catalog.NewService(catalog.NewSQLiteRepository(db.DB), nil),
		Audit:         auditRepo,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	env.srv = srv
	env.handler = srv.Handler()
	return env
}

// newUser creates a user without credentials whose role holds perms.
func (e *testEnv) newUser(t *testing.T, perms ...string) *auth.User {
	t.Helper()
	ctx := context.Background()
	e.users++

	ids := make([]string, 0, len(perms))
	for _, name := range perms {
		p, err := e.perms.GetByName(ctx, name)
		if err != nil {
			t.Fatalf("GetByName(%q) error = %v", name, err)
		}
		ids = append(ids, p.ID)
	}
	role := &auth.Role{Name: fmt.Sprintf("Role %d", e.users)}
	if err := e.roles.Create(ctx, role, ids); err != nil {
		t.Fatalf("roles.Create() error = %v", err)
	}

	user, err := e.accounts.CreateUser(ctx, auth.NewUser{
		Name:     fmt.Sprintf("Tester %d", e.users),
		Email:    fmt.Sprintf("tester%d@example.com", e.users),
		Password: "Passw0rd!",
		RoleID:   role.ID,
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

// secretFor creates a user holding perms and issues its client secret.
func (e *testEnv) secretFor(t *testing.T, perms ...string) string {
	t.Helper()
	ctx := context.Background()
	user := e.newUser(t, perms...)
	kt, err := e.issuer.IssueKeyToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssueKeyToken() error = %v", err)
	}
	secret, err := e.issuer.IssueSecret(ctx, user.ID, kt.ClientKey, kt.ClientToken)
	if err != nil {
		t.Fatalf("IssueSecret() error = %v", err)
	}
	return secret
}

func (e *testEnv) do(t *testing.T, method, path, secret string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if secret != "" {
		req.Header.Set(headerClientSecret, secret)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

// expectError checks status and envelope code.
func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	got := decode[Error](t, w)
	if got.Code != code || got.Status != status {
		t.Errorf("error = %+v, want status %d code %q", got, status, code)
	}
	if got.Message == "" {
		t.Error("error message is empty")
	}
}

// ─── Health and Middleware ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	env.db.Close()

	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if resp := decode[map[string]any](t, w); resp["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", resp["status"])
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	m := decode[SystemMetrics](t, w)
	if m.Version != "test" || m.Runtime.Goroutines == 0 {
		t.Errorf("metrics = %+v", m)
	}
	if m.MQTT.Connected {
		t.Error("MQTT reported connected with no client")
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy not set")
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/useradmin/role", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want http://localhost:3000", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, headerClientSecret) {
		t.Errorf("allowed headers %q missing %s", got, headerClientSecret)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(t, http.MethodGet, "/api/nonexistent", "", nil), http.StatusNotFound, ErrCodeNotFound)
}

// ─── Credentials ───────────────────────────────────────────────────

func TestCredentialHandshake(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, auth.PermReadUser)

	w := env.do(t, http.MethodPost, "/api/useradmin/user/credentials/"+user.ID, "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("issue key/token status = %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	kt := decode[auth.KeyToken](t, w)
	if !strings.HasPrefix(kt.ClientKey, "Tester1-") || kt.ClientToken == "" {
		t.Fatalf("key/token = %+v", kt)
	}

	expectError(t, env.do(t, http.MethodPost, "/api/useradmin/user/credentials/"+user.ID, "", nil),
		http.StatusConflict, ErrCodeAlreadyIssued)

	exchange := func(key, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/useradmin/user/auth/"+user.ID, nil)
		if key != "" {
			req.Header.Set(headerClientKey, key)
		}
		if token != "" {
			req.Header.Set(headerClientToken, token)
		}
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		return w
	}

	expectError(t, exchange("", ""), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, exchange(kt.ClientKey, "wrong"), http.StatusUnauthorized, ErrCodeUnauthorized)

	w = exchange(kt.ClientKey, kt.ClientToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("issue secret status = %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	secret := decode[map[string]string](t, w)["client_secret"]
	if secret == "" {
		t.Fatal("client_secret is empty")
	}

	expectError(t, exchange(kt.ClientKey, kt.ClientToken), http.StatusConflict, ErrCodeAlreadyIssued)

	w = env.do(t, http.MethodGet, "/api/useradmin/user/"+user.ID, secret, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get self status = %d (%s)", w.Code, w.Body.String())
	}
	got := decode[userResponse](t, w)
	if !got.HasKeyToken || !got.HasSecret {
		t.Errorf("credential flags = %+v, want both set", got)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("user response leaks password field")
	}
}

func TestCredentials_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(t, http.MethodPost, "/api/useradmin/user/credentials/usr-missing", "", nil),
		http.StatusNotFound, ErrCodeNotFound)
}

// ─── Guards ────────────────────────────────────────────────────────

func TestGuards(t *testing.T) {
	env := newTestEnv(t)
	reader := env.secretFor(t, auth.PermReadBrand)
	sectionAdmin := env.secretFor(t, auth.AdminPermission(auth.SectionBrand))

	tests := []struct {
		name   string
		method string
		secret string
		body   any
		status int
		code   string
	}{
		{"missing secret", http.MethodGet, "", nil, http.StatusBadRequest, ErrCodeMissingCredential},
		{"garbage secret", http.MethodGet, "not-a-secret", nil, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"read permission", http.MethodGet, reader, nil, http.StatusOK, ""},
		{"section admin reads", http.MethodGet, sectionAdmin, nil, http.StatusOK, ""},
		{"section admin cannot write", http.MethodPost, sectionAdmin, map[string]string{"title": "Acme"}, http.StatusForbidden, ErrCodeForbidden},
		{"reader cannot write", http.MethodPost, reader, map[string]string{"title": "Acme"}, http.StatusForbidden, ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, "/api/productadmin/brand", tt.secret, tt.body)
			if tt.code != "" {
				expectError(t, w, tt.status, tt.code)
				return
			}
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestDeletedUserSecretStopsWorking(t *testing.T) {
	env := newTestEnv(t)
	admin := env.secretFor(t, auth.PermReadUser, auth.PermDeleteUser)
	victim := env.newUser(t, auth.PermReadUser)
	kt, err := env.issuer.IssueKeyToken(context.Background(), victim.ID)
	if err != nil {
		t.Fatalf("IssueKeyToken() error = %v", err)
	}
	secret, err := env.issuer.IssueSecret(context.Background(), victim.ID, kt.ClientKey, kt.ClientToken)
	if err != nil {
		t.Fatalf("IssueSecret() error = %v", err)
	}

	if w := env.do(t, http.MethodGet, "/api/useradmin/user/", secret, nil); w.Code != http.StatusOK {
		t.Fatalf("before delete status = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/useradmin/user/"+victim.ID, admin, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d (%s)", w.Code, w.Body.String())
	}
	expectError(t, env.do(t, http.MethodGet, "/api/useradmin/user/", secret, nil),
		http.StatusUnauthorized, ErrCodeUnauthorized)
}

// ─── Users, Roles and Permissions ──────────────────────────────────

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	secret := env.secretFor(t, auth.PermReadUser, auth.PermWriteUser)
	role := env.newUser(t).RoleID

	w := env.do(t, http.MethodPost, "/api/useradmin/user/", secret, map[string]string{
		"name":     "Grace Hopper",
		"email":    "grace@example.com",
		"password": "C0bol!rocks",
		"role_id":  role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", w.Code, w.Body.String())
	}
	created := decode[userResponse](t, w)
	if created.HasKeyToken || created.HasSecret {
		t.Errorf("new user has credentials: %+v", created)
	}

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"duplicate email", map[string]string{"name": "G", "email": "grace@example.com", "password": "C0bol!rocks", "role_id": role}, http.StatusConflict, ErrCodeConflict},
		{"weak password", map[string]string{"name": "G", "email": "g2@example.com", "password": "password", "role_id": role}, http.StatusBadRequest, ErrCodeValidation},
		{"missing role", map[string]string{"name": "G", "email": "g3@example.com", "password": "C0bol!rocks"}, http.StatusBadRequest, ErrCodeValidation},
		{"unknown role", map[string]string{"name": "G", "email": "g4@example.com", "password": "C0bol!rocks", "role_id": "rol-missing"}, http.StatusNotFound, ErrCodeNotFound},
		{"unknown field", map[string]string{"name": "G", "email": "g5@example.com", "password": "C0bol!rocks", "role_id": role, "admin": "yes"}, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPost, "/api/useradmin/user/", secret, tt.body), tt.status, tt.code)
		})
	}

	w = env.do(t, http.MethodGet, "/api/useradmin/user/", secret, nil)
	list := decode[struct {
		Users []userResponse `json:"users"`
		Count int            `json:"count"`
	}](t, w)
	// bootstrap admin, the caller, the role holder and Grace
	if list.Count != 4 {
		t.Errorf("user count = %d, want 4", list.Count)
	}
}

func TestRoles(t *testing.T) {
	env := newTestEnv(t)
	secret := env.secretFor(t,
		auth.PermReadRole, auth.PermWriteRole, auth.PermUpdateRole, auth.PermDeleteRole)
	ctx := context.Background()
	readBrand, _ := env.perms.GetByName(ctx, auth.PermReadBrand)   //nolint:errcheck // seeded by Bootstrap
	writeBrand, _ := env.perms.GetByName(ctx, auth.PermWriteBrand) //nolint:errcheck // seeded by Bootstrap

	w := env.do(t, http.MethodPost, "/api/useradmin/role", secret, map[string]any{
		"name":           "Brand Editor",
		"description":    "Edits brands",
		"permission_ids": []string{readBrand.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", w.Code, w.Body.String())
	}
	role := decode[auth.RoleWithPermissions](t, w)
	if len(role.Permissions) != 1 || role.Permissions[0] != auth.PermReadBrand {
		t.Errorf("permissions = %v, want [%s]", role.Permissions, auth.PermReadBrand)
	}

	expectError(t, env.do(t, http.MethodPost, "/api/useradmin/role", secret, map[string]any{"name": "Brand Editor"}),
		http.StatusConflict, ErrCodeConflict)
	expectError(t, env.do(t, http.MethodPost, "/api/useradmin/role", secret, map[string]any{
		"name": "Broken", "permission_ids": []string{"perm-missing"},
	}), http.StatusNotFound, ErrCodeNotFound)

	w = env.do(t, http.MethodPatch, "/api/useradmin/role/"+role.ID, secret, map[string]any{
		"permission_ids": []string{writeBrand.ID, readBrand.ID},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d (%s)", w.Code, w.Body.String())
	}
	if got := decode[auth.RoleWithPermissions](t, w); len(got.Permissions) != 2 {
		t.Errorf("permissions after update = %v, want 2", got.Permissions)
	}

	if w := env.do(t, http.MethodDelete, "/api/useradmin/role/"+role.ID, secret, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d (%s)", w.Code, w.Body.String())
	}
	expectError(t, env.do(t, http.MethodGet, "/api/useradmin/role/"+role.ID, secret, nil),
		http.StatusNotFound, ErrCodeNotFound)
}

func TestPermissions(t *testing.T) {
	env := newTestEnv(t)
	secret := env.secretFor(t, auth.PermReadPermission, auth.PermWritePermission)

	w := env.do(t, http.MethodPost, "/api/useradmin/permission", secret, map[string]string{
		"name": "Export_Report", "description": "Export reports", "section": "Report",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", w.Code, w.Body.String())
	}
	perm := decode[auth.Permission](t, w)

	expectError(t, env.do(t, http.MethodPost, "/api/useradmin/permission", secret, map[string]string{
		"name": "Export Report", "section": "Report",
	}), http.StatusBadRequest, ErrCodeValidation)
	expectError(t, env.do(t, http.MethodPost, "/api/useradmin/permission", secret, map[string]string{
		"name": "Export_Report", "section": "Report",
	}), http.StatusConflict, ErrCodeConflict)

	if w := env.do(t, http.MethodGet, "/api/useradmin/permission/"+perm.ID, secret, nil); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/useradmin/permissions/section?section_name=Report", secret, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("by section status = %d (%s)", w.Code, w.Body.String())
	}
	if got := decode[map[string]any](t, w)["count"]; got != float64(1) {
		t.Errorf("section count = %v, want 1", got)
	}

	expectError(t, env.do(t, http.MethodGet, "/api/useradmin/permissions/section?section_name=Nope", secret, nil),
		http.StatusNotFound, ErrCodeNotFound)
	expectError(t, env.do(t, http.MethodGet, "/api/useradmin/permissions/section", secret, nil),
		http.StatusBadRequest, ErrCodeBadRequest)
}

// ─── Catalog ───────────────────────────────────────────────────────

func TestCatalogRules(t *testing.T) {
	env := newTestEnv(t)
	secret := env.secretFor(t,
		auth.AdminPermission(auth.SectionBrand), auth.PermWriteBrand, auth.PermUpdateBrand,
		auth.AdminPermission(auth.SectionCategory), auth.PermWriteCategory, auth.PermUpdateCategory, auth.PermDeleteCategory,
		auth.AdminPermission(auth.SectionSubcategory), auth.PermWriteSubcategory)

	w := env.do(t, http.MethodPost, "/api/productadmin/brand", secret, map[string]string{"title": "Acme"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create brand status = %d (%s)", w.Code, w.Body.String())
	}
	brand := decode[catalog.Brand](t, w)

	w = env.do(t, http.MethodPatch, "/api/productadmin/brand/"+brand.ID, secret, map[string]bool{"status": false})
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d (%s)", w.Code, w.Body.String())
	}
	if got := decode[catalog.Brand](t, w); got.Status || got.InactivatedAt == nil {
		t.Errorf("deactivated brand = %+v", got)
	}

	expectError(t, env.do(t, http.MethodPost, "/api/productadmin/brand", secret, map[string]string{"title": "Acme"}),
		http.StatusConflict, ErrCodeConflict)
	expectError(t, env.do(t, http.MethodPost, "/api/productadmin/brand", secret, map[string]string{"title": strings.Repeat("x", 101)}),
		http.StatusBadRequest, ErrCodeValidation)

	w = env.do(t, http.MethodPost, "/api/productadmin/category", secret, map[string]any{
		"name": "Tools", "description": "Hand tools",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category status = %d (%s)", w.Code, w.Body.String())
	}
	cat := decode[catalog.Category](t, w)

	sub := map[string]string{"category_id": cat.ID, "name": "Hammers", "description": "Claw hammers"}
	expectError(t, env.do(t, http.MethodPost, "/api/productadmin/category/subcategory", secret, sub),
		http.StatusBadRequest, ErrCodeBadRequest)

	if w := env.do(t, http.MethodPatch, "/api/productadmin/category/"+cat.ID, secret, map[string]bool{"has_subcategory": true}); w.Code != http.StatusOK {
		t.Fatalf("enable subcategories status = %d (%s)", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/api/productadmin/category/subcategory", secret, sub); w.Code != http.StatusCreated {
		t.Fatalf("create subcategory status = %d (%s)", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/productadmin/category/"+cat.ID+"/subcategory", secret, nil)
	if got := decode[map[string]any](t, w)["count"]; got != float64(1) {
		t.Errorf("subcategory count = %v, want 1", got)
	}

	expectError(t, env.do(t, http.MethodPatch, "/api/productadmin/category/"+cat.ID, secret, map[string]bool{"has_subcategory": false}),
		http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, env.do(t, http.MethodDelete, "/api/productadmin/category/"+cat.ID, secret, nil),
		http.StatusConflict, ErrCodeConflict)
	expectError(t, env.do(t, http.MethodGet, "/api/productadmin/category/cat-missing", secret, nil),
		http.StatusNotFound, ErrCodeNotFound)
	expectError(t, env.do(t, http.MethodGet, "/api/productadmin/category/subcategory/sub-missing", secret, nil),
		http.StatusNotFound, ErrCodeNotFound)
}

// ─── Audit ─────────────────────────────────────────────────────────

func TestListAudit(t *testing.T) {
	env := newTestEnv(t)
	secret := env.secretFor(t, auth.PermReadAudit)
	ctx := context.Background()

	for _, action := range []string{events.TypeSecretIssued, events.TypeAuthorizationDenied, events.TypeSecretIssued} {
		if err := env.audit.Create(ctx, &audit.Entry{Action: action, EntityType: "user", Source: events.SourceAPI}); err != nil {
			t.Fatalf("audit Create() error = %v", err)
		}
	}

	w := env.do(t, http.MethodGet, "/api/useradmin/audit?action="+events.TypeSecretIssued, secret, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if got := decode[audit.ListResult](t, w); got.Total != 2 || len(got.Entries) != 2 {
		t.Errorf("total = %d entries = %d, want 2", got.Total, len(got.Entries))
	}

	expectError(t, env.do(t, http.MethodGet, "/api/useradmin/audit?since=yesterday", secret, nil),
		http.StatusBadRequest, ErrCodeBadRequest)
}

// ─── Scenario ──────────────────────────────────────────────────────

// TestAdminLifecycle walks an administrator through issuing credentials,
// being denied, and being granted the missing permission.
func TestAdminLifecycle(t *testing.T) {
	env := newTestEnv(t)
	root := env.secretFor(t, auth.PermReadRole, auth.PermUpdateRole)
	ctx := context.Background()

	editor := env.newUser(t, auth.PermWriteCategory)
	kt := decode[auth.KeyToken](t, env.do(t, http.MethodPost, "/api/useradmin/user/credentials/"+editor.ID, "", nil))

	req := httptest.NewRequest(http.MethodPost, "/api/useradmin/user/auth/"+editor.ID, nil)
	req.Header.Set(headerClientKey, kt.ClientKey)
	req.Header.Set(headerClientToken, kt.ClientToken)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	secret := decode[map[string]string](t, w)["client_secret"]

	w = env.do(t, http.MethodPost, "/api/productadmin/category", secret, map[string]string{"name": "Paint", "description": "Wall paint"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category status = %d (%s)", w.Code, w.Body.String())
	}
	cat := decode[catalog.Category](t, w)

	expectError(t, env.do(t, http.MethodDelete, "/api/productadmin/category/"+cat.ID, secret, nil),
		http.StatusForbidden, ErrCodeForbidden)

	del, err := env.perms.GetByName(ctx, auth.PermDeleteCategory)
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if w := env.do(t, http.MethodPatch, "/api/useradmin/role/"+editor.RoleID, root, map[string]any{
		"permission_ids": []string{del.ID},
	}); w.Code != http.StatusOK {
		t.Fatalf("grant status = %d (%s)", w.Code, w.Body.String())
	}

	if w := env.do(t, http.MethodDelete, "/api/productadmin/category/"+cat.ID, secret, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete after grant status = %d (%s)", w.Code, w.Body.String())
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────

func newTestHub() *Hub {
	return NewHub(config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 10}, testLogger())
}

func TestHub_Subscriptions(t *testing.T) {
	tests := []struct {
		name string
		subs []string
		want bool
	}{
		{"exact", []string{events.TypeSecretIssued}, true},
		{"all", []string{WSChannelAll}, true},
		{"prefix", []string{"credential.*"}, true},
		{"other", []string{events.TypeRoleCreated}, false},
		{"none", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := newTestHub()
			client := &WSClient{
				hub:           hub,
				send:          make(chan []byte, wsSendBufferSize),
				subscriptions: make(map[string]struct{}),
			}
			for _, s := range tt.subs {
				client.subscriptions[s] = struct{}{}
			}
			hub.Register(client)
			defer hub.Unregister(client)

			err := hub.Deliver(context.Background(), events.New(events.TypeSecretIssued, "user", "usr-1"))
			if err != nil {
				t.Fatalf("Deliver() error = %v", err)
			}

			select {
			case msg := <-client.send:
				if !tt.want {
					t.Fatalf("unexpected message %s", msg)
				}
				var wsMsg WSMessage
				if err := json.Unmarshal(msg, &wsMsg); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if wsMsg.EventType != events.TypeSecretIssued {
					t.Errorf("event_type = %q, want %q", wsMsg.EventType, events.TypeSecretIssued)
				}
			case <-time.After(100 * time.Millisecond):
				if tt.want {
					t.Error("timed out waiting for broadcast message")
				}
			}
		})
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := newTestHub()
	client := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: make(map[string]struct{})}

	hub.Register(client)
	if got := hub.ClientCount(); got != 1 {
		t.Errorf("after register count = %d, want 1", got)
	}
	hub.Unregister(client)
	hub.Unregister(client)
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("after unregister count = %d, want 0", got)
	}
}

func TestWebSocket_StreamsEvents(t *testing.T) {
	env := newTestEnv(t)
	secret := env.secretFor(t, auth.PermReadAudit)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/useradmin/events/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("dial without secret succeeded")
	} else if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("dial without secret: resp = %v, err = %v", resp, err)
	}

	header := http.Header{}
	header.Set(headerClientSecret, secret)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	evt := events.New(events.TypeRoleCreated, "role", "rol-1")
	if err := env.srv.hub.Deliver(context.Background(), evt); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type      string       `json:"type"`
		EventType string       `json:"event_type"`
		Payload   events.Event `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != WSTypeEvent || msg.EventType != events.TypeRoleCreated || msg.Payload.ID != evt.ID {
		t.Errorf("message = %+v", msg)
	}
}
