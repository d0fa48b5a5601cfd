package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nerrad567/keygate/internal/auth"
)

// healthCheckTimeout bounds the database ping in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.securityHeadersMiddleware())
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/useradmin", s.userAdminRoutes)
		r.Route("/productadmin", s.productAdminRoutes)
	})

	return r
}

// readGuard admits the route permission or the section-wide admin permission.
func (s *Server) readGuard(perm, section string) func(http.Handler) http.Handler {
	return s.requirePermission(perm, auth.AdminPermission(section))
}

func (s *Server) userAdminRoutes(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		// Credential issuance is how a caller gets its first secret.
		r.Post("/credentials/{id}", s.handleIssueKeyToken)
		r.Post("/auth/{id}", s.handleIssueSecret)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSecret)
			r.With(s.readGuard(auth.PermReadUser, auth.SectionUser)).Get("/", s.handleListUsers)
			r.With(s.requirePermission(auth.PermWriteUser)).Post("/", s.handleCreateUser)
			r.With(s.readGuard(auth.PermReadUser, auth.SectionUser)).Get("/{id}", s.handleGetUser)
			r.With(s.requirePermission(auth.PermDeleteUser)).Delete("/{id}", s.handleDeleteUser)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSecret)

		r.Route("/role", func(r chi.Router) {
			r.With(s.readGuard(auth.PermReadRole, auth.SectionRole)).Get("/", s.handleListRoles)
			r.With(s.requirePermission(auth.PermWriteRole)).Post("/", s.handleCreateRole)
			r.With(s.readGuard(auth.PermReadRole, auth.SectionRole)).Get("/{id}", s.handleGetRole)
			r.With(s.requirePermission(auth.PermUpdateRole)).Patch("/{id}", s.handleUpdateRole)
			r.With(s.requirePermission(auth.PermDeleteRole)).Delete("/{id}", s.handleDeleteRole)
		})

		r.With(s.readGuard(auth.PermReadPermission, auth.SectionPermission)).Get("/permissions", s.handleListPermissions)
		r.With(s.readGuard(auth.PermReadPermission, auth.SectionPermission)).Get("/permissions/section", s.handlePermissionsBySection)
		r.With(s.readGuard(auth.PermReadPermission, auth.SectionPermission)).Get("/permission/{id}", s.handleGetPermission)
		r.With(s.requirePermission(auth.PermWritePermission)).Post("/permission", s.handleCreatePermission)

		r.With(s.readGuard(auth.PermReadAudit, auth.SectionAudit)).Get("/audit", s.handleListAudit)
		r.With(s.readGuard(auth.PermReadAudit, auth.SectionAudit)).Get("/events/ws", s.handleWebSocket)
	})
}

func (s *Server) productAdminRoutes(r chi.Router) {
	r.Use(s.requireSecret)

	r.Route("/brand", func(r chi.Router) {
		r.With(s.readGuard(auth.PermReadBrand, auth.SectionBrand)).Get("/", s.handleListBrands)
		r.With(s.requirePermission(auth.PermWriteBrand)).Post("/", s.handleCreateBrand)
		r.With(s.readGuard(auth.PermReadBrand, auth.SectionBrand)).Get("/{id}", s.handleGetBrand)
		r.With(s.requirePermission(auth.PermUpdateBrand)).Patch("/{id}", s.handleUpdateBrand)
		r.With(s.requirePermission(auth.PermDeleteBrand)).Delete("/{id}", s.handleDeleteBrand)
	})

	r.Route("/category", func(r chi.Router) {
		// Subcategory routes are registered before /{id} so "subcategory"
		// is never read as a category ID.
		r.Route("/subcategory", func(r chi.Router) {
			r.With(s.readGuard(auth.PermReadSubcategory, auth.SectionSubcategory)).Get("/", s.handleListSubcategories)
			r.With(s.requirePermission(auth.PermWriteSubcategory)).Post("/", s.handleCreateSubcategory)
			r.With(s.readGuard(auth.PermReadSubcategory, auth.SectionSubcategory)).Get("/{id}", s.handleGetSubcategory)
			r.With(s.requirePermission(auth.PermUpdateSubcategory)).Patch("/{id}", s.handleUpdateSubcategory)
			r.With(s.requirePermission(auth.PermDeleteSubcategory)).Delete("/{id}", s.handleDeleteSubcategory)
		})

		r.With(s.readGuard(auth.PermReadCategory, auth.SectionCategory)).Get("/", s.handleListCategories)
		r.With(s.requirePermission(auth.PermWriteCategory)).Post("/", s.handleCreateCategory)
		r.With(s.readGuard(auth.PermReadCategory, auth.SectionCategory)).Get("/{id}", s.handleGetCategory)
		r.With(s.requirePermission(auth.PermUpdateCategory)).Patch("/{id}", s.handleUpdateCategory)
		r.With(s.requirePermission(auth.PermDeleteCategory)).Delete("/{id}", s.handleDeleteCategory)
		r.With(s.readGuard(auth.PermReadSubcategory, auth.SectionSubcategory)).Get("/{id}/subcategory", s.handleListCategorySubcategories)
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check: database unavailable", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
	})
}
