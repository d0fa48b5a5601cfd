package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/keygate/internal/auth"
)

type createPermissionRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Section     string `json:"section" validate:"required,max=100"`
}

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := s.registry.ListPermissions(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"permissions": perms,
		"count":       len(perms),
	})
}

func (s *Server) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := s.registry.GetPermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perm)
}

// handlePermissionsBySection lists one section. An empty section is 404.
func (s *Server) handlePermissionsBySection(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section_name")
	perms, err := s.registry.PermissionsBySection(r.Context(), section)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"section":     section,
		"permissions": perms,
		"count":       len(perms),
	})
}

// handleCreatePermission adds a permission. Names containing whitespace are
// rejected with validation_error.
func (s *Server) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	perm := &auth.Permission{Name: req.Name, Description: req.Description, Section: req.Section}
	if err := s.registry.CreatePermission(r.Context(), perm); err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.logger.Info("permission created", "permission_id", perm.ID, "name", perm.Name)
	writeJSON(w, http.StatusCreated, perm)
}
