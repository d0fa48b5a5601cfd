package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/keygate/internal/auth"
)

type createRoleRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   string   `json:"description" validate:"max=1000"`
	PermissionIDs []string `json:"permission_ids" validate:"omitempty,dive,required"`
}

type updateRoleRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitnil,max=100"`
	Description   *string  `json:"description,omitempty" validate:"omitnil,max=1000"`
	PermissionIDs []string `json:"permission_ids,omitempty" validate:"omitempty,dive,required"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.registry.ListRoles(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"roles": roles,
		"count": len(roles),
	})
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.registry.RoleWithPermissions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// handleCreateRole creates a role and its permission links atomically.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	role, err := s.registry.CreateRole(r.Context(),
		&auth.Role{Name: req.Name, Description: req.Description}, req.PermissionIDs)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.logger.Info("role created", "role_id", role.ID, "permissions", len(role.Permissions))
	writeJSON(w, http.StatusCreated, role)
}

// handleUpdateRole renames or describes a role and adds permission links.
// Links are only ever added here.
func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	role, err := s.registry.UpdateRole(r.Context(), chi.URLParam(r, "id"), auth.RolePatch{
		Name:             req.Name,
		Description:      req.Description,
		AddPermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.DeleteRole(r.Context(), id); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	s.logger.Info("role deleted", "role_id", id)
	w.WriteHeader(http.StatusNoContent)
}
