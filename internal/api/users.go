package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/keygate/internal/auth"
)

// ─── Request/Response Types ────────────────────────────────────────

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=128"`
	RoleID   string `json:"role_id" validate:"required"`
}

// userResponse never carries the password hash or credential material.
type userResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	RoleID      string    `json:"role_id"`
	HasKeyToken bool      `json:"has_key_token"`
	HasSecret   bool      `json:"has_secret"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		RoleID:      u.RoleID,
		HasKeyToken: u.HasKeyToken(),
		HasSecret:   u.HasSecret(),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListUsers returns all user accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.ListUsers(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	out := make([]userResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": out,
		"count": len(out),
	})
}

// handleGetUser returns a single user.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleCreateUser creates a user with no credentials issued.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.accounts.CreateUser(r.Context(), auth.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.logger.Info("user created", "user_id", user.ID, "role_id", user.RoleID)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// handleDeleteUser removes a user. Its secret stops authenticating at once.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.accounts.DeleteUser(r.Context(), id); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	s.logger.Info("user deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}
