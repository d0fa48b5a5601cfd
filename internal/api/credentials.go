package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleIssueKeyToken issues the one-time key/token pair for a user.
// The plaintext token appears in this response only.
func (s *Server) handleIssueKeyToken(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	kt, err := s.issuer.IssueKeyToken(r.Context(), userID)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.logger.Info("client key and token issued", "user_id", userID)
	writeJSON(w, http.StatusCreated, kt)
}

// handleIssueSecret exchanges the client-key and client-token headers for
// the user's client secret.
func (s *Server) handleIssueSecret(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	key := strings.TrimSpace(r.Header.Get(headerClientKey))
	token := strings.TrimSpace(r.Header.Get(headerClientToken))

	secret, err := s.issuer.IssueSecret(r.Context(), userID, key, token)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	s.logger.Info("client secret issued", "user_id", userID)
	writeJSON(w, http.StatusCreated, map[string]string{"client_secret": secret})
}
