package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/keygate/internal/audit"
)

// handleListAuditLogs returns paginated audit entries with optional filters.
//
// Query parameters:
//   - action: event type, e.g. credential.secret_issued or authorization.denied
//   - entity_type: user, role, permission, brand, category, subcategory
//   - entity_id: a specific entity
//   - user_id: the acting user
//   - since: RFC 3339 lower bound on created_at
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeInternalError(w, "audit trail not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		UserID:     q.Get("user_id"),
	}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
