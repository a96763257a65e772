package api

import (
	"net/http"
	"strconv"

	"github.com/tomcamp/tomcamp-core/internal/audit"
)

// handleListAudit returns paginated audit entries, newest first.
//
// Query parameters:
//   - action: create, update, delete, login or append
//   - entity_type: user, journal, page or device
//   - entity_id, username: exact match
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Username:   q.Get("username"),
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

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, "list audit entries", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
