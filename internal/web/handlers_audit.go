package web

import (
	"net/http"

	"github.com/JonMunkholm/polyglot/internal/core"
)

// handleListAudit pages through a project's audit history, oldest first.
// Optional filters: keyId, language, action.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	entries, err := s.service.ListAudit(r.Context(), core.AuditFilter{
		ProjectID: project.ID,
		KeyID:     q.Get("keyId"),
		Language:  q.Get("language"),
		Action:    core.AuditAction(q.Get("action")),
		Limit:     parseIntParam(r, "limit"),
		Offset:    parseIntParam(r, "offset"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
