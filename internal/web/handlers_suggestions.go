package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/polyglot/internal/core"
)

type submitSuggestionRequest struct {
	Language string      `json:"language"`
	Key      string      `json:"key"`
	Value    *core.Value `json:"value"`
}

// handleSubmitSuggestion records a pending suggestion from any signed-in caller.
func (s *Server) handleSubmitSuggestion(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	var req submitSuggestionRequest
	if !s.decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if !requireField(w, "language", req.Language) || !requireField(w, "key", req.Key) {
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is invalid", "VAL001")
		return
	}

	sg, err := s.service.SubmitSuggestion(r.Context(), project.ID, req.Key, req.Language, *req.Value, caller(r).UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sg)
}

// handleListSuggestions pages through suggestions in one status, oldest first.
func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	status, err := core.ParseSuggestionStatus(r.URL.Query().Get("status"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	suggestions, err := s.service.ListSuggestions(r.Context(), core.SuggestionFilter{
		Status: status,
		Limit:  parseIntParam(r, "limit"),
		Offset: parseIntParam(r, "offset"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleApproveSuggestion(w http.ResponseWriter, r *http.Request) {
	sg, err := s.service.Approve(r.Context(), chi.URLParam(r, "id"), caller(r).UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

func (s *Server) handleRejectSuggestion(w http.ResponseWriter, r *http.Request) {
	sg, err := s.service.Reject(r.Context(), chi.URLParam(r, "id"), caller(r).UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}
