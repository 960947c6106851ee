package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/polyglot/internal/core"
)

type keysResponse struct {
	Project projectRef `json:"project"`
	Keys    []core.Key `json:"keys"`
}

// keyItem accepts the key name and type under their legacy aliases too.
type keyItem struct {
	Key         string  `json:"key"`
	KeyName     string  `json:"key_name"`
	Type        string  `json:"type"`
	ValueType   string  `json:"value_type"`
	Description *string `json:"description"`
}

func (k keyItem) toKeySpec() core.KeySpec {
	ks := core.KeySpec{Name: k.Key, Type: k.Type, Description: k.Description}
	if ks.Name == "" {
		ks.Name = k.KeyName
	}
	if ks.Type == "" {
		ks.Type = k.ValueType
	}
	return ks
}

type createKeysRequest struct {
	Keys []keyItem `json:"keys"`
}

// handleListKeys returns a project's keys ordered by name.
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	keys, err := s.service.ListKeys(r.Context(), project.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keysResponse{Project: refOf(project), Keys: keys})
}

// handleCreateKeys creates or updates keys in bulk, all or nothing.
func (s *Server) handleCreateKeys(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	var req createKeysRequest
	if !s.decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, http.StatusBadRequest, "keys must be a non-empty array", "VAL001")
		return
	}

	specs := make([]core.KeySpec, len(req.Keys))
	for i, item := range req.Keys {
		specs[i] = item.toKeySpec()
	}

	keys, err := s.service.CreateKeysBulk(r.Context(), project.ID, specs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, keysResponse{Project: refOf(project), Keys: keys})
}

// handleDeleteKey removes a key with its translations and suggestions.
func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	err := s.service.DeleteKey(r.Context(), project.ID, chi.URLParam(r, "id"), caller(r).UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
