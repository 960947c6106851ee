package web

import (
	"net/http"
	"strings"
)

type createProjectRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type addLanguageRequest struct {
	Code string `json:"code"`
}

// handleListProjects returns every project ordered by slug.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// handleCreateProject creates a project; a taken slug is 409.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !s.decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if !requireField(w, "slug", strings.TrimSpace(req.Slug)) || !requireField(w, "name", strings.TrimSpace(req.Name)) {
		return
	}

	project, err := s.service.CreateProject(r.Context(), req.Slug, req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// handleListLanguages returns the registered language codes.
func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := s.service.ListLanguages(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = l.Code
	}
	writeJSON(w, http.StatusOK, codes)
}

// handleAddLanguage registers a language code. Re-adding is a no-op.
func (s *Server) handleAddLanguage(w http.ResponseWriter, r *http.Request) {
	var req addLanguageRequest
	if !s.decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if !requireField(w, "code", strings.TrimSpace(req.Code)) {
		return
	}

	lang, err := s.service.AddLanguage(r.Context(), req.Code)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lang)
}
