package web

// This file contains shared request helpers used across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/polyglot/internal/core"
)

// maxBodyBytes bounds JSON bodies other than imports.
const maxBodyBytes = 1 << 20

// projectRef is the project summary embedded in key and translation responses.
type projectRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func refOf(p core.Project) projectRef {
	return projectRef{ID: p.ID, Slug: p.Slug, Name: p.Name}
}

// successResponse is the body of mutations that return nothing else.
type successResponse struct {
	Success bool `json:"success"`
}

// decodeJSON reads a JSON body of at most limit bytes into dst.
// On failure it writes the response and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytes):
			s.respondError(w, r, err)
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is required", "VAL002")
		default:
			var valErr *core.Error
			if errors.As(err, &valErr) {
				s.respondError(w, r, err)
				return false
			}
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err), "VAL002")
		}
		return false
	}
	return true
}

// project resolves the {slug} URL parameter.
// On failure it writes the response and returns false.
func (s *Server) project(w http.ResponseWriter, r *http.Request) (core.Project, bool) {
	p, err := s.service.ProjectBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.respondError(w, r, err)
		return core.Project{}, false
	}
	return p, true
}

// caller returns the identity attached by the Identity middleware.
func caller(r *http.Request) core.Identity {
	return core.IdentityFromContext(r.Context())
}

// parseIntParam parses an integer query parameter.
// Missing or malformed values yield 0 so the service applies its default.
func parseIntParam(r *http.Request, name string) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}

// requireField writes a 400 naming field when value is empty.
func requireField(w http.ResponseWriter, field, value string) bool {
	if value == "" {
		writeError(w, http.StatusBadRequest, field+" is required", "VAL001")
		return false
	}
	return true
}
