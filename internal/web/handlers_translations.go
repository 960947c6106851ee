package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/polyglot/internal/core"
)

// defaultLanguage is served when ?lang= is omitted.
const defaultLanguage = "en_us"

type translationsResponse struct {
	Project      projectRef            `json:"project"`
	Language     string                `json:"language"`
	Translations map[string]core.Value `json:"translations"`
}

type setTranslationRequest struct {
	Key      string      `json:"key"`
	Language string      `json:"language"`
	Value    *core.Value `json:"value"`
	// Description is left alone when absent and cleared when null.
	Description json.RawMessage `json:"description"`
}

type importRequest struct {
	Language     string         `json:"language"`
	YAML         string         `json:"yaml"`
	Translations map[string]any `json:"translations"`
}

type importResponse struct {
	Success bool `json:"success"`
	core.ImportResult
}

// handleGetTranslations returns key name → value for one language.
func (s *Server) handleGetTranslations(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	lang := strings.TrimSpace(r.URL.Query().Get("lang"))
	if lang == "" {
		lang = defaultLanguage
	}

	translations, err := s.service.GetTranslations(r.Context(), project.ID, lang)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, translationsResponse{
		Project:      refOf(project),
		Language:     lang,
		Translations: translations,
	})
}

// handleSetTranslation is the manual edit path for a single key.
func (s *Server) handleSetTranslation(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	var req setTranslationRequest
	if !s.decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if !requireField(w, "key", req.Key) || !requireField(w, "language", req.Language) {
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value must be a string or an array of strings", "VAL001")
		return
	}

	description, ok := parseDescription(w, req.Description)
	if !ok {
		return
	}

	err := s.service.SetTranslation(r.Context(), project.ID, req.Key, req.Language, *req.Value, description, caller(r).UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// parseDescription maps an absent description to nil (unchanged) and null
// to the empty string, which the service stores as no description.
func parseDescription(w http.ResponseWriter, raw json.RawMessage) (*string, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	if string(raw) == "null" {
		empty := ""
		return &empty, true
	}
	var desc string
	if err := json.Unmarshal(raw, &desc); err != nil {
		writeError(w, http.StatusBadRequest, "description must be a string or null", "VAL001")
		return nil, false
	}
	return &desc, true
}

// handleImport reconciles a YAML document or a nested translation map into
// one language of the project.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}

	var req importRequest
	if !s.decodeJSON(w, r, s.cfg.Import.MaxDocumentBytes, &req) {
		return
	}
	if !requireField(w, "language", strings.TrimSpace(req.Language)) {
		return
	}

	var (
		result core.ImportResult
		err    error
	)
	author := caller(r).UserID
	switch {
	case req.YAML != "":
		result, err = s.service.ImportYAML(r.Context(), project.ID, req.Language, []byte(req.YAML), author)
	case req.Translations != nil:
		var flat map[string]any
		flat, err = core.Flatten(req.Translations)
		if err == nil {
			result, err = s.service.BulkImport(r.Context(), project.ID, req.Language, flat, author)
		}
	default:
		writeError(w, http.StatusBadRequest, "yaml or translations is required", "VAL001")
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Success: true, ImportResult: result})
}
