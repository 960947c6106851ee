package web

// errors.go provides unified error responses for the JSON API.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status comes from the error's core.Kind
//  4. core.MapError supplies the user message and support code
//  5. The technical error is logged with the request id for correlation

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/polyglot/internal/core"
	"github.com/JonMunkholm/polyglot/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Error, Action) fields.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
	// Kind is the domain error class, e.g. "not_found".
	Kind string `json:"kind,omitempty"`
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	switch core.KindOf(err) {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict, core.KindState:
		return http.StatusConflict
	case core.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	log := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", userMsg.Code,
		"error", err.Error(),
	)
	switch {
	case status == http.StatusServiceUnavailable:
		log.Warn("request not served")
	case status >= http.StatusInternalServerError:
		log.Error("request error")
	default:
		log.Debug("request rejected")
	}

	resp := ErrorResponse{
		Error:  userMsg.Message,
		Action: userMsg.Action,
		Code:   userMsg.Code,
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	if status == http.StatusRequestEntityTooLarge {
		resp.Error, resp.Code = "request body too large", "REQ004"
	} else {
		resp.Kind = core.KindOf(err).String()
	}
	writeJSON(w, status, resp)
}

// writeError writes an error that did not come from the service.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
