// Package web provides the JSON HTTP API for projects, keys, translations
// and suggestion moderation.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/polyglot/internal/config"
	"github.com/JonMunkholm/polyglot/internal/core"
	"github.com/JonMunkholm/polyglot/internal/logging"
	"github.com/JonMunkholm/polyglot/internal/web/middleware"
)

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

// Server is the HTTP server for the translation API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	health  HealthFunc
	limiter *middleware.RateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with middleware and routes installed.
// health may be nil, in which case /healthz always reports ok.
func NewServer(service *core.Service, cfg *config.Config, health HealthFunc) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("web: nil service")
	}
	if cfg == nil {
		return nil, fmt.Errorf("web: nil config")
	}

	principals, err := cfg.Security.ParsePrincipals()
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	s := &Server{
		service: service,
		cfg:     cfg,
		health:  health,
		router:  chi.NewRouter(),
	}
	if cfg.Security.RateLimitPerMinute > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute, time.Minute)
	}

	s.setupMiddleware(principals)
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(principals map[string]config.Principal) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}
	s.router.Use(middleware.Identity(principals))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	manage := middleware.RequirePermission(core.PermManage)

	s.router.Route("/api/i18n", func(r chi.Router) {
		r.Get("/projects", s.handleListProjects)
		r.With(manage).Post("/projects", s.handleCreateProject)

		r.Route("/projects/{slug}", func(r chi.Router) {
			r.Get("/keys", s.handleListKeys)
			r.With(manage).Post("/keys", s.handleCreateKeys)
			r.With(manage).Delete("/keys/{id}", s.handleDeleteKey)

			r.Get("/translations", s.handleGetTranslations)
			r.With(manage).Post("/translations", s.handleSetTranslation)

			r.With(middleware.RequirePermission(core.PermUpload)).Post("/import", s.handleImport)

			r.With(middleware.RequireAuth).Post("/suggestions", s.handleSubmitSuggestion)

			r.With(manage).Get("/audit", s.handleListAudit)
		})

		r.Route("/moderation/suggestions", func(r chi.Router) {
			r.Use(middleware.RequirePermission(core.PermModerate))
			r.Get("/", s.handleListSuggestions)
			r.Post("/{id}/approve", s.handleApproveSuggestion)
			r.Post("/{id}/reject", s.handleRejectSuggestion)
		})

		r.Get("/languages", s.handleListLanguages)
		r.With(manage).Post("/languages", s.handleAddLanguage)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found", "NF002")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "REQ003")
	})
}

// Start begins listening for HTTP requests and blocks until the server stops.
// The rate limiter's eviction loop runs until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("healthcheck failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable", "DB008")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// JSON only; nothing should ever be rendered
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
