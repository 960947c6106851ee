package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/polyglot/internal/config"
	"github.com/JonMunkholm/polyglot/internal/core"
	"github.com/JonMunkholm/polyglot/internal/logging"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// Identity returns middleware that resolves the X-API-Key header against
// the configured principals and attaches the caller identity to the request
// context. Requests without a key continue anonymously; an unknown key is
// rejected with 401.
func Identity(principals map[string]config.Principal) func(http.Handler) http.Handler {
	keys := make([]string, 0, len(principals))
	for k := range principals {
		keys = append(keys, k)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			matched, ok := matchAPIKey(apiKey, keys)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeJSONError(w, http.StatusUnauthorized, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			p := principals[matched]
			ctx := core.ContextWithIdentity(r.Context(), core.Identity{
				UserID:      p.UserID,
				Permissions: p.Permissions,
			})
			ctx = logging.ContextWithUserID(ctx, p.UserID)
			setRequestUser(ctx, p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !core.IdentityFromContext(r.Context()).Authenticated() {
			writeJSONError(w, http.StatusUnauthorized, "authentication required", "AUTH_MISSING_KEY")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission rejects anonymous callers with 401 and callers lacking
// perm with 403.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := core.IdentityFromContext(r.Context())
			if !id.Authenticated() {
				writeJSONError(w, http.StatusUnauthorized, "authentication required", "AUTH_MISSING_KEY")
				return
			}
			if !id.HasPermission(perm) {
				logging.FromContext(r.Context()).Warn("auth: permission denied",
					"path", r.URL.Path,
					"permission", perm,
				)
				writeJSONError(w, http.StatusForbidden, "missing permission "+perm, "AUTH_FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matchAPIKey finds the configured key equal to key.
// Every configured key is compared so timing does not reveal which one matched.
func matchAPIKey(key string, validKeys []string) (string, bool) {
	var matched string
	found := 0
	for _, validKey := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			matched = validKey
			found = 1
		}
	}
	return matched, found == 1
}

func writeJSONError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"` + code + `"}`))
}

// requestUser lets Identity report the resolved user back to Logger,
// which wraps it and never sees the rewritten request context.
type requestUser struct {
	id string
}

type requestUserKey struct{}

func withRequestUser(ctx context.Context, h *requestUser) context.Context {
	return context.WithValue(ctx, requestUserKey{}, h)
}

func setRequestUser(ctx context.Context, id string) {
	if h, ok := ctx.Value(requestUserKey{}).(*requestUser); ok {
		h.id = id
	}
}
