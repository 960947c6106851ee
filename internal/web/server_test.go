package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/polyglot/internal/config"
	"github.com/JonMunkholm/polyglot/internal/core"
	"github.com/JonMunkholm/polyglot/internal/store"
)

const (
	adminKey    = "admin-key"
	modKey      = "mod-key"
	uploaderKey = "upload-key"
	fanKey      = "fan-key"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Security: config.SecurityConfig{
			Principals: []string{
				adminKey + "=admin:*",
				modKey + "=mod:i18n.moderate",
				uploaderKey + "=uploader:i18n.upload",
				fanKey + "=fan",
			},
		},
		Moderation: config.ModerationConfig{DefaultPageSize: 50, MaxPageSize: 100},
		Import:     config.ImportConfig{MaxDocumentBytes: 1 << 16, MaxEntries: 100},
	}
}

type apiFixture struct {
	srv *Server
	svc *core.Service
}

func newAPI(t *testing.T, mutate ...func(*config.Config)) *apiFixture {
	t.Helper()
	ctx := context.Background()

	db, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	svc, err := core.NewService(db, core.WithModeration(cfg.Moderation), core.WithImport(cfg.Import))
	require.NoError(t, err)

	srv, err := NewServer(svc, cfg, db.Healthcheck)
	require.NoError(t, err)
	return &apiFixture{srv: srv, svc: svc}
}

// do sends a request with an optional API key and JSON body.
func (f *apiFixture) do(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seed creates the "demo" project with en_us and fr.
func (f *apiFixture) seed(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/i18n/projects", adminKey, map[string]string{"slug": "demo", "name": "Demo"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, code := range []string{"en_us", "fr"} {
		rec := f.do(t, http.MethodPost, "/api/i18n/languages", adminKey, map[string]string{"code": code})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestNewServer_Errors(t *testing.T) {
	_, err := NewServer(nil, testConfig(), nil)
	assert.Error(t, err)

	f := newAPI(t)
	cfg := testConfig()
	cfg.Security.Principals = []string{"broken"}
	_, err = NewServer(f.svc, cfg, nil)
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	f := newAPI(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	down, err := NewServer(f.svc, testConfig(), func(context.Context) error { return errors.New("db gone") })
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	down.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPermissions(t *testing.T) {
	f := newAPI(t)
	f.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		body   any
		want   int
	}{
		{"anonymous read projects", http.MethodGet, "/api/i18n/projects", "", nil, http.StatusOK},
		{"anonymous read keys", http.MethodGet, "/api/i18n/projects/demo/keys", "", nil, http.StatusOK},
		{"unknown key", http.MethodGet, "/api/i18n/projects", "nope", nil, http.StatusUnauthorized},
		{"anonymous create project", http.MethodPost, "/api/i18n/projects", "", map[string]string{"slug": "x", "name": "X"}, http.StatusUnauthorized},
		{"fan create project", http.MethodPost, "/api/i18n/projects", fanKey, map[string]string{"slug": "x", "name": "X"}, http.StatusForbidden},
		{"moderator add language", http.MethodPost, "/api/i18n/languages", modKey, map[string]string{"code": "de"}, http.StatusForbidden},
		{"anonymous suggestion", http.MethodPost, "/api/i18n/projects/demo/suggestions", "", map[string]any{"language": "fr", "key": "k", "value": "v"}, http.StatusUnauthorized},
		{"fan import", http.MethodPost, "/api/i18n/projects/demo/import", fanKey, map[string]any{"language": "fr", "yaml": "a: b"}, http.StatusForbidden},
		{"uploader moderation", http.MethodGet, "/api/i18n/moderation/suggestions", uploaderKey, nil, http.StatusForbidden},
		{"anonymous moderation", http.MethodGet, "/api/i18n/moderation/suggestions", "", nil, http.StatusUnauthorized},
		{"moderator moderation", http.MethodGet, "/api/i18n/moderation/suggestions", modKey, nil, http.StatusOK},
		{"fan audit", http.MethodGet, "/api/i18n/projects/demo/audit", fanKey, nil, http.StatusForbidden},
		{"admin audit", http.MethodGet, "/api/i18n/projects/demo/audit", adminKey, nil, http.StatusOK},
		{"fan delete key", http.MethodDelete, "/api/i18n/projects/demo/keys/abc", fanKey, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.key, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSuggestionFlow(t *testing.T) {
	f := newAPI(t)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/api/i18n/projects/demo/keys", adminKey, map[string]any{
		"keys": []map[string]string{{"key": "greeting"}, {"key_name": "steps", "value_type": "array"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	keys := decode[keysResponse](t, rec)
	assert.Equal(t, "demo", keys.Project.Slug)
	require.Len(t, keys.Keys, 2)
	assert.Equal(t, core.TypeList, keys.Keys[1].Type)

	rec = f.do(t, http.MethodPost, "/api/i18n/projects/demo/suggestions", fanKey, map[string]any{
		"language": "fr", "key": "greeting", "value": "Bonjour",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sg := decode[core.Suggestion](t, rec)
	assert.Equal(t, core.StatusPending, sg.Status)
	assert.Equal(t, "fan", sg.Author)

	rec = f.do(t, http.MethodGet, "/api/i18n/moderation/suggestions?status=pending", modKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decode[[]core.Suggestion](t, rec)
	require.Len(t, queue, 1)
	assert.Equal(t, sg.ID, queue[0].ID)

	rec = f.do(t, http.MethodPost, "/api/i18n/moderation/suggestions/"+sg.ID+"/approve", modKey, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[core.Suggestion](t, rec)
	assert.Equal(t, core.StatusApproved, approved.Status)
	assert.Equal(t, "mod", approved.ReviewedBy)

	rec = f.do(t, http.MethodPost, "/api/i18n/moderation/suggestions/"+sg.ID+"/reject", modKey, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "I18N002", errResp.Code)
	assert.Equal(t, "state", errResp.Kind)

	rec = f.do(t, http.MethodGet, "/api/i18n/projects/demo/translations?lang=fr", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tr := decode[translationsResponse](t, rec)
	assert.Equal(t, "fr", tr.Language)
	assert.Equal(t, core.StringValue("Bonjour"), tr.Translations["greeting"])

	rec = f.do(t, http.MethodGet, "/api/i18n/projects/demo/translations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultLanguage, decode[translationsResponse](t, rec).Language)

	rec = f.do(t, http.MethodGet, "/api/i18n/projects/demo/audit", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]core.AuditEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, core.ActionSuggestionApproved, entries[0].Action)
	assert.Equal(t, "mod", entries[0].Author)
}

func TestSetTranslationAndDeleteKey(t *testing.T) {
	f := newAPI(t)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/api/i18n/projects/demo/keys", adminKey, map[string]any{
		"keys": []map[string]string{{"key": "title", "description": "Page title"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	keyID := decode[keysResponse](t, rec).Keys[0].ID

	rec = f.do(t, http.MethodPost, "/api/i18n/projects/demo/translations", adminKey,
		`{"key":"title","language":"en_us","value":"Welcome","description":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/i18n/projects/demo/keys", "", nil)
	listed := decode[keysResponse](t, rec)
	require.Len(t, listed.Keys, 1)
	assert.Nil(t, listed.Keys[0].Description, "null clears the description")

	rec = f.do(t, http.MethodPost, "/api/i18n/projects/demo/translations", adminKey,
		map[string]any{"key": "title", "language": "en_us", "value": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "string key rejects a list")

	rec = f.do(t, http.MethodDelete, "/api/i18n/projects/demo/keys/"+keyID, adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/i18n/projects/demo/keys/"+keyID, adminKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/i18n/projects/demo/translations?lang=en_us", "", nil)
	assert.Empty(t, decode[translationsResponse](t, rec).Translations)

	rec = f.do(t, http.MethodGet, "/api/i18n/projects/demo/audit?action=DELETE", adminKey, nil)
	entries := decode[[]core.AuditEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "title", entries[0].KeyName)
	assert.Nil(t, entries[0].KeyID)
}

func TestImport(t *testing.T) {
	f := newAPI(t, func(c *config.Config) { c.Import.MaxDocumentBytes = 512 })
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/api/i18n/projects/demo/import", uploaderKey, map[string]any{
		"language": "en_us",
		"yaml":     "home:\n  title: Welcome\n  links:\n    - Docs\n    - Blog\n",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[importResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.CreatedKeys)
	assert.Equal(t, 2, res.Inserted)

	rec = f.do(t, http.MethodPost, "/api/i18n/projects/demo/import", uploaderKey, map[string]any{
		"language":     "fr",
		"translations": map[string]any{"home": map[string]any{"title": "Bienvenue"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[importResponse](t, rec).Inserted)

	rec = f.do(t, http.MethodPost, "/api/i18n/projects/demo/import", uploaderKey, map[string]any{
		"language":     "fr",
		"translations": map[string]any{"home": map[string]any{"title": []string{"a", "b"}}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "KEY_TYPE_MISMATCH:home.title")

	rec = f.do(t, http.MethodPost, "/api/i18n/projects/demo/import", uploaderKey, map[string]any{"language": "fr"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/i18n/projects/demo/import", uploaderKey, map[string]any{
		"language": "fr",
		"yaml":     "big: " + strings.Repeat("x", 1024),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStatusMapping(t *testing.T) {
	f := newAPI(t)
	f.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		body   any
		want   int
		code   string
	}{
		{"unknown project", http.MethodGet, "/api/i18n/projects/nope/keys", "", nil, http.StatusNotFound, "NF001"},
		{"duplicate slug", http.MethodPost, "/api/i18n/projects", adminKey, map[string]string{"slug": "DEMO", "name": "Again"}, http.StatusConflict, "I18N003"},
		{"bad slug", http.MethodPost, "/api/i18n/projects", adminKey, map[string]string{"slug": "no spaces", "name": "X"}, http.StatusBadRequest, "VAL001"},
		{"malformed json", http.MethodPost, "/api/i18n/projects", adminKey, "{", http.StatusBadRequest, "VAL002"},
		{"missing name", http.MethodPost, "/api/i18n/projects", adminKey, map[string]string{"slug": "x"}, http.StatusBadRequest, "VAL001"},
		{"empty keys", http.MethodPost, "/api/i18n/projects/demo/keys", adminKey, map[string]any{"keys": []any{}}, http.StatusBadRequest, "VAL001"},
		{"bad key type", http.MethodPost, "/api/i18n/projects/demo/keys", adminKey, map[string]any{"keys": []map[string]string{{"key": "a", "type": "number"}}}, http.StatusBadRequest, "VAL001"},
		{"numeric value", http.MethodPost, "/api/i18n/projects/demo/suggestions", fanKey, `{"language":"fr","key":"a","value":3}`, http.StatusBadRequest, "VAL001"},
		{"unknown suggestion key", http.MethodPost, "/api/i18n/projects/demo/suggestions", fanKey, map[string]any{"language": "fr", "key": "nope", "value": "v"}, http.StatusNotFound, "NF001"},
		{"bad status", http.MethodGet, "/api/i18n/moderation/suggestions?status=archived", modKey, nil, http.StatusBadRequest, "VAL001"},
		{"missing suggestion", http.MethodPost, "/api/i18n/moderation/suggestions/nope/approve", modKey, nil, http.StatusNotFound, "NF001"},
		{"unregistered language", http.MethodPost, "/api/i18n/projects/demo/import", adminKey, map[string]any{"language": "xx", "translations": map[string]string{"a": "b"}}, http.StatusNotFound, "NF001"},
		{"colliding import paths", http.MethodPost, "/api/i18n/projects/demo/import", adminKey, map[string]any{"language": "fr", "translations": map[string]any{"a": map[string]string{"b": "x"}, "a.b": "y"}}, http.StatusBadRequest, "VAL001"},
		{"unknown route", http.MethodGet, "/api/i18n/nowhere", "", nil, http.StatusNotFound, "NF002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.key, tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestModerationPaging(t *testing.T) {
	f := newAPI(t)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/api/i18n/projects/demo/keys", adminKey, map[string]any{
		"keys": []map[string]string{{"key": "greeting"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	for _, v := range []string{"one", "two", "three"} {
		rec := f.do(t, http.MethodPost, "/api/i18n/projects/demo/suggestions", fanKey, map[string]any{
			"language": "fr", "key": "greeting", "value": v,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/i18n/moderation/suggestions?limit=2&offset=1", modKey, nil)
	page := decode[[]core.Suggestion](t, rec)
	require.Len(t, page, 2)
	assert.Equal(t, core.StringValue("two"), page[0].Value)

	rec = f.do(t, http.MethodGet, "/api/i18n/moderation/suggestions?limit=abc", modKey, nil)
	assert.Len(t, decode[[]core.Suggestion](t, rec), 3, "malformed limit falls back to the default")
}

func TestRateLimit(t *testing.T) {
	f := newAPI(t, func(c *config.Config) { c.Security.RateLimitPerMinute = 2 })

	for range 2 {
		assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "", nil).Code)
	}
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", core.ErrInvalid, http.StatusBadRequest},
		{"state", core.ErrNotPending, http.StatusConflict},
		{"busy", core.ErrBusy, http.StatusServiceUnavailable},
		{"canceled begin", fmt.Errorf("begin transaction: %w", context.Canceled), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"driver failure", errors.New("disk on fire"), http.StatusInternalServerError},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondError_CanceledRequest(t *testing.T) {
	f := newAPI(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/i18n/projects", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	f.srv.respondError(rec, req, fmt.Errorf("begin transaction: %w", context.Canceled))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "REQ001", body.Code)
	assert.Equal(t, "unavailable", body.Kind)
}
