package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/config"
	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/observability"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// fakeHelpdesk records requests and serves canned helpdesk answers.
type fakeHelpdesk struct {
	mu       sync.Mutex
	requests []recordedRequest
	mux      *http.ServeMux
}

type recordedRequest struct {
	Method    string
	Path      string
	Query     string
	Body      string
	Files     []string
	RequestID string
	Cookie    string
}

func newFakeHelpdesk(t *testing.T) (*fakeHelpdesk, *httptest.Server) {
	t.Helper()
	fake := &fakeHelpdesk{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(srv.Close)
	return fake, srv
}

func (f *fakeHelpdesk) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		RequestID: r.Header.Get(observability.RequestIDHeader),
	}
	if c, err := r.Cookie("session"); err == nil {
		rec.Cookie = c.Value
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for _, fh := range r.MultipartForm.File["imagenes"] {
				rec.Files = append(rec.Files, fh.Filename)
			}
		}
	} else if r.Body != nil {
		body, _ := io.ReadAll(r.Body)
		rec.Body = string(body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

func (f *fakeHelpdesk) handle(pattern string, status int, body any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (f *fakeHelpdesk) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, baseURL string, mutate ...func(*config.HelpdeskConfig)) *Client {
	t.Helper()
	cfg := config.HelpdeskConfig{BaseURL: baseURL, Scope: domain.ScopeAvailable}
	for _, m := range mutate {
		m(&cfg)
	}
	client, err := NewClient(cfg, zap.NewNop(), observability.NewMetrics())
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(config.HelpdeskConfig{BaseURL: "not a url"}, nil, nil)
	assert.Error(t, err)
}

func TestClientNormalizesFailures(t *testing.T) {
	fake, srv := newFakeHelpdesk(t)
	fake.handle("GET /api/tecnico/tickets/401", http.StatusUnauthorized, map[string]any{"ok": false, "msg": "No autenticado"})
	fake.handle("GET /api/tecnico/tickets/403", http.StatusForbidden, map[string]any{"ok": false, "msg": "No autorizado"})
	fake.handle("GET /api/tecnico/tickets/404", http.StatusNotFound, map[string]any{"ok": false, "msg": "Ticket no encontrado"})
	fake.handle("GET /api/tecnico/tickets/400", http.StatusBadRequest, map[string]any{"ok": false, "msg": "Estado inválido"})
	fake.handle("GET /api/tecnico/tickets/500", http.StatusInternalServerError, map[string]any{"error": "db down"})
	fake.handle("GET /api/tecnico/tickets/200", http.StatusOK, map[string]any{"ok": false, "msg": "algo falló"})
	fake.mux.HandleFunc("GET /api/tecnico/tickets/302", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	fake.mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>login</html>")
	})

	repo := NewTicketRepository(newTestClient(t, srv.URL))
	cases := map[int]string{
		401: apperrors.CodeUnauthenticated,
		403: apperrors.CodeUnauthorized,
		404: apperrors.CodeNotFound,
		400: apperrors.CodeInvalid,
		500: apperrors.CodeServerError,
		200: apperrors.CodeServerError,
		302: apperrors.CodeUnauthenticated,
	}
	for id, code := range cases {
		_, err := repo.Get(context.Background(), id)
		require.Error(t, err, id)
		assert.Equal(t, code, apperrors.KindOf(err), "ticket %d", id)
	}

	_, err := repo.Get(context.Background(), 400)
	assert.Contains(t, err.Error(), "Estado inválido")
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	repo := NewTicketRepository(newTestClient(t, url, func(c *config.HelpdeskConfig) {
		c.TimeoutSeconds = 1
	}))
	_, err := repo.List(context.Background(), domain.ScopeAssigned)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnreachable, apperrors.KindOf(err))
	assert.True(t, apperrors.Retryable(err))
}

func TestClientSendsRequestIDAndSessionCookie(t *testing.T) {
	fake, srv := newFakeHelpdesk(t)
	fake.handle("GET /api/tecnicos", http.StatusOK, []map[string]any{})

	repo := NewTechnicianRepository(newTestClient(t, srv.URL, func(c *config.HelpdeskConfig) {
		c.SessionCookie = "abc123"
	}))
	_, err := repo.List(context.Background())
	require.NoError(t, err)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.NotEmpty(t, reqs[0].RequestID)
	assert.Equal(t, "abc123", reqs[0].Cookie)
}

func TestWireTimeFormats(t *testing.T) {
	var rec struct {
		A wireTime `json:"a"`
		B wireTime `json:"b"`
		C wireTime `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":"2024-03-01 10:20:30","b":"2024-03-01T10:20:30Z","c":null}`), &rec)
	require.NoError(t, err)
	want := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	assert.True(t, rec.A.Equal(want))
	assert.True(t, rec.B.Equal(want))
	assert.True(t, rec.C.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"a":"yesterday"}`), &rec))
}
