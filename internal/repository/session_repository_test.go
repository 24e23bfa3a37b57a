package repository

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

func TestSessionIdentityFromMe(t *testing.T) {
	fake, srv := newFakeHelpdesk(t)
	fake.handle("GET /api/session/me", http.StatusOK, map[string]any{
		"id": 7, "username": "ana", "email": "ana@example.com", "area_id": 2, "role": "TECNICO", "area_name": "Soporte",
	})

	identity, err := NewSessionRepository(newTestClient(t, srv.URL)).Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, identity.ID)
	assert.Equal(t, "Soporte", identity.AreaName)
	require.NotNil(t, identity.AreaID)
	assert.Equal(t, 2, *identity.AreaID)
}

func TestSessionIdentityFallsBackToBasic(t *testing.T) {
	fake, srv := newFakeHelpdesk(t)
	fake.handle("GET /api/session/basic", http.StatusOK, map[string]any{
		"user_id": 7, "username": "ana", "role": "TECNICO", "area_id": nil,
	})

	identity, err := NewSessionRepository(newTestClient(t, srv.URL)).Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, identity.ID)
	assert.Nil(t, identity.AreaID)

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/api/session/me", reqs[0].Path)
	assert.Equal(t, "/api/session/basic", reqs[1].Path)
}

func TestSessionLoginKeepsCookie(t *testing.T) {
	fake, srv := newFakeHelpdesk(t)
	fake.mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "signed", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "redirect": "/tecnico"})
	})
	fake.handle("GET /api/tecnicos", http.StatusOK, []map[string]any{{"id": 1, "username": "ana"}})

	client := newTestClient(t, srv.URL)
	require.NoError(t, NewSessionRepository(client).Login(context.Background(), "ana", "secret"))

	roster, err := NewTechnicianRepository(client).List(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 1)

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.JSONEq(t, `{"user":"ana","pass":"secret"}`, reqs[0].Body)
	assert.Equal(t, "signed", reqs[1].Cookie)
}

func TestSessionLoginRejected(t *testing.T) {
	fake, srv := newFakeHelpdesk(t)
	fake.handle("POST /login", http.StatusUnauthorized, map[string]any{"ok": false, "msg": "Credenciales incorrectas."})

	repo := NewSessionRepository(newTestClient(t, srv.URL))
	err := repo.Login(context.Background(), "ana", "wrong")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthenticated, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "Credenciales incorrectas.")

	assert.Equal(t, apperrors.CodeInvalid, apperrors.KindOf(repo.Login(context.Background(), "", "x")))
}
