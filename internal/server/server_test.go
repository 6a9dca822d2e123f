package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergewarden/mergewarden/internal/config"
	"github.com/mergewarden/mergewarden/internal/event"
	"github.com/mergewarden/mergewarden/internal/store"
)

type noopSubmitter struct{}

func (noopSubmitter) Submit(ev *event.MergeRequestEvent) (string, error) {
	return "run-test", nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	db := store.NewTestDB(t)
	srv := New(cfg, noopSubmitter{}, store.NewRunStore(db))
	srv.SetupRoutes()
	return srv
}

func TestServer_HealthRoute(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestServer_NoTrailingSlashRedirect(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health/", nil))

	// Redirects are disabled, unknown paths 404
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StopWithoutStart(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.Stop())
}
