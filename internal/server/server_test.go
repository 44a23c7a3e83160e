package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/veledger/internal/server/handler"
)

func newTestServer(apiKey string) *Server {
	return NewServer(Config{
		Port:   8787,
		APIKey: apiKey,
	}, Handlers{
		Health: handler.NewHealthHandler(),
	}, nil, slog.New(slog.DiscardHandler))
}

// TestHealthBypassesAuth checks liveness probes work without any credentials
// even when an API key is configured.
func TestHealthBypassesAuth(t *testing.T) {
	srv := newTestServer("sekrit")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestAPIRequiresKey checks every non-health route sits behind the API key.
func TestAPIRequiresKey(t *testing.T) {
	srv := newTestServer("sekrit")

	req := httptest.NewRequest(http.MethodGet, "/api/voting-power", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// With the key the request clears auth and reaches the router.
	req = httptest.NewRequest(http.MethodGet, "/api/no-such-route", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestEmptyKeyDisablesAuth checks the development default stays open.
func TestEmptyKeyDisablesAuth(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/api/no-such-route", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
