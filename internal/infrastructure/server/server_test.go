package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TxGate/internal/infrastructure/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.RateLimit.Enabled = false
	return cfg
}

func TestNewWiresRoutes(t *testing.T) {
	srv, err := New(testConfig())
	require.NoError(t, err)
	defer srv.Close()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "txgate", body["service"])
}

func TestMetricsExposed(t *testing.T) {
	srv, err := New(testConfig())
	require.NoError(t, err)
	defer srv.Close()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "txgate_intercepts_total")
}

func TestUnknownStorageBackendRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = "carrier-pigeon"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestFileBackendCreatesDir(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = "file"
	cfg.Storage.Dir = t.TempDir()

	srv, err := New(cfg)
	require.NoError(t, err)
	srv.Close()
}
