package statusapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornerbit/hiksink/internal/manager"
)

type fakeSnapshotter struct {
	cameras []manager.CameraState
}

func (f fakeSnapshotter) Snapshot() []manager.CameraState { return f.cameras }

func TestHealthzAlwaysOK(t *testing.T) {
	s, err := New(Config{}, fakeSnapshotter{}, func() bool { return false }, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReflectsReadyFunc(t *testing.T) {
	ready := false
	s, err := New(Config{}, fakeSnapshotter{}, func() bool { return ready }, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusOpenWithoutAuthConfigured(t *testing.T) {
	s, err := New(Config{}, fakeSnapshotter{cameras: []manager.CameraState{{ID: "cam1", Name: "Cam 1"}}}, func() bool { return true }, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cam1")
}

func TestStatusRejectsMissingTokenWhenConfigured(t *testing.T) {
	s, err := New(Config{AuthToken: "secret123"}, fakeSnapshotter{}, func() bool { return true }, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusAcceptsCorrectToken(t *testing.T) {
	s, err := New(Config{AuthToken: "secret123"}, fakeSnapshotter{}, func() bool { return true }, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusRejectsWrongToken(t *testing.T) {
	s, err := New(Config{AuthToken: "secret123"}, fakeSnapshotter{}, func() bool { return true }, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer wrongtoken")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
