package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestInvalidTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenAccepted(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryTokenAcceptedOnGET(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")

	req := httptest.NewRequest(http.MethodGet, "/api/library?token="+token, nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryTokenRejectedOnPOST(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")

	req := httptest.NewRequest(http.MethodPost, "/api/download?token="+token,
		strings.NewReader(`{"url":"https://example.com/file.mp4"}`))
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRevokedTokenFailsImmediately(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")

	devices := env.reg.List()
	require.Len(t, devices, 1)
	env.reg.Revoke(devices[0].ID)

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedRequestTouchesLastSeen(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")

	before := env.reg.List()[0].LastSeen

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	after := env.reg.List()[0].LastSeen
	assert.False(t, after.Before(before))
}

func TestPingIsPublic(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Test Vault"`)
}

func TestUnmatchedProtectedRouteWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nonsense", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	// Unmatched routes answer 404 with a JSON body.
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}
