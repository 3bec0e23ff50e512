package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, env *testEnv, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func appliedCount(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		Applied int `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Applied
}

func TestPushFavoritesIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))
	env.seedVideo(t, "med-2", []byte("b"))

	body := `{"favorites":[
		{"mediaId":"med-1","isFavorite":true},
		{"mediaId":"med-2","isFavorite":true}
	]}`
	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/favorites", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, appliedCount(t, rec))

	// Replaying the same batch changes nothing.
	rec = doJSON(t, env, token, http.MethodPost, "/api/sync/favorites", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, appliedCount(t, rec))

	rec = doJSON(t, env, token, http.MethodGet, "/api/sync/favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Favorites []struct {
			MediaID string `json:"mediaId"`
		} `json:"favorites"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Favorites, 2)
}

func TestPushWatchesStrictDedup(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))

	body := `{"views":[
		{"mediaId":"med-1","viewedAt":"2026-08-01T12:00:00Z"},
		{"mediaId":"med-1","viewedAt":"2026-08-01T12:05:00Z"}
	]}`
	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/watches", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, appliedCount(t, rec))

	// Exact replay does not double-count views.
	rec = doJSON(t, env, token, http.MethodPost, "/api/sync/watches", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, appliedCount(t, rec))

	rec = doJSON(t, env, token, http.MethodGet, "/api/media/med-1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		ViewCount int `json:"viewCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.ViewCount)
}

func TestPushWatchesUnknownMedia(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")

	body := `{"views":[{"mediaId":"med-x","viewedAt":"2026-08-01T12:00:00Z"}]}`
	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/watches", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPushHistoryMatchesWatchesDedup(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))

	body := `{"entries":[{"mediaId":"med-1","viewedAt":"2026-08-01T12:00:00Z"}]}`
	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/history", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, appliedCount(t, rec))

	// An event already pushed via /sync/watches is not applied again.
	rec = doJSON(t, env, token, http.MethodPost, "/api/sync/watches",
		`{"views":[{"mediaId":"med-1","viewedAt":"2026-08-01T12:00:00Z"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, appliedCount(t, rec))
}

func TestPushRatingsLastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))

	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/ratings",
		`{"ratings":[{"mediaId":"med-1","rating":3}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env, token, http.MethodPost, "/api/sync/ratings",
		`{"ratings":[{"mediaId":"med-1","rating":5}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, appliedCount(t, rec))

	rec = doJSON(t, env, token, http.MethodGet, "/api/sync/ratings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Ratings []struct {
			MediaID string `json:"mediaId"`
			Rating  int    `json:"rating"`
		} `json:"ratings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Ratings, 1)
	assert.Equal(t, 5, list.Ratings[0].Rating)
}

func TestPushRatingsRejectsOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))

	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/ratings",
		`{"ratings":[{"mediaId":"med-1","rating":11}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistorySinceFilter(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))

	body := `{"views":[
		{"mediaId":"med-1","viewedAt":"2026-01-01T00:00:00Z"},
		{"mediaId":"med-1","viewedAt":"2026-08-01T00:00:00Z"}
	]}`
	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/watches", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Entries []struct {
			ViewedAt string `json:"viewedAt"`
		} `json:"entries"`
	}

	rec = doJSON(t, env, token, http.MethodGet, "/api/sync/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Entries, 2)

	rec = doJSON(t, env, token, http.MethodGet, "/api/sync/history?since=2026-06-01T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Entries, 1)

	// Unix milliseconds are accepted too.
	rec = doJSON(t, env, token, http.MethodGet, "/api/sync/history?since=1780272000000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env, token, http.MethodGet, "/api/sync/history?since=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncStateSnapshot(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))

	rec := doJSON(t, env, token, http.MethodPost, "/api/sync/favorites",
		`{"favorites":[{"mediaId":"med-1","isFavorite":true}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env, token, http.MethodGet, "/api/sync/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		Favorites int `json:"favorites"`
		History   int `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 1, state.Favorites)
	assert.Equal(t, 0, state.History)
}

func TestMarkersRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.pairDevice(t, "Phone")
	env.seedVideo(t, "med-1", []byte("a"))

	rec := doJSON(t, env, token, http.MethodPost, "/api/media/med-1/markers",
		`{"timeSec":42.5,"title":"Best part"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Markers are additive; an identical post creates a second marker.
	rec = doJSON(t, env, token, http.MethodPost, "/api/media/med-1/markers",
		`{"timeSec":42.5,"title":"Best part"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, env, token, http.MethodGet, "/api/media/med-1/markers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Markers []struct {
			ID      string  `json:"id"`
			TimeSec float64 `json:"timeSec"`
		} `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Markers, 2)
}
