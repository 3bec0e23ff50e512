package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/http/response"
)

// Sync push endpoints are idempotent per batch: favorites converge to set
// membership, watch events deduplicate on exact (mediaId, viewedAt), ratings
// are last-write-wins. Each response reports how many entries actually
// changed state so clients can detect replays.

// handleSyncState returns the coarse counters a client compares against its
// local snapshot.
func (s *Server) handleSyncState(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	state, err := s.services.State.SyncState(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, state, s.logger)
}

// handleListFavorites returns the full favorites set.
func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	favorites, err := s.services.State.ListFavorites(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if favorites == nil {
		favorites = []domain.FavoriteEntry{}
	}

	response.Success(w, map[string]any{"favorites": favorites}, s.logger)
}

type favoritePush struct {
	MediaID    string     `json:"mediaId" validate:"required"`
	IsFavorite bool       `json:"isFavorite"`
	Timestamp  *time.Time `json:"timestamp"`
}

type favoritesPushRequest struct {
	Favorites []favoritePush `json:"favorites" validate:"required,dive"`
}

// handlePushFavorites applies a batch of favorite toggles.
func (s *Server) handlePushFavorites(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var req favoritesPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	applied := 0
	for _, entry := range req.Favorites {
		at := time.Now().UTC()
		if entry.Timestamp != nil {
			at = entry.Timestamp.UTC()
		}
		changed, err := s.services.State.SetFavorite(r.Context(), entry.MediaID, entry.IsFavorite, at)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if changed {
			applied++
		}
	}

	response.Success(w, map[string]any{"applied": applied}, s.logger)
}

// handleListHistory returns watch events, optionally bounded by a "since"
// query parameter accepting RFC 3339 or unix milliseconds.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := parseSince(raw)
		if err != nil {
			response.BadRequest(w, "since must be RFC 3339 or unix milliseconds", s.logger)
			return
		}
		since = &t
	}

	entries, err := s.services.State.ListHistory(r.Context(), since)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.WatchEvent{}
	}

	response.Success(w, map[string]any{"entries": entries}, s.logger)
}

type watchPush struct {
	MediaID  string    `json:"mediaId" validate:"required"`
	ViewedAt time.Time `json:"viewedAt" validate:"required"`
}

type watchesPushRequest struct {
	Views []watchPush `json:"views" validate:"required,dive"`
}

// handlePushWatches applies a batch of watch events. Replayed events are
// dropped by the store's exact-duplicate rule.
func (s *Server) handlePushWatches(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var req watchesPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	applied := 0
	for _, entry := range req.Views {
		changed, err := s.services.State.RecordView(r.Context(), entry.MediaID, entry.ViewedAt.UTC())
		if err != nil {
			s.respondError(w, err)
			return
		}
		if changed {
			applied++
		}
	}

	response.Success(w, map[string]any{"applied": applied}, s.logger)
}

type historyPushRequest struct {
	Entries []watchPush `json:"entries" validate:"required,dive"`
}

// handlePushHistory applies a batch of history entries, with the same
// exact-duplicate rule as the watches push.
func (s *Server) handlePushHistory(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var req historyPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	applied := 0
	for _, entry := range req.Entries {
		changed, err := s.services.State.RecordView(r.Context(), entry.MediaID, entry.ViewedAt.UTC())
		if err != nil {
			s.respondError(w, err)
			return
		}
		if changed {
			applied++
		}
	}

	response.Success(w, map[string]any{"applied": applied}, s.logger)
}

// handleListRatings returns every rated item.
func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	ratings, err := s.services.State.ListRatings(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if ratings == nil {
		ratings = []domain.RatingEntry{}
	}

	response.Success(w, map[string]any{"ratings": ratings}, s.logger)
}

type ratingPush struct {
	MediaID   string     `json:"mediaId" validate:"required"`
	Rating    int        `json:"rating" validate:"min=0,max=5"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type ratingsPushRequest struct {
	Ratings []ratingPush `json:"ratings" validate:"required,dive"`
}

// handlePushRatings applies a batch of rating overwrites.
func (s *Server) handlePushRatings(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var req ratingsPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	applied := 0
	for _, entry := range req.Ratings {
		at := time.Now().UTC()
		if entry.UpdatedAt != nil {
			at = entry.UpdatedAt.UTC()
		}
		if err := s.services.State.SetRating(r.Context(), entry.MediaID, entry.Rating, at); err != nil {
			s.respondError(w, err)
			return
		}
		applied++
	}

	response.Success(w, map[string]any{"applied": applied}, s.logger)
}

// parseSince accepts RFC 3339 or unix milliseconds.
func parseSince(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
