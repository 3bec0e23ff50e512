package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediavaultapp/companion-server/internal/domain"
	domainerrors "github.com/mediavaultapp/companion-server/internal/errors"
	"github.com/mediavaultapp/companion-server/internal/http/response"
	"github.com/mediavaultapp/companion-server/internal/id"
)

type rateRequest struct {
	Rating int `json:"rating" validate:"min=0,max=5"`
}

// handleRate overwrites an item's rating.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	mediaID := chi.URLParam(r, "id")
	if err := s.services.State.SetRating(r.Context(), mediaID, req.Rating, time.Now().UTC()); err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, map[string]any{"mediaId": mediaID, "rating": req.Rating}, s.logger)
}

type viewRequest struct {
	ViewedAt *time.Time `json:"viewedAt"`
}

// handleView records a watch event. Omitting viewedAt means "now".
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var req viewRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid JSON body", s.logger)
			return
		}
	}

	viewedAt := time.Now().UTC()
	if req.ViewedAt != nil {
		viewedAt = req.ViewedAt.UTC()
	}

	mediaID := chi.URLParam(r, "id")
	applied, err := s.services.State.RecordView(r.Context(), mediaID, viewedAt)
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, map[string]any{"mediaId": mediaID, "applied": applied}, s.logger)
}

// handleStats returns the aggregate state of one item.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	stats, err := s.services.State.MediaStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, stats, s.logger)
}

type markerRequest struct {
	TimeSec float64 `json:"timeSec" validate:"min=0"`
	Title   string  `json:"title" validate:"max=200"`
}

// handleAddMarker stores a bookmark inside an item.
func (s *Server) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	var req markerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	markerID, err := id.Generate("mrk")
	if err != nil {
		s.respondError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate marker id"))
		return
	}

	marker := &domain.Marker{
		ID:        markerID,
		MediaID:   chi.URLParam(r, "id"),
		TimeSec:   req.TimeSec,
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.services.State.AddMarker(r.Context(), marker); err != nil {
		s.respondError(w, err)
		return
	}

	response.Created(w, marker, s.logger)
}

// handleListMarkers returns an item's markers ordered by position.
func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	if s.services.State == nil {
		s.notConfigured(w, "State store")
		return
	}

	markers, err := s.services.State.ListMarkers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if markers == nil {
		markers = []domain.Marker{}
	}

	response.Success(w, map[string]any{"markers": markers}, s.logger)
}
