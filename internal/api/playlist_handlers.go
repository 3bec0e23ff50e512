package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/http/response"
)

// handleListPlaylists returns every playlist with its member ids.
func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	if s.services.Playlists == nil {
		s.notConfigured(w, "Playlist store")
		return
	}

	playlists, err := s.services.Playlists.ListPlaylists(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if playlists == nil {
		playlists = []domain.Playlist{}
	}

	response.Success(w, map[string]any{"playlists": playlists}, s.logger)
}

// handleGetPlaylist returns one playlist.
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	if s.services.Playlists == nil {
		s.notConfigured(w, "Playlist store")
		return
	}

	playlist, err := s.services.Playlists.GetPlaylist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, playlist, s.logger)
}

type addPlaylistItemsRequest struct {
	MediaIDs []string `json:"mediaIds" validate:"required,min=1"`
}

// handleAddPlaylistItems appends items to a playlist, skipping duplicates.
func (s *Server) handleAddPlaylistItems(w http.ResponseWriter, r *http.Request) {
	if s.services.Playlists == nil {
		s.notConfigured(w, "Playlist store")
		return
	}

	var req addPlaylistItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	added, err := s.services.Playlists.AddPlaylistItems(r.Context(), chi.URLParam(r, "id"), req.MediaIDs)
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, map[string]any{"added": added}, s.logger)
}
