package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleStream serves the media file with byte-range support.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.services.Library == nil || s.services.Streamer == nil {
		s.notConfigured(w, "Media streaming")
		return
	}

	item, err := s.services.Library.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.services.Streamer.ServeMedia(w, r, item); err != nil {
		s.respondError(w, err)
	}
}

// handleThumb serves the best available thumbnail for an item.
func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	if s.services.Library == nil || s.services.Thumbnails == nil {
		s.notConfigured(w, "Thumbnail serving")
		return
	}

	item, err := s.services.Library.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.services.Thumbnails.ServeThumb(r.Context(), w, r, item); err != nil {
		s.respondError(w, err)
	}
}
