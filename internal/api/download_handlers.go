package api

import (
	"encoding/json"
	"net/http"

	"github.com/mediavaultapp/companion-server/internal/http/response"
)

type downloadRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// handleDownload queues a URL for the vault to fetch.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if s.services.Downloads == nil {
		s.notConfigured(w, "Download queue")
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	job, err := s.services.Downloads.Enqueue(r.Context(), req.URL)
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Created(w, job, s.logger)
}
