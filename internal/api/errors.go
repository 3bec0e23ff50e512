package api

import (
	"net/http"

	domainerrors "github.com/mediavaultapp/companion-server/internal/errors"
	"github.com/mediavaultapp/companion-server/internal/http/response"
	"github.com/mediavaultapp/companion-server/internal/library"
)

// respondError maps an error to the wire contract. Domain errors carry their
// own status and message; collaborator sentinels map to 404; anything else is
// a generic 500 with the detail kept in the log.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		if domainErr.HTTPStatus() >= http.StatusInternalServerError {
			s.logger.Error("Request failed", "code", domainErr.Code, "error", err)
		}
		response.Error(w, domainErr.HTTPStatus(), domainErr.Message, s.logger)
		return
	}

	switch {
	case domainerrors.Is(err, library.ErrMediaNotFound):
		response.NotFound(w, "Media not found", s.logger)
	case domainerrors.Is(err, library.ErrPlaylistNotFound):
		response.NotFound(w, "Playlist not found", s.logger)
	case domainerrors.Is(err, library.ErrThumbNotFound):
		response.NotFound(w, "No thumbnail available", s.logger)
	default:
		s.logger.Error("Request failed", "error", err)
		response.InternalError(w, "Internal server error", s.logger)
	}
}

// notConfigured answers for a route whose collaborator was not injected.
func (s *Server) notConfigured(w http.ResponseWriter, what string) {
	s.respondError(w, domainerrors.NotConfigured(what+" is not configured"))
}
