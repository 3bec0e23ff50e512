package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/http/response"
)

// deviceProjection omits the token; credentials never appear in listings.
type deviceProjection struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Platform domain.Platform `json:"platform"`
	PairedAt time.Time       `json:"pairedAt"`
	LastSeen time.Time       `json:"lastSeen"`
	Current  bool            `json:"current"`
}

// handleListDevices returns all paired devices, flagging the caller's own.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	callerID := deviceID(r.Context())

	devices := s.services.Registry.List()
	out := make([]deviceProjection, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceProjection{
			ID:       d.ID,
			Name:     d.Name,
			Platform: d.Platform,
			PairedAt: d.PairedAt.UTC(),
			LastSeen: d.LastSeen.UTC(),
			Current:  d.ID == callerID,
		})
	}

	response.Success(w, map[string]any{"devices": out}, s.logger)
}

// handleRevokeDevice unpairs a device. A device may revoke itself; its token
// stops working immediately.
func (s *Server) handleRevokeDevice(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	if !s.services.Registry.Revoke(targetID) {
		response.NotFound(w, "Device not found", s.logger)
		return
	}

	s.logger.Info("Device revoked", "device_id", targetID, "by", deviceID(r.Context()))
	response.NoContent(w)
}
