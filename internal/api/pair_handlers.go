package api

import (
	"encoding/json"
	"net/http"

	"github.com/mediavaultapp/companion-server/internal/domain"
	domainerrors "github.com/mediavaultapp/companion-server/internal/errors"
	"github.com/mediavaultapp/companion-server/internal/http/response"
	"github.com/mediavaultapp/companion-server/internal/pairing"
)

type pairRequest struct {
	Code       string `json:"code" validate:"required,len=6,numeric"`
	DeviceName string `json:"deviceName" validate:"required,max=100"`
	Platform   string `json:"platform" validate:"required,oneof=ios android"`
}

// handlePair redeems a pairing code for a device identity and token.
func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, err)
		return
	}

	device, err := s.services.Pairing.Consume(req.Code, req.DeviceName, domain.Platform(req.Platform))
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Created(w, map[string]any{
		"success":  true,
		"deviceId": device.ID,
		"name":     device.Name,
		"platform": device.Platform,
		"token":    device.Token,
		"pairedAt": device.PairedAt,
	}, s.logger)
}

// handlePairStatus reports whether a code is still redeemable. Side effect
// free, so the desktop UI can poll it.
func (s *Server) handlePairStatus(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		response.BadRequest(w, "code query parameter is required", s.logger)
		return
	}

	response.Success(w, s.services.Pairing.Status(code), s.logger)
}

// handlePairQR renders the discovery payload of an active code as a PNG for
// the desktop UI to display.
func (s *Server) handlePairQR(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		response.BadRequest(w, "code query parameter is required", s.logger)
		return
	}

	payload, err := s.services.Pairing.Discovery(code)
	if err != nil {
		s.respondError(w, err)
		return
	}

	png, err := pairing.QRCode(payload)
	if err != nil {
		s.respondError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to render QR code"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
