package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/mediavaultapp/companion-server/internal/api"
	"github.com/mediavaultapp/companion-server/internal/config"
	"github.com/mediavaultapp/companion-server/internal/logger"
	"github.com/mediavaultapp/companion-server/internal/mdns"
	"github.com/mediavaultapp/companion-server/internal/media"
	"github.com/mediavaultapp/companion-server/internal/pairing"
	"github.com/mediavaultapp/companion-server/internal/registry"
	"github.com/mediavaultapp/companion-server/internal/validation"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	reg := do.MustInvoke[*registry.Registry](i)
	pairingManager := do.MustInvoke[*pairing.Manager](i)
	vault := do.MustInvoke[*VaultStoreHandle](i)
	downloads := do.MustInvoke[*DownloadQueueHandle](i)
	generator := do.MustInvoke[*media.Generator](i)

	streamer := media.NewStreamer(log.Logger)
	thumbnails := media.NewThumbnails(streamer, generator, log.Logger)

	handler := api.NewServer(api.Services{
		ServerName: cfg.Server.Name,
		Registry:   reg,
		Pairing:    pairingManager,
		Library:    vault.Store,
		State:      vault.Store,
		Playlists:  vault.Store,
		Downloads:  downloads.Queue,
		Streamer:   streamer,
		Thumbnails: thumbnails,
	}, validation.New(), log.Logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService provides the mDNS advertisement service.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{Service: nil, started: false}, nil
	}

	svc := mdns.NewService(log.Logger)
	if err := svc.Start(cfg.Server.Name, api.ServerVersion, cfg.Server.Port); err != nil {
		// Non-fatal: the server works without mDNS (containers, odd networks).
		log.Warn("mDNS advertisement unavailable", "error", err)
		return &MDNSServiceHandle{Service: svc, started: false}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}

// AnnouncePairingCodeIfUnpaired creates and logs a pairing code when no
// device has paired yet, so a fresh install is immediately joinable.
func AnnouncePairingCodeIfUnpaired(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	reg := do.MustInvoke[*registry.Registry](i)
	pairingManager := do.MustInvoke[*pairing.Manager](i)

	if reg.Len() > 0 {
		return
	}

	session, payload, err := pairingManager.Create()
	if err != nil {
		log.Warn("Failed to create initial pairing code", "error", err)
		return
	}

	log.Info("No devices paired yet, pair with this code",
		"code", session.Code,
		"expires_at", session.ExpiresAt,
		"addresses", payload.Addresses,
	)
}
