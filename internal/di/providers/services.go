package providers

import (
	"github.com/samber/do/v2"

	"github.com/mediavaultapp/companion-server/internal/api"
	"github.com/mediavaultapp/companion-server/internal/config"
	"github.com/mediavaultapp/companion-server/internal/download"
	"github.com/mediavaultapp/companion-server/internal/logger"
	"github.com/mediavaultapp/companion-server/internal/media"
	"github.com/mediavaultapp/companion-server/internal/pairing"
	"github.com/mediavaultapp/companion-server/internal/registry"
)

// ProvidePairingManager provides the pairing session manager.
func ProvidePairingManager(i do.Injector) (*pairing.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	reg := do.MustInvoke[*registry.Registry](i)

	return pairing.NewManager(reg, pairing.Config{
		ServerName: cfg.Server.Name,
		Version:    api.ServerVersion,
		Port:       cfg.Server.Port,
		TTL:        cfg.Pairing.TTL,
	}, log.Logger), nil
}

// DownloadQueueHandle wraps the download queue with Shutdownable.
type DownloadQueueHandle struct {
	*download.Queue
}

// Shutdown implements do.Shutdownable.
func (h *DownloadQueueHandle) Shutdown() error {
	return h.Queue.Shutdown()
}

// ProvideDownloadQueue provides the download queue. No fetcher is wired; the
// desktop downloader drains the queue.
func ProvideDownloadQueue(i do.Injector) (*DownloadQueueHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &DownloadQueueHandle{Queue: download.NewQueue(nil, log.Logger)}, nil
}

// ProvideThumbnailGenerator provides the on-demand thumbnail generator.
func ProvideThumbnailGenerator(i do.Injector) (*media.Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return media.NewGenerator(cfg.ThumbCachePath(), log.Logger), nil
}
