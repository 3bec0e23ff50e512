package providers

import (
	"github.com/samber/do/v2"

	"github.com/mediavaultapp/companion-server/internal/config"
	"github.com/mediavaultapp/companion-server/internal/logger"
	"github.com/mediavaultapp/companion-server/internal/registry"
	"github.com/mediavaultapp/companion-server/internal/store/sqlite"
)

// VaultStoreHandle wraps the vault database with Shutdownable.
type VaultStoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *VaultStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideVaultStore opens the vault database.
func ProvideVaultStore(i do.Injector) (*VaultStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return nil, err
	}
	return &VaultStoreHandle{Store: store}, nil
}

// ProvideRegistry loads the paired-device registry from disk.
func ProvideRegistry(i do.Injector) (*registry.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	reg := registry.New(cfg.DevicesPath(), log.Logger)
	reg.Load()
	return reg, nil
}
