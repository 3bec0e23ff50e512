// Package di provides dependency injection configuration for the companion
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/mediavaultapp/companion-server/internal/config"
	"github.com/mediavaultapp/companion-server/internal/di/providers"
	"github.com/mediavaultapp/companion-server/internal/logger"
	"github.com/mediavaultapp/companion-server/internal/pairing"
	"github.com/mediavaultapp/companion-server/internal/registry"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideVaultStore)
	do.Provide(injector, providers.ProvideRegistry)

	// Domain services
	do.Provide(injector, providers.ProvidePairingManager)
	do.Provide(injector, providers.ProvideDownloadQueue)
	do.Provide(injector, providers.ProvideThumbnailGenerator)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. Invoking the server and mDNS providers pulls in everything
// else lazily.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.VaultStoreHandle](injector)
	_ = do.MustInvoke[*registry.Registry](injector)
	_ = do.MustInvoke[*pairing.Manager](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	providers.AnnouncePairingCodeIfUnpaired(injector)

	return nil
}
