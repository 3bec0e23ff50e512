// Package main provides the entry point for the companion server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/mediavaultapp/companion-server/internal/di"
	"github.com/mediavaultapp/companion-server/internal/di/providers"
	"github.com/mediavaultapp/companion-server/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The DI container shuts services down in reverse dependency order.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The vault store uses a wrapper type, close it explicitly.
	if vault, err := do.Invoke[*providers.VaultStoreHandle](injector); err == nil {
		if err := vault.Shutdown(); err != nil {
			log.Error("Failed to close vault database", "error", err)
		}
	}

	log.Info("Goodbye")
}
