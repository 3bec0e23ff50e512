// Package providers contains dependency injection providers for the
// companion server.
package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/mediavaultapp/companion-server/internal/config"
	"github.com/mediavaultapp/companion-server/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting MediaVault companion server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Vault.DataPath,
		"media_path", cfg.Vault.MediaPath,
	)

	return log, nil
}
