package main

import (
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/choraleia/filebrowser/pkg/utils"
)

// bootstrap takes the instance lock, loads the config (creating a default
// file on first run) and initializes logging from it.
func bootstrap() (*config.AppConfig, *slog.Logger, *flock.Flock, error) {
	lock, err := config.AcquireInstanceLock()
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := config.EnsureDefaultConfig(); err != nil {
		utils.GetLogger().Warn("Failed to write default config", "error", err)
	}
	cfg, path, err := config.Load()
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	utils.InitLogger(cfg.LogLevel())
	logger := utils.GetLogger()
	logger.Info("Config loaded", "path", path, "endpoints", len(cfg.Endpoints))
	return cfg, logger, lock, nil
}
