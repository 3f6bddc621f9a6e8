package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/folio/internal/app"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/server"
	"github.com/ternarybob/folio/internal/services/watcher"
)

// runWatch handles 'folio watch': watch the input folders until interrupted,
// optionally serving status endpoints.
func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var configFiles configPaths
	registerConfigFlag(fs, &configFiles)
	tab := fs.String("tab", "", "Default worksheet tab for files dropped at the input root (overrides config)")
	ff := fs.String("ff", "", "Folder/FF identifier for appended rows (overrides config)")
	port := fs.Int("port", 0, "Status server port (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config, logger, err := loadConfig(configFiles)
	if err != nil {
		return err
	}
	if *port != 0 {
		config.Server.Port = *port
	}
	if *tab != "" {
		config.Sheets.DefaultTab = *tab
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchService := watcher.NewService(config, application.Processor, application.SheetWriter, *ff, logger)

	var statusServer *server.Server
	if config.Server.Enabled {
		statusServer = server.New(config, application.StorageManager, logger)
		common.SafeGo(logger, "status-server", func() {
			if err := statusServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Status server failed")
			}
		})
		logger.Info().
			Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
			Msg("Status endpoints available")
	}

	logger.Info().
		Str("input_dir", config.Input.Dir).
		Msg("Watching for new documents - Press Ctrl+C to stop")

	watchErr := watchService.Start(ctx)
	if watchErr != nil && watchErr != context.Canceled {
		logger.Error().Err(watchErr).Msg("Watcher stopped with error")
	}

	// Graceful shutdown
	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown failed")
		}
	}

	logger.Info().Msg("Watch mode stopped")

	if watchErr != nil && watchErr != context.Canceled {
		return watchErr
	}
	return nil
}
