package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ternarybob/folio/internal/app"
)

// runProcess handles 'folio process <tab> [ff]': one pass over the tab's
// input folder, then exit.
func runProcess(args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	var configFiles configPaths
	registerConfigFlag(fs, &configFiles)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: folio process [flags] <tab> [ff]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	config, logger, err := loadConfig(configFiles)
	if err != nil {
		return err
	}

	// Multi-word tab names are passed unquoted; the last argument is the
	// folder/FF identifier when more than one argument is given.
	tab := config.Sheets.DefaultTab
	ff := config.Sheets.DefaultFF
	args = fs.Args()
	switch {
	case len(args) == 1:
		tab = args[0]
	case len(args) > 1:
		tab = strings.Join(args[:len(args)-1], " ")
		ff = args[len(args)-1]
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return err
	}
	defer application.Close()

	// Ctrl+C stops the run between files
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	count, err := application.Processor.ProcessTab(ctx, tab, ff)
	if err != nil {
		logger.Error().Err(err).Str("tab", tab).Msg("Processing run failed")
		return err
	}

	logger.Info().
		Str("tab", tab).
		Str("ff", ff).
		Int("processed", count).
		Msg("Processing run complete")

	return nil
}
