// -----------------------------------------------------------------------
// Watcher Service - Filesystem watch over the input folders with size
// stability checks and a scheduled full rescan
// -----------------------------------------------------------------------

package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

// Service implements WatcherService on fsnotify. New files are debounced
// and size-checked until the scanner finishes writing them, then handed to
// a single processing goroutine. A cron-scheduled rescan sweeps up files
// the watch missed and retries earlier failures.
type Service struct {
	config    *common.Config
	processor interfaces.Processor
	sheets    interfaces.SheetWriter
	logger    arbor.ILogger
	ff        string

	watcher *fsnotify.Watcher
	cron    *cron.Cron
	queue   chan string
	rescan  chan struct{}

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// Compile-time assertion
var _ interfaces.WatcherService = (*Service)(nil)

// NewService creates the watcher. ff overrides the configured default
// folder/FF identifier when non-empty.
func NewService(cfg *common.Config, processor interfaces.Processor, sheets interfaces.SheetWriter, ff string, logger arbor.ILogger) *Service {
	if ff == "" {
		ff = cfg.Sheets.DefaultFF
	}
	return &Service{
		config:    cfg,
		processor: processor,
		sheets:    sheets,
		logger:    logger,
		ff:        ff,
		queue:     make(chan string, 256),
		rescan:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Start watches the input directory tree. It blocks until ctx is
// cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	s.watcher = watcher

	if err := s.addWatchTree(s.config.Input.Dir); err != nil {
		watcher.Close()
		return err
	}

	s.cron = cron.New(cron.WithSeconds())
	if _, err := s.cron.AddFunc(s.config.Watcher.RescanSchedule, s.requestRescan); err != nil {
		watcher.Close()
		return fmt.Errorf("invalid rescan schedule %q: %w", s.config.Watcher.RescanSchedule, err)
	}
	s.cron.Start()

	s.logger.Info().
		Str("input_dir", s.config.Input.Dir).
		Str("extension", s.config.Input.Extension).
		Str("rescan_schedule", s.config.Watcher.RescanSchedule).
		Msg("Watching input folders")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.processLoop(ctx)
	}()

	// Initial sweep picks up files that arrived while the service was down
	s.requestRescan()

	err = s.eventLoop(ctx)

	s.cron.Stop()
	watcher.Close()
	close(s.queue)
	wg.Wait()

	return err
}

// Stop shuts the watcher down
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)
	return nil
}

// eventLoop reads fsnotify events and feeds the processing queue
func (s *Service) eventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("Filesystem watch error")
		}
	}
}

func (s *Service) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	// New tab folders join the watch set
	if info.IsDir() {
		if err := s.watcher.Add(event.Name); err != nil {
			s.logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new folder")
		} else {
			s.logger.Info().Str("path", event.Name).Msg("Watching new input folder")
		}
		return
	}

	if !strings.EqualFold(filepath.Ext(event.Name), s.config.Input.Extension) {
		return
	}

	select {
	case s.queue <- event.Name:
	default:
		s.logger.Warn().Str("path", event.Name).Msg("Processing queue full, file deferred to rescan")
	}
}

// processLoop is the single processing goroutine. Files are processed one
// at a time so extraction backends are never hit concurrently.
func (s *Service) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.rescan:
			s.rescanAll(ctx)
		case path, ok := <-s.queue:
			if !ok {
				return
			}
			s.handleFile(ctx, path)
		}
	}
}

func (s *Service) handleFile(ctx context.Context, path string) {
	if err := s.waitForStableSize(ctx, path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("File never stabilized, deferred to rescan")
		return
	}

	tab := s.tabForPath(path)
	if _, err := s.processor.ProcessFile(ctx, path, tab, s.ff); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Watched file failed, will retry on rescan")
	}
}

// waitForStableSize waits out the debounce window and then polls until two
// consecutive size reads match, so partially copied scans are not processed.
func (s *Service) waitForStableSize(ctx context.Context, path string) error {
	debounce := s.config.Watcher.DebounceDuration()
	poll := s.config.Watcher.StablePollDuration()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(debounce):
	}

	var lastSize int64 = -1
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("file disappeared: %w", err)
		}
		if info.Size() == lastSize && info.Size() > 0 {
			return nil
		}
		lastSize = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
	return fmt.Errorf("size still changing after stability deadline")
}

// tabForPath maps a watched file to its worksheet tab. Files in a tab
// subfolder use the matching tab title; files dropped at the input root
// use the configured default tab.
func (s *Service) tabForPath(path string) string {
	rel, err := filepath.Rel(s.config.Input.Dir, path)
	if err != nil {
		return s.config.Sheets.DefaultTab
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return s.config.Sheets.DefaultTab
	}
	folder := parts[0]

	// Folder names are sanitized tab titles; map back via the live tab list
	if tabs, err := s.sheets.ListTabs(context.Background()); err == nil {
		for _, tab := range tabs {
			if common.SanitizeFolderName(tab) == folder {
				return tab
			}
		}
	}
	return folder
}

// requestRescan coalesces rescan triggers so at most one is pending
func (s *Service) requestRescan() {
	select {
	case s.rescan <- struct{}{}:
	default:
	}
}

// rescanAll walks every tab folder and processes unledgered files, then
// sweeps files dropped at the input root against the default tab. Failed
// files from earlier runs are retried here.
func (s *Service) rescanAll(ctx context.Context) {
	entries, err := os.ReadDir(s.config.Input.Dir)
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", s.config.Input.Dir).Msg("Rescan failed to read input directory")
		return
	}

	s.logger.Info().Str("dir", s.config.Input.Dir).Msg("Rescanning input folders")

	for _, entry := range entries {
		switch {
		case entry.IsDir():
			tab := s.tabForPath(filepath.Join(s.config.Input.Dir, entry.Name(), "x"))
			if _, err := s.processor.ProcessTab(ctx, tab, s.ff); err != nil {
				s.logger.Warn().Err(err).Str("tab", tab).Msg("Rescan failed for tab folder")
			}
		case strings.EqualFold(filepath.Ext(entry.Name()), s.config.Input.Extension):
			path := filepath.Join(s.config.Input.Dir, entry.Name())
			if _, err := s.processor.ProcessFile(ctx, path, s.config.Sheets.DefaultTab, s.ff); err != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("Rescan failed for root file")
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// addWatchTree adds the input root and each existing subfolder to the watch
func (s *Service) addWatchTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk input directory: %w", err)
		}
		if !entry.IsDir() {
			return nil
		}
		if err := s.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
