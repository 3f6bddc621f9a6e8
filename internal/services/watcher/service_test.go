package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/models"
)

// stubProcessor records calls
type stubProcessor struct {
	files []string
	tabs  []string
}

func (s *stubProcessor) ProcessFile(ctx context.Context, path, tab, ff string) (*models.Document, error) {
	s.files = append(s.files, path)
	s.tabs = append(s.tabs, tab)
	return &models.Document{Status: models.DocumentStatusProcessed}, nil
}

func (s *stubProcessor) ProcessTab(ctx context.Context, tab, ff string) (int, error) {
	s.tabs = append(s.tabs, tab)
	return 0, nil
}

// stubTabs serves a fixed tab list
type stubTabs struct {
	titles []string
}

func (s *stubTabs) EnsureTab(ctx context.Context, tab string) error                  { return nil }
func (s *stubTabs) AppendRow(ctx context.Context, tab string, row []interface{}) error { return nil }
func (s *stubTabs) ListTabs(ctx context.Context) ([]string, error)                   { return s.titles, nil }
func (s *stubTabs) Close() error                                                     { return nil }

func newTestService(t *testing.T, titles []string) (*Service, *common.Config) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Input.Dir = t.TempDir()
	cfg.Watcher.Debounce = "10ms"
	cfg.Watcher.StablePoll = "10ms"

	service := NewService(cfg, &stubProcessor{}, &stubTabs{titles: titles}, "", common.GetLogger())
	return service, cfg
}

func TestTabForPath(t *testing.T) {
	service, cfg := newTestService(t, []string{"Gazettes", "Minutes 1987/88"})

	// Subfolder matching a sanitized tab title maps to the tab
	path := filepath.Join(cfg.Input.Dir, "Minutes_198788", "scan.pdf")
	assert.Equal(t, "Minutes 1987/88", service.tabForPath(path))

	// Exact folder names resolve directly
	path = filepath.Join(cfg.Input.Dir, "Gazettes", "scan.pdf")
	assert.Equal(t, "Gazettes", service.tabForPath(path))

	// Unknown folders fall through to the folder name
	path = filepath.Join(cfg.Input.Dir, "Loose", "scan.pdf")
	assert.Equal(t, "Loose", service.tabForPath(path))

	// Files at the input root use the default tab
	path = filepath.Join(cfg.Input.Dir, "scan.pdf")
	assert.Equal(t, cfg.Sheets.DefaultTab, service.tabForPath(path))
}

func TestWaitForStableSize(t *testing.T) {
	service, cfg := newTestService(t, nil)

	path := filepath.Join(cfg.Input.Dir, "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stable content"), 0o644))

	err := service.waitForStableSize(context.Background(), path)
	assert.NoError(t, err)
}

func TestWaitForStableSizeMissingFile(t *testing.T) {
	service, cfg := newTestService(t, nil)

	err := service.waitForStableSize(context.Background(), filepath.Join(cfg.Input.Dir, "gone.pdf"))
	assert.Error(t, err)
}

func TestWaitForStableSizeCancelled(t *testing.T) {
	service, cfg := newTestService(t, nil)
	cfg.Watcher.Debounce = "1h"

	path := filepath.Join(cfg.Input.Dir, "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := service.waitForStableSize(ctx, path)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRescanAllSweepsRootFiles(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Input.Dir = t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(cfg.Input.Dir, "Gazettes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Input.Dir, "Gazettes", "a.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Input.Dir, "loose.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Input.Dir, "LOOSE2.PDF"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Input.Dir, "notes.txt"), []byte("x"), 0o644))

	processor := &stubProcessor{}
	service := NewService(cfg, processor, &stubTabs{titles: []string{"Gazettes"}}, "", common.GetLogger())

	service.rescanAll(context.Background())

	// Tab folders go through ProcessTab; root-level PDFs are processed
	// individually against the default tab, other root files are ignored
	assert.Equal(t, []string{"Gazettes", cfg.Sheets.DefaultTab, cfg.Sheets.DefaultTab}, processor.tabs)
	assert.ElementsMatch(t, []string{
		filepath.Join(cfg.Input.Dir, "LOOSE2.PDF"),
		filepath.Join(cfg.Input.Dir, "loose.pdf"),
	}, processor.files)
}

func TestRequestRescanCoalesces(t *testing.T) {
	service, _ := newTestService(t, nil)

	service.requestRescan()
	service.requestRescan()
	service.requestRescan()

	assert.Len(t, service.rescan, 1, "pending rescans collapse into one")
}

func TestStopIsIdempotent(t *testing.T) {
	service, _ := newTestService(t, nil)

	require.NoError(t, service.Stop())
	require.NoError(t, service.Stop())
}
