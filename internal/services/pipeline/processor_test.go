package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/storage/badger"
)

// stubPDF validates everything unless told otherwise
type stubPDF struct {
	validateErr error
}

func (s *stubPDF) Validate(ctx context.Context, path string) error { return s.validateErr }
func (s *stubPDF) PageCount(ctx context.Context, path string) (int, error) {
	return 1, nil
}
func (s *stubPDF) ExtractText(ctx context.Context, path string) (string, error) {
	return "", nil
}

// stubChain returns fixed metadata
type stubChain struct {
	meta  *models.Metadata
	name  string
	err   error
	calls int
}

func (s *stubChain) Extract(ctx context.Context, path string) (*models.Metadata, string, error) {
	s.calls++
	return s.meta, s.name, s.err
}

// stubSheets records appended rows in memory
type stubSheets struct {
	tabs      map[string][][]interface{}
	appendErr error
}

func newStubSheets() *stubSheets {
	return &stubSheets{tabs: make(map[string][][]interface{})}
}

func (s *stubSheets) EnsureTab(ctx context.Context, tab string) error {
	if _, ok := s.tabs[tab]; !ok {
		s.tabs[tab] = nil
	}
	return nil
}

func (s *stubSheets) AppendRow(ctx context.Context, tab string, row []interface{}) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.tabs[tab] = append(s.tabs[tab], row)
	return nil
}

func (s *stubSheets) ListTabs(ctx context.Context) ([]string, error) {
	titles := make([]string, 0, len(s.tabs))
	for tab := range s.tabs {
		titles = append(titles, tab)
	}
	return titles, nil
}

func (s *stubSheets) Close() error { return nil }

func newTestProcessor(t *testing.T, chain interfaces.ExtractionChain, sheets interfaces.SheetWriter, pdf interfaces.PDFService) (*Processor, *common.Config) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Input.Dir = t.TempDir()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "data")

	storage, err := badger.NewManager(common.GetLogger(), &cfg.Storage.Badger)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return NewProcessor(cfg, storage, pdf, chain, sheets, common.GetLogger()), cfg
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessFileAppendsRow(t *testing.T) {
	chain := &stubChain{
		meta: &models.Metadata{Title: "Fire Brigade Gazette", Date: "1987/03/12", Volume: "12", Issue: "3", Description: "Quarterly."},
		name: "docai",
	}
	sheets := newStubSheets()
	processor, cfg := newTestProcessor(t, chain, sheets, &stubPDF{})

	path := writeTestFile(t, cfg.Input.Dir, "scan.pdf", "%PDF-1.4 test")

	doc, err := processor.ProcessFile(context.Background(), path, "Gazettes", "FF1")
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusProcessed, doc.Status)
	assert.Equal(t, "docai", doc.Extractor)
	assert.Equal(t, "Fire Brigade Gazette", doc.Metadata.Title)
	assert.False(t, doc.ProcessedAt.IsZero())

	require.Len(t, sheets.tabs["Gazettes"], 1)
	row := sheets.tabs["Gazettes"][0]
	require.Len(t, row, 8)
	assert.Equal(t, "FF1", row[0])
	assert.Equal(t, "Fire Brigade Gazette", row[1])
	assert.Equal(t, models.RowSourceLabel, row[7])
}

func TestProcessFileSkipsAlreadyProcessed(t *testing.T) {
	chain := &stubChain{meta: &models.Metadata{Title: "x"}, name: "docai"}
	sheets := newStubSheets()
	processor, cfg := newTestProcessor(t, chain, sheets, &stubPDF{})

	path := writeTestFile(t, cfg.Input.Dir, "scan.pdf", "%PDF-1.4 test")
	ctx := context.Background()

	first, err := processor.ProcessFile(ctx, path, "Gazettes", "FF1")
	require.NoError(t, err)

	second, err := processor.ProcessFile(ctx, path, "Gazettes", "FF1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, chain.calls, "chain must not run for a processed hash")
	assert.Len(t, sheets.tabs["Gazettes"], 1, "no duplicate row for a processed hash")
}

func TestProcessFileRecordsFailureAndRetries(t *testing.T) {
	chain := &stubChain{meta: &models.Metadata{Title: "x"}, name: "docai"}
	sheets := newStubSheets()
	sheets.appendErr = errors.New("quota exceeded")
	processor, cfg := newTestProcessor(t, chain, sheets, &stubPDF{})

	path := writeTestFile(t, cfg.Input.Dir, "scan.pdf", "%PDF-1.4 test")
	ctx := context.Background()

	doc, err := processor.ProcessFile(ctx, path, "Gazettes", "FF1")
	require.Error(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, models.DocumentStatusFailed, doc.Status)
	assert.Contains(t, doc.Error, "quota exceeded")

	// The failed hash stays unprocessed, so the next attempt runs the
	// chain again and succeeds once the sheet append recovers.
	sheets.appendErr = nil
	retried, err := processor.ProcessFile(ctx, path, "Gazettes", "FF1")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusProcessed, retried.Status)
	assert.Equal(t, doc.ID, retried.ID, "retry updates the existing record")
	assert.Equal(t, 2, chain.calls)
}

func TestProcessFileInvalidPDF(t *testing.T) {
	chain := &stubChain{meta: &models.Metadata{}, name: "docai"}
	processor, cfg := newTestProcessor(t, chain, newStubSheets(), &stubPDF{validateErr: errors.New("not a PDF")})

	path := writeTestFile(t, cfg.Input.Dir, "broken.pdf", "not a pdf")

	doc, err := processor.ProcessFile(context.Background(), path, "Gazettes", "FF1")
	require.Error(t, err)
	assert.Equal(t, models.DocumentStatusFailed, doc.Status)
	assert.Equal(t, 0, chain.calls, "extraction must not run on invalid files")
}

func TestProcessTab(t *testing.T) {
	chain := &stubChain{meta: &models.Metadata{Title: "x"}, name: "docai"}
	sheets := newStubSheets()
	processor, cfg := newTestProcessor(t, chain, sheets, &stubPDF{})

	folder := filepath.Join(cfg.Input.Dir, "Gazettes")
	writeTestFile(t, folder, "a.pdf", "%PDF-1.4 a")
	writeTestFile(t, folder, "b.PDF", "%PDF-1.4 b")
	writeTestFile(t, folder, "notes.txt", "ignored")

	count, err := processor.ProcessTab(context.Background(), "Gazettes", "FF1")
	require.NoError(t, err)

	assert.Equal(t, 2, count, "extension match is case-insensitive, other files ignored")
	assert.Len(t, sheets.tabs["Gazettes"], 2)
}

func TestProcessTabSanitizesFolderName(t *testing.T) {
	chain := &stubChain{meta: &models.Metadata{Title: "x"}, name: "docai"}
	sheets := newStubSheets()
	processor, cfg := newTestProcessor(t, chain, sheets, &stubPDF{})

	// Tab "Minutes 1987/88" maps to folder "Minutes_198788"
	folder := filepath.Join(cfg.Input.Dir, common.SanitizeFolderName("Minutes 1987/88"))
	writeTestFile(t, folder, "a.pdf", "%PDF-1.4 a")

	count, err := processor.ProcessTab(context.Background(), "Minutes 1987/88", "FF2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessTabMissingFolder(t *testing.T) {
	chain := &stubChain{meta: &models.Metadata{}, name: "docai"}
	processor, _ := newTestProcessor(t, chain, newStubSheets(), &stubPDF{})

	_, err := processor.ProcessTab(context.Background(), "Nowhere", "FF1")
	assert.Error(t, err)
}
