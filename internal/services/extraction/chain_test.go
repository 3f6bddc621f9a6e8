package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/models"
)

// stubExtractor simulates a chain link
type stubExtractor struct {
	name    string
	enabled bool
	meta    *models.Metadata
	err     error
	calls   int
}

func (s *stubExtractor) Name() string  { return s.name }
func (s *stubExtractor) Enabled() bool { return s.enabled }

func (s *stubExtractor) Extract(ctx context.Context, path string) (*models.Metadata, error) {
	s.calls++
	return s.meta, s.err
}

func testExtractionConfig() common.ExtractionConfig {
	return common.ExtractionConfig{DescriptionLimit: 500, TitleMinLength: 5, TitleMaxLines: 10}
}

func TestChainFirstExtractorWins(t *testing.T) {
	primary := &stubExtractor{name: "docai", enabled: true, meta: &models.Metadata{Title: "Gazette"}}
	fallback := &stubExtractor{name: "textract", enabled: true, meta: &models.Metadata{Title: "other"}}
	chain := NewChain(testExtractionConfig(), common.GetLogger(), primary, fallback)

	meta, name, err := chain.Extract(context.Background(), "/input/Sheet1/scan.pdf")
	require.NoError(t, err)

	assert.Equal(t, "docai", name)
	assert.Equal(t, "Gazette", meta.Title)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback must not run when primary succeeds")
}

func TestChainFallsBackOnFailure(t *testing.T) {
	primary := &stubExtractor{name: "docai", enabled: true, err: errors.New("permission denied")}
	fallback := &stubExtractor{name: "textract", enabled: true, meta: &models.Metadata{Title: "From Fallback"}}
	chain := NewChain(testExtractionConfig(), common.GetLogger(), primary, fallback)

	meta, name, err := chain.Extract(context.Background(), "/input/Sheet1/scan.pdf")
	require.NoError(t, err)

	assert.Equal(t, "textract", name)
	assert.Equal(t, "From Fallback", meta.Title)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestChainSkipsDisabledExtractors(t *testing.T) {
	disabled := &stubExtractor{name: "docai", enabled: false, meta: &models.Metadata{Title: "never"}}
	active := &stubExtractor{name: "local-ocr", enabled: true, meta: &models.Metadata{Title: "Local Result"}}
	chain := NewChain(testExtractionConfig(), common.GetLogger(), disabled, active)

	meta, name, err := chain.Extract(context.Background(), "/input/scan.pdf")
	require.NoError(t, err)

	assert.Equal(t, "local-ocr", name)
	assert.Equal(t, "Local Result", meta.Title)
	assert.Equal(t, 0, disabled.calls)
}

func TestChainAllFailReturnsFilenameDefault(t *testing.T) {
	first := &stubExtractor{name: "docai", enabled: true, err: errors.New("boom")}
	second := &stubExtractor{name: "textract", enabled: true, err: errors.New("also boom")}
	chain := NewChain(testExtractionConfig(), common.GetLogger(), first, second)

	meta, name, err := chain.Extract(context.Background(), "/input/Sheet1/scan_0042.pdf")
	require.NoError(t, err)

	assert.Equal(t, DefaultExtractorName, name)
	assert.Equal(t, "scan_0042", meta.Title)
	assert.Equal(t, "", meta.Date)
	assert.Equal(t, "", meta.Description)
}

func TestChainNormalizesOutput(t *testing.T) {
	raw := &stubExtractor{name: "docai", enabled: true, meta: &models.Metadata{
		Title:       "  Fire   Brigade Gazette ",
		Date:        "12/3/87",
		Description: "line one\nline two",
	}}
	chain := NewChain(testExtractionConfig(), common.GetLogger(), raw)

	meta, _, err := chain.Extract(context.Background(), "/input/scan.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Fire Brigade Gazette", meta.Title)
	assert.Equal(t, "1987/03/12", meta.Date)
	assert.Equal(t, "line one line two", meta.Description)
}

func TestChainCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &stubExtractor{name: "docai", enabled: true, meta: &models.Metadata{}}
	chain := NewChain(testExtractionConfig(), common.GetLogger(), ex)

	_, _, err := chain.Extract(ctx, "/input/scan.pdf")
	assert.Error(t, err)
	assert.Equal(t, 0, ex.calls)
}
