// -----------------------------------------------------------------------
// Pipeline Processor - Per-file orchestration: ledger check, validation,
// extraction chain, spreadsheet append, record keeping
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// Processor implements the per-file pipeline
type Processor struct {
	config  *common.Config
	storage interfaces.StorageManager
	pdf     interfaces.PDFService
	chain   interfaces.ExtractionChain
	sheets  interfaces.SheetWriter
	logger  arbor.ILogger
}

// Compile-time assertion
var _ interfaces.Processor = (*Processor)(nil)

// NewProcessor creates the pipeline processor
func NewProcessor(cfg *common.Config, storage interfaces.StorageManager, pdf interfaces.PDFService, chain interfaces.ExtractionChain, sheets interfaces.SheetWriter, logger arbor.ILogger) *Processor {
	return &Processor{
		config:  cfg,
		storage: storage,
		pdf:     pdf,
		chain:   chain,
		sheets:  sheets,
		logger:  logger,
	}
}

// ProcessFile runs the full pipeline for one PDF. Already-processed files
// (matched by content hash) are skipped; failures are recorded in the
// ledger without marking the hash processed, so the next rescan retries.
func (p *Processor) ProcessFile(ctx context.Context, path, tab, ff string) (*models.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	hash, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	docs := p.storage.DocumentStorage()

	processed, err := docs.IsProcessed(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup failed for %s: %w", path, err)
	}
	if processed {
		p.logger.Info().
			Str("path", path).
			Str("hash", hash[:12]).
			Msg("File already processed, skipping")
		return docs.GetDocumentByHash(ctx, hash)
	}

	doc := &models.Document{
		ID:          common.NewDocumentID(),
		Path:        path,
		Filename:    filepath.Base(path),
		Tab:         tab,
		FF:          ff,
		SizeBytes:   info.Size(),
		ContentHash: hash,
		Status:      models.DocumentStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	// A failed record stays in the ledger for inspection but keeps its
	// hash unprocessed, so rescans pick the file up again.
	if existing, err := docs.GetDocumentByHash(ctx, hash); err == nil && existing != nil {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	}

	if err := p.pdf.Validate(ctx, path); err != nil {
		return p.recordFailure(ctx, doc, fmt.Errorf("invalid PDF: %w", err))
	}

	meta, extractor, err := p.chain.Extract(ctx, path)
	if err != nil {
		return p.recordFailure(ctx, doc, fmt.Errorf("extraction failed: %w", err))
	}

	if err := p.sheets.EnsureTab(ctx, tab); err != nil {
		return p.recordFailure(ctx, doc, err)
	}
	if err := p.sheets.AppendRow(ctx, tab, meta.Row(ff)); err != nil {
		return p.recordFailure(ctx, doc, err)
	}

	doc.Status = models.DocumentStatusProcessed
	doc.Extractor = extractor
	doc.Metadata = *meta
	doc.Error = ""
	doc.ProcessedAt = time.Now()
	doc.UpdatedAt = time.Now()

	if err := docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save ledger record for %s: %w", path, err)
	}

	p.logger.Info().
		Str("path", path).
		Str("tab", tab).
		Str("extractor", extractor).
		Str("title", meta.Title).
		Msg("File processed")

	return doc, nil
}

// ProcessTab walks the tab's input folder and processes every matching
// file. Per-file failures are logged and counted but do not stop the walk.
func (p *Processor) ProcessTab(ctx context.Context, tab, ff string) (int, error) {
	folder := filepath.Join(p.config.Input.Dir, common.SanitizeFolderName(tab))
	if _, err := os.Stat(folder); err != nil {
		return 0, fmt.Errorf("input folder %s not found: %w", folder, err)
	}

	var processed, failed int
	walkErr := filepath.WalkDir(folder, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != folder && !p.config.Input.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !p.matchesExtension(entry.Name()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := p.ProcessFile(ctx, path, tab, ff)
		if err != nil || (doc != nil && doc.Status == models.DocumentStatusFailed) {
			failed++
			p.logger.Warn().Err(err).Str("path", path).Msg("File processing failed")
			return nil
		}
		processed++
		return nil
	})
	if walkErr != nil {
		return processed, fmt.Errorf("failed to walk %s: %w", folder, walkErr)
	}

	p.logger.Info().
		Str("tab", tab).
		Int("processed", processed).
		Int("failed", failed).
		Msg("Tab processing complete")

	return processed, nil
}

// recordFailure saves a failed ledger record and returns the document with
// the original error. The content hash stays unmarked so rescans retry.
func (p *Processor) recordFailure(ctx context.Context, doc *models.Document, cause error) (*models.Document, error) {
	doc.Status = models.DocumentStatusFailed
	doc.Error = cause.Error()
	doc.UpdatedAt = time.Now()

	if saveErr := p.storage.DocumentStorage().SaveDocument(ctx, doc); saveErr != nil {
		p.logger.Warn().Err(saveErr).Str("path", doc.Path).Msg("Failed to save failure record")
	}

	p.logger.Error().
		Err(cause).
		Str("path", doc.Path).
		Msg("File processing failed")

	return doc, cause
}

func (p *Processor) matchesExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), p.config.Input.Extension)
}

// hashFile computes the SHA-256 content hash used for ledger deduplication
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
