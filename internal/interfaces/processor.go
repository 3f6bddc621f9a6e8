package interfaces

import (
	"context"

	"github.com/ternarybob/folio/internal/models"
)

// Processor orchestrates the per-file pipeline: ledger check, extraction,
// spreadsheet append, and record keeping.
type Processor interface {
	// ProcessFile runs the full pipeline for a single PDF. The returned
	// document records the outcome (processed, skipped, or failed).
	ProcessFile(ctx context.Context, path, tab, ff string) (*models.Document, error)

	// ProcessTab processes every matching file in the tab's input folder
	// and returns the number of files processed.
	ProcessTab(ctx context.Context, tab, ff string) (int, error)
}
