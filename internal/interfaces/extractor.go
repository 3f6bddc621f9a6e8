package interfaces

import (
	"context"

	"github.com/ternarybob/folio/internal/models"
)

// MetadataExtractor defines a single link in the extraction chain.
// Implementations call one external service (or local OCR) and map its
// output onto the metadata row fields.
type MetadataExtractor interface {
	// Name identifies the extractor in logs and ledger records
	// (e.g. "docai", "textract", "local-ocr").
	Name() string

	// Enabled reports whether the extractor is configured and usable.
	// Disabled extractors are skipped by the chain without logging a failure.
	Enabled() bool

	// Extract processes the PDF at path and returns the metadata fields.
	// A non-nil error means the next extractor in the chain should be tried.
	Extract(ctx context.Context, path string) (*models.Metadata, error)
}

// ExtractionChain runs extractors in priority order until one succeeds.
type ExtractionChain interface {
	// Extract runs the chain for the PDF at path. The returned metadata is
	// never nil: if every extractor fails, a filename-derived default is
	// returned along with the name "default".
	Extract(ctx context.Context, path string) (*models.Metadata, string, error)
}
