package interfaces

import (
	"context"
)

// PDFService provides local PDF inspection: structural validation, page
// counting, and embedded-text-layer extraction. It performs no OCR.
type PDFService interface {
	// Validate checks that the file at path is a structurally sound PDF.
	Validate(ctx context.Context, path string) error

	// PageCount returns the number of pages in the PDF.
	PageCount(ctx context.Context, path string) (int, error)

	// ExtractText returns the embedded text layer of the PDF, page texts
	// joined with newlines. Scanned documents typically return "".
	ExtractText(ctx context.Context, path string) (string, error)
}
