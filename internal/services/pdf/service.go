// -----------------------------------------------------------------------
// PDF Service - Local PDF inspection (validation, page count, text layer)
// Uses pdfcpu for structure and dslipak/pdf for embedded text extraction
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"strings"

	dslipak "github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/interfaces"
)

// Service implements interfaces.PDFService
type Service struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// Validate checks that the file at path is a structurally sound PDF.
func (s *Service) Validate(ctx context.Context, path string) error {
	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("invalid PDF %s: %w", path, err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF.
func (s *Service) PageCount(ctx context.Context, path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// ExtractText returns the embedded text layer of the PDF. Pages that fail
// to decode are skipped with a warning; scanned documents with no text
// layer return an empty string.
func (s *Service) ExtractText(ctx context.Context, path string) (string, error) {
	reader, err := dslipak.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	var builder strings.Builder
	numPages := reader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("page", pageNum).
				Str("path", path).
				Msg("Failed to extract text from page, skipping")
			continue
		}

		if strings.TrimSpace(text) == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	result := builder.String()
	s.logger.Debug().
		Str("path", path).
		Int("pages", numPages).
		Int("text_len", len(result)).
		Msg("Extracted embedded PDF text layer")

	return result, nil
}
