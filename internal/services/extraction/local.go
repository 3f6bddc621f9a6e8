// -----------------------------------------------------------------------
// Local OCR Extractor - Last-resort extraction with MuPDF rasterization
// and Tesseract OCR, no network dependency
// -----------------------------------------------------------------------

package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// ocrLine is a recognized text line with its Tesseract confidence
type ocrLine struct {
	Text       string
	Confidence float64
}

// LocalExtractor implements MetadataExtractor with local tooling only:
// go-fitz page rendering and Tesseract OCR. When the PDF carries an
// embedded text layer, rasterization is skipped entirely.
type LocalExtractor struct {
	config     *common.OCRConfig
	extraction common.ExtractionConfig
	pdfService interfaces.PDFService
	structurer *Structurer
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.MetadataExtractor = (*LocalExtractor)(nil)

// NewLocalExtractor creates a local OCR extractor. structurer may be nil;
// heuristic field extraction is then used on the OCR text.
func NewLocalExtractor(cfg *common.OCRConfig, extraction common.ExtractionConfig, pdfService interfaces.PDFService, structurer *Structurer, logger arbor.ILogger) *LocalExtractor {
	return &LocalExtractor{
		config:     cfg,
		extraction: extraction,
		pdfService: pdfService,
		structurer: structurer,
		logger:     logger,
	}
}

// Name identifies the extractor in logs and ledger records
func (e *LocalExtractor) Name() string {
	return "local-ocr"
}

// Enabled reports whether local OCR is configured
func (e *LocalExtractor) Enabled() bool {
	return e.config.Enabled
}

// Extract recognizes the document text locally and maps it to metadata.
// The embedded text layer is preferred; scanned documents fall back to
// page rendering plus Tesseract.
func (e *LocalExtractor) Extract(ctx context.Context, path string) (*models.Metadata, error) {
	var (
		text       string
		title      string
		confidence float64
	)

	// Fast path: born-digital PDFs carry a text layer and need no OCR
	if layerText, err := e.pdfService.ExtractText(ctx, path); err == nil && strings.TrimSpace(layerText) != "" {
		text = layerText
		confidence = 100
		e.logger.Debug().Str("path", path).Msg("Using embedded text layer, skipping OCR")
	} else {
		ocrText, firstPageLines, avgConf, err := e.recognize(ctx, path)
		if err != nil {
			return nil, err
		}
		text = ocrText
		confidence = avgConf
		title = e.titleFromFirstPage(firstPageLines)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("local OCR recognized no text in %s", path)
	}

	meta, err := e.buildMetadata(ctx, text)
	if err != nil {
		return nil, err
	}

	// A confident first-page title beats the heuristic first line
	if title != "" {
		meta.Title = title
	}
	meta.Confidence = confidence

	return meta, nil
}

// buildMetadata structures text via LLM when available, heuristics otherwise
func (e *LocalExtractor) buildMetadata(ctx context.Context, text string) (*models.Metadata, error) {
	if e.structurer != nil {
		meta, err := e.structurer.StructureText(ctx, text)
		if err == nil {
			return meta, nil
		}
		e.logger.Warn().Err(err).Msg("LLM structuring failed, falling back to heuristic fields")
	}
	return HeuristicMetadata(text, e.extraction), nil
}

// recognize renders each page and runs Tesseract on it. It returns the full
// document text, the recognized lines of the first page, and the average
// line confidence across the document.
func (e *LocalExtractor) recognize(ctx context.Context, path string) (string, []ocrLine, float64, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", nil, 0, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.config.Language); err != nil {
		return "", nil, 0, fmt.Errorf("failed to set OCR language %q: %w", e.config.Language, err)
	}

	var (
		builder        strings.Builder
		firstPageLines []ocrLine
		confTotal      float64
		confCount      int
	)

	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", nil, 0, err
		}

		img, err := doc.ImageDPI(pageNum, float64(e.config.DPI))
		if err != nil {
			e.logger.Warn().Err(err).Int("page", pageNum+1).Msg("Failed to render page, skipping")
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			e.logger.Warn().Err(err).Int("page", pageNum+1).Msg("Failed to encode page image, skipping")
			continue
		}

		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			e.logger.Warn().Err(err).Int("page", pageNum+1).Msg("Failed to load page into Tesseract, skipping")
			continue
		}

		boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
		if err != nil {
			e.logger.Warn().Err(err).Int("page", pageNum+1).Msg("OCR failed for page, skipping")
			continue
		}

		for _, box := range boxes {
			line := strings.TrimSpace(box.Word)
			if line == "" {
				continue
			}
			if pageNum == 0 {
				firstPageLines = append(firstPageLines, ocrLine{Text: line, Confidence: box.Confidence})
			}
			builder.WriteString(line)
			builder.WriteString("\n")
			confTotal += box.Confidence
			confCount++
		}
	}

	avgConf := 0.0
	if confCount > 0 {
		avgConf = confTotal / float64(confCount)
	}

	e.logger.Info().
		Int("pages", doc.NumPage()).
		Int("line_count", confCount).
		Float64("avg_confidence", avgConf).
		Msg("Local OCR completed")

	return builder.String(), firstPageLines, avgConf, nil
}

// titleFromFirstPage picks the first confident, long-enough line of the
// first page as the document title.
func (e *LocalExtractor) titleFromFirstPage(lines []ocrLine) string {
	scanned := 0
	for _, line := range lines {
		if scanned >= e.extraction.TitleMaxLines {
			break
		}
		scanned++

		if line.Confidence < e.config.MinConfidence {
			continue
		}
		candidate := NormalizeTitle(line.Text)
		if utf8.RuneCountInString(candidate) < e.extraction.TitleMinLength {
			continue
		}
		return candidate
	}
	return ""
}
