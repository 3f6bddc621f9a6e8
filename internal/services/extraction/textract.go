// -----------------------------------------------------------------------
// Textract Extractor - Fallback OCR via AWS Textract with LLM structuring
// -----------------------------------------------------------------------

package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// TextractExtractor implements MetadataExtractor using AWS Textract for OCR
// followed by LLM structuring of the recognized text. When no LLM is
// configured, heuristic field extraction is applied instead.
type TextractExtractor struct {
	config     *common.TextractConfig
	extraction common.ExtractionConfig
	structurer *Structurer
	logger     arbor.ILogger
	timeout    time.Duration
}

// Compile-time assertion
var _ interfaces.MetadataExtractor = (*TextractExtractor)(nil)

// NewTextractExtractor creates a Textract extractor. structurer may be nil.
func NewTextractExtractor(cfg *common.TextractConfig, extraction common.ExtractionConfig, structurer *Structurer, logger arbor.ILogger) (*TextractExtractor, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid textract timeout '%s': %w", cfg.Timeout, err)
	}

	return &TextractExtractor{
		config:     cfg,
		extraction: extraction,
		structurer: structurer,
		logger:     logger,
		timeout:    timeout,
	}, nil
}

// Name identifies the extractor in logs and ledger records
func (e *TextractExtractor) Name() string {
	return "textract"
}

// Enabled reports whether the extractor is configured
func (e *TextractExtractor) Enabled() bool {
	return e.config.Enabled
}

// Extract OCRs the PDF with Textract and structures the text into fields
func (e *TextractExtractor) Extract(ctx context.Context, path string) (*models.Metadata, error) {
	text, err := e.detectText(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("Textract recognized no text in %s", path)
	}

	if e.structurer != nil {
		meta, err := e.structurer.StructureText(ctx, text)
		if err == nil {
			return meta, nil
		}
		e.logger.Warn().Err(err).Msg("LLM structuring failed, falling back to heuristic fields")
	}

	return HeuristicMetadata(text, e.extraction), nil
}

// detectText runs Textract DetectDocumentText on the raw PDF bytes and
// joins the recognized LINE blocks with newlines.
func (e *TextractExtractor) detectText(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(timeoutCtx, awsconfig.WithRegion(e.config.Region))
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := textract.NewFromConfig(cfg)

	e.logger.Debug().
		Str("region", e.config.Region).
		Int("pdf_size", len(content)).
		Msg("Sending document to Textract")

	output, err := client.DetectDocumentText(timeoutCtx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: content},
	})
	if err != nil {
		return "", fmt.Errorf("Textract detection failed: %w", err)
	}

	var lines []string
	for _, block := range output.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}

	text := strings.Join(lines, "\n")
	e.logger.Info().
		Int("line_count", len(lines)).
		Int("text_len", len(text)).
		Msg("Textract OCR completed")

	return text, nil
}
