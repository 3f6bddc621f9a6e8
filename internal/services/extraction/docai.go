// -----------------------------------------------------------------------
// Document AI Extractor - Primary metadata extraction via the hosted
// Google Document AI processor
// -----------------------------------------------------------------------

package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/ternarybob/arbor"
	"google.golang.org/api/option"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// DocAIExtractor implements MetadataExtractor against a Google Document AI
// processor. It is the first link in the chain.
type DocAIExtractor struct {
	config     *common.DocAIConfig
	extraction common.ExtractionConfig
	logger     arbor.ILogger
	timeout    time.Duration
}

// Compile-time assertion
var _ interfaces.MetadataExtractor = (*DocAIExtractor)(nil)

// NewDocAIExtractor creates a Document AI extractor
func NewDocAIExtractor(cfg *common.DocAIConfig, extraction common.ExtractionConfig, logger arbor.ILogger) (*DocAIExtractor, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid docai timeout '%s': %w", cfg.Timeout, err)
	}

	return &DocAIExtractor{
		config:     cfg,
		extraction: extraction,
		logger:     logger,
		timeout:    timeout,
	}, nil
}

// Name identifies the extractor in logs and ledger records
func (e *DocAIExtractor) Name() string {
	return "docai"
}

// Enabled reports whether the processor is configured
func (e *DocAIExtractor) Enabled() bool {
	return e.config.Enabled && e.config.ProjectID != "" && e.config.ProcessorID != ""
}

// Extract sends the raw PDF to the Document AI processor and maps the
// result onto the metadata fields. Entities take precedence; text-derived
// fallbacks fill whatever the processor left blank.
func (e *DocAIExtractor) Extract(ctx context.Context, path string) (*models.Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	client, err := documentai.NewDocumentProcessorClient(timeoutCtx, option.WithEndpoint(e.config.APIEndpoint()))
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	e.logger.Debug().
		Str("processor", e.config.ProcessorName()).
		Int("pdf_size", len(content)).
		Msg("Sending document to Document AI")

	resp, err := client.ProcessDocument(timeoutCtx, &documentaipb.ProcessRequest{
		Name: e.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: "application/pdf",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Document AI processing failed: %w", err)
	}

	doc := resp.GetDocument()
	meta := e.mapDocument(doc)

	e.logger.Info().
		Str("title", meta.Title).
		Str("date", meta.Date).
		Msg("Document AI extraction succeeded")

	return meta, nil
}

// mapDocument maps a Document AI response onto the metadata row fields
func (e *DocAIExtractor) mapDocument(doc *documentaipb.Document) *models.Metadata {
	meta := &models.Metadata{}
	text := doc.GetText()

	for _, entity := range doc.GetEntities() {
		value := entityText(entity)
		if value == "" {
			continue
		}

		switch strings.ToLower(entity.GetType()) {
		case "title", "document_title":
			if meta.Title == "" {
				meta.Title = value
			}
		case "date", "document_date", "creation_date", "publication_date":
			if meta.Date == "" {
				meta.Date = value
			}
		case "volume":
			if meta.Volume == "" {
				meta.Volume = value
			}
		case "issue":
			if meta.Issue == "" {
				meta.Issue = value
			}
		case "description", "summary":
			if meta.Description == "" {
				meta.Description = value
			}
		}
	}

	// Text-derived fallbacks for fields the processor left blank
	if meta.Title == "" {
		meta.Title = TitleFromText(text, e.extraction.TitleMinLength, e.extraction.TitleMaxLines)
	}
	if meta.Date == "" {
		meta.Date = NormalizeDate(FindDate(text))
	}
	if meta.Description == "" {
		meta.Description = TruncateDescription(text, e.extraction.DescriptionLimit)
	}

	return meta
}

// entityText prefers the normalized value over the raw mention text
func entityText(entity *documentaipb.Document_Entity) string {
	if normalized := entity.GetNormalizedValue().GetText(); normalized != "" {
		return strings.TrimSpace(normalized)
	}
	return strings.TrimSpace(entity.GetMentionText())
}
