package extraction

import (
	"context"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// Chain runs extractors in priority order until one succeeds. Extraction is
// best-effort: a failed link is logged at warn and the next one tried. When
// every link fails, a filename-derived default row is returned so the file
// still lands in the spreadsheet.
type Chain struct {
	extractors []interfaces.MetadataExtractor
	extraction common.ExtractionConfig
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ExtractionChain = (*Chain)(nil)

// DefaultExtractorName labels rows built from the filename when every
// extractor failed.
const DefaultExtractorName = "default"

// NewChain creates an extraction chain. Extractor order is priority order.
func NewChain(extraction common.ExtractionConfig, logger arbor.ILogger, extractors ...interfaces.MetadataExtractor) *Chain {
	return &Chain{
		extractors: extractors,
		extraction: extraction,
		logger:     logger,
	}
}

// Extract runs the chain for the PDF at path. The returned metadata is
// never nil; the second return value names the extractor that produced it.
func (c *Chain) Extract(ctx context.Context, path string) (*models.Metadata, string, error) {
	for _, extractor := range c.extractors {
		if !extractor.Enabled() {
			c.logger.Debug().Str("extractor", extractor.Name()).Msg("Extractor disabled, skipping")
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		c.logger.Info().
			Str("extractor", extractor.Name()).
			Str("path", path).
			Msg("Attempting metadata extraction")

		meta, err := extractor.Extract(ctx, path)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("extractor", extractor.Name()).
				Str("path", path).
				Msg("Extraction failed, trying next extractor")
			continue
		}

		return Normalize(meta, c.extraction), extractor.Name(), nil
	}

	// Every extractor failed or was disabled: default row from the filename
	c.logger.Warn().
		Str("path", path).
		Msg("No metadata could be extracted, using filename defaults")

	return DefaultMetadata(filepath.Base(path)), DefaultExtractorName, nil
}
