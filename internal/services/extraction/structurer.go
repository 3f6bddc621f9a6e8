package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// metadataSystemPrompt primes the model for document metadata extraction
const metadataSystemPrompt = "You are a helpful assistant that extracts metadata from documents."

// Structurer turns raw OCR text into structured metadata fields using an
// LLM chat completion. The response is requested as JSON with the exact row
// field names; missing keys are filled with blanks.
type Structurer struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewStructurer creates a structurer backed by the given LLM service
func NewStructurer(llm interfaces.LLMService, logger arbor.ILogger) *Structurer {
	return &Structurer{
		llm:    llm,
		logger: logger,
	}
}

// BuildMetadataPrompt renders the extraction prompt for a document's text
func BuildMetadataPrompt(text string) string {
	return fmt.Sprintf(`Extract the following metadata from the text below.
Return the result as a JSON object with these exact keys: "Title", "Date", "Volume", "Issue", "Description".
If a field cannot be determined, use an empty string.

Text:
%s

JSON Response:`, text)
}

// StructureText asks the LLM to extract the metadata fields from text
func (s *Structurer) StructureText(ctx context.Context, text string) (*models.Metadata, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to structure")
	}

	messages := []interfaces.Message{
		{Role: "system", Content: metadataSystemPrompt},
		{Role: "user", Content: BuildMetadataPrompt(text)},
	}

	response, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM structuring failed: %w", err)
	}

	meta, err := ParseMetadataJSON(response)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("provider", s.llm.Provider()).
			Int("response_length", len(response)).
			Msg("Failed to parse LLM metadata response")
		return nil, err
	}

	s.logger.Debug().
		Str("provider", s.llm.Provider()).
		Str("title", meta.Title).
		Str("date", meta.Date).
		Msg("Structured metadata from text")

	return meta, nil
}

// StripJSONFences removes markdown code fences around a JSON payload.
// Models frequently wrap responses in ```json ... ``` blocks.
func StripJSONFences(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx >= 0 {
		response = response[idx+len("```json"):]
		if end := strings.Index(response, "```"); end >= 0 {
			response = response[:end]
		}
		return strings.TrimSpace(response)
	}

	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		if end := strings.Index(response, "```"); end >= 0 {
			response = response[:end]
		}
		return strings.TrimSpace(response)
	}

	return response
}

// ParseMetadataJSON decodes an LLM response into metadata fields. Keys are
// matched case-sensitively against the row field names; missing keys become
// blank strings and non-string values are stringified.
func ParseMetadataJSON(response string) (*models.Metadata, error) {
	payload := StripJSONFences(response)

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	return &models.Metadata{
		Title:       stringField(raw, "Title"),
		Date:        stringField(raw, "Date"),
		Volume:      stringField(raw, "Volume"),
		Issue:       stringField(raw, "Issue"),
		Description: stringField(raw, "Description"),
	}, nil
}

func stringField(raw map[string]interface{}, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers for Volume/Issue come through as float64
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
