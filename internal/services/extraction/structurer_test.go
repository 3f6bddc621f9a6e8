package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

// stubLLM returns a canned response for structuring tests
type stubLLM struct {
	response string
	err      error
	lastMsgs []interfaces.Message
}

func (s *stubLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.lastMsgs = messages
	return s.response, s.err
}

func (s *stubLLM) Provider() string                    { return "stub" }
func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *stubLLM) Close() error                        { return nil }

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no fences", `{"Title": "x"}`, `{"Title": "x"}`},
		{"json fence", "```json\n{\"Title\": \"x\"}\n```", `{"Title": "x"}`},
		{"bare fence", "```\n{\"Title\": \"x\"}\n```", `{"Title": "x"}`},
		{"fence with preamble", "Here you go:\n```json\n{\"Title\": \"x\"}\n```", `{"Title": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripJSONFences(tt.input))
		})
	}
}

func TestParseMetadataJSON(t *testing.T) {
	meta, err := ParseMetadataJSON(`{"Title": "Gazette", "Date": "12/3/87", "Volume": 12, "Issue": "3", "Description": "Quarterly."}`)
	require.NoError(t, err)

	assert.Equal(t, "Gazette", meta.Title)
	assert.Equal(t, "12/3/87", meta.Date)
	assert.Equal(t, "12", meta.Volume, "numeric volume should be stringified")
	assert.Equal(t, "3", meta.Issue)
	assert.Equal(t, "Quarterly.", meta.Description)
}

func TestParseMetadataJSONMissingKeys(t *testing.T) {
	meta, err := ParseMetadataJSON(`{"Title": "Gazette"}`)
	require.NoError(t, err)

	assert.Equal(t, "Gazette", meta.Title)
	assert.Equal(t, "", meta.Date)
	assert.Equal(t, "", meta.Volume)
	assert.Equal(t, "", meta.Issue)
	assert.Equal(t, "", meta.Description)
}

func TestParseMetadataJSONInvalid(t *testing.T) {
	_, err := ParseMetadataJSON("not json at all")
	assert.Error(t, err)
}

func TestStructureText(t *testing.T) {
	llm := &stubLLM{response: "```json\n{\"Title\": \"Gazette\", \"Date\": \"1987\"}\n```"}
	s := NewStructurer(llm, common.GetLogger())

	meta, err := s.StructureText(context.Background(), "Fire Brigade Gazette 1987")
	require.NoError(t, err)

	assert.Equal(t, "Gazette", meta.Title)
	assert.Equal(t, "1987", meta.Date)

	// Prompt carries the system primer and the document text
	require.Len(t, llm.lastMsgs, 2)
	assert.Equal(t, "system", llm.lastMsgs[0].Role)
	assert.Contains(t, llm.lastMsgs[1].Content, "Fire Brigade Gazette 1987")
	assert.Contains(t, llm.lastMsgs[1].Content, `"Title", "Date", "Volume", "Issue", "Description"`)
}

func TestStructureTextEmptyInput(t *testing.T) {
	s := NewStructurer(&stubLLM{}, common.GetLogger())
	_, err := s.StructureText(context.Background(), "   ")
	assert.Error(t, err)
}

func TestStructureTextLLMFailure(t *testing.T) {
	s := NewStructurer(&stubLLM{err: errors.New("rate limited")}, common.GetLogger())
	_, err := s.StructureText(context.Background(), "some text")
	assert.Error(t, err)
}
