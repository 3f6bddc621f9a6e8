package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func testKVMap() map[string]string {
	return map[string]string{
		"openai_api_key": "sk-12345",
		"sheet-id":       "1AbC",
	}
}

func TestReplaceKeyReferences(t *testing.T) {
	logger := arbor.NewLogger()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "key = {openai_api_key}", "key = sk-12345"},
		{"multiple", "{sheet-id}/{openai_api_key}", "1AbC/sk-12345"},
		{"missing key unchanged", "key = {missing}", "key = {missing}"},
		{"no references", "plain text", "plain text"},
		{"empty", "", ""},
		{"invalid syntax ignored", "key = {bad key}", "key = {bad key}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReplaceKeyReferences(tt.input, testKVMap(), logger))
		})
	}
}

func TestReplaceInStructConfig(t *testing.T) {
	logger := arbor.NewLogger()

	cfg := NewDefaultConfig()
	cfg.Sheets.SheetID = "{sheet-id}"
	cfg.LLM.OpenAI.APIKey = "{openai_api_key}"
	cfg.Logging.Output = []string{"stdout", "{missing}"}

	require.NoError(t, ReplaceInStruct(cfg, testKVMap(), logger))

	assert.Equal(t, "1AbC", cfg.Sheets.SheetID)
	assert.Equal(t, "sk-12345", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "{missing}", cfg.Logging.Output[1], "unresolved references stay intact")
	assert.Equal(t, "google", cfg.Sheets.Mode, "fields without references untouched")
}

func TestReplaceInStructRejectsNonPointer(t *testing.T) {
	logger := arbor.NewLogger()

	assert.Error(t, ReplaceInStruct(Config{}, testKVMap(), logger))

	value := "not a struct"
	assert.Error(t, ReplaceInStruct(&value, testKVMap(), logger))
}
