// Package common provides shared utilities and default configuration.
package common

// DefaultKVValue represents a default key/value pair that is seeded on startup.
type DefaultKVValue struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// GetDefaultKVValues returns the list of default KV values seeded on startup.
// This is the single source of truth for default values. API keys are left
// empty; they resolve from the environment or config until a value is set.
func GetDefaultKVValues() []DefaultKVValue {
	return []DefaultKVValue{
		{
			Key:         "openai_api_key",
			Value:       "",
			Description: "OpenAI API key for metadata structuring",
		},
		{
			Key:         "anthropic_api_key",
			Value:       "",
			Description: "Anthropic API key for metadata structuring",
		},
		{
			Key:         "gemini_api_key",
			Value:       "",
			Description: "Google Gemini API key for metadata structuring",
		},
	}
}
