package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// configuration. kvStorage may be nil; API keys then resolve from environment
// variables and config only.
func NewLLMService(cfg *common.LLMConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", string(cfg.DefaultProvider)).Msg("Initializing LLM service")

	switch cfg.DefaultProvider {
	case common.LLMProviderOpenAI:
		return NewOpenAIService(&cfg.OpenAI, kvStorage, logger)

	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, kvStorage, logger)

	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.Gemini, kvStorage, logger)

	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'openai', 'claude', or 'gemini'", cfg.DefaultProvider)
	}
}
