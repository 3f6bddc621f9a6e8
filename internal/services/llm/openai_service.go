package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

// OpenAIService implements the LLMService interface using the OpenAI API.
// This is the default provider, matching the deployment the pipeline was
// originally run against.
type OpenAIService struct {
	config    *common.OpenAIConfig
	logger    arbor.ILogger
	client    openai.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	maxTokens int
}

// Compile-time assertion
var _ interfaces.LLMService = (*OpenAIService)(nil)

// NewOpenAIService creates a new OpenAI LLM service instance
func NewOpenAIService(cfg *common.OpenAIConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*OpenAIService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "openai_api_key", cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or llm.openai.api_key in config): %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", cfg.Timeout, err)
	}

	rateLimit, err := time.ParseDuration(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", cfg.RateLimit, err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	service := &OpenAIService{
		config:    cfg,
		logger:    logger,
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		limiter:   rate.NewLimiter(rate.Every(rateLimit), 1),
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", cfg.Model).
		Dur("timeout", timeout).
		Float32("temperature", cfg.Temperature).
		Int("max_tokens", maxTokens).
		Msg("OpenAI LLM service initialized")

	return service, nil
}

// Chat generates a completion response based on the conversation history
func (s *OpenAIService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(s.config.Model),
		Messages:    convertMessagesToOpenAI(messages),
		Temperature: openai.Float(float64(s.config.Temperature)),
		MaxTokens:   openai.Int(int64(s.maxTokens)),
	}

	startTime := time.Now()
	completion, err := s.client.Chat.Completions.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("OpenAI chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no completion choices")
	}

	response := completion.Choices[0].Message.Content
	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("OpenAI chat completion completed")

	return response, nil
}

// Provider returns the provider label
func (s *OpenAIService) Provider() string {
	return string(common.LLMProviderOpenAI)
}

// HealthCheck verifies the OpenAI service can handle requests
func (s *OpenAIService) HealthCheck(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.Chat.Completions.New(timeoutCtx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(s.config.Model),
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
		MaxTokens: openai.Int(1),
	})
	if err != nil {
		return fmt.Errorf("OpenAI health check failed: %w", err)
	}
	return nil
}

// Close releases resources held by the service
func (s *OpenAIService) Close() error {
	// The OpenAI client holds no long-lived connections to release
	return nil
}

// convertMessagesToOpenAI converts []interfaces.Message to the OpenAI
// message union, preserving chronological ordering.
func convertMessagesToOpenAI(messages []interfaces.Message) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			converted = append(converted, openai.SystemMessage(msg.Content))
		case "assistant":
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}
	return converted
}
