package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"429 status", errors.New("Error 429: too many requests"), true},
		{"resource exhausted", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("quota exceeded for model"), true},
		{"unrelated error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: rate limited. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED")
	delay := ExtractRetryDelay(err)
	assert.InDelta(t, 45.387, delay.Seconds(), 0.01)

	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no delay here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	// No API delay: starts at InitialBackoff
	assert.Equal(t, DefaultInitialBackoff, cfg.CalculateBackoff(0, 0))

	// Multiplier applies per attempt
	second := cfg.CalculateBackoff(1, 0)
	assert.Greater(t, second, DefaultInitialBackoff)

	// Capped at MaxBackoff
	assert.Equal(t, DefaultMaxBackoff, cfg.CalculateBackoff(10, 0))

	// API delay takes precedence over InitialBackoff
	withAPI := cfg.CalculateBackoff(0, 10*time.Second)
	assert.Equal(t, 15*time.Second, withAPI)
}
