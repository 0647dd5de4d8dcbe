package ai

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"tailorkit/internal/config"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestCircuitBreakerDisabled(t *testing.T) {
	cfg := config.CircuitBreakerConfig{Enabled: false}

	cb := NewGenerationCircuitBreaker("gemini", cfg, nil)
	assert.Nil(t, cb)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, cb.GetStats())

	completion, err := cb.Execute(func() (*Completion, error) {
		return &Completion{Text: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)

	assert.Nil(t, NewModelCircuitBreaker("gemini", cfg, nil))
}

func TestCircuitBreakerTrips(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
	cb := NewGenerationCircuitBreaker("openai", cfg, testLogger)

	stats := cb.GetStats()
	assert.Equal(t, "AI-Generate-openai", stats["name"])
	assert.Equal(t, "closed", stats["state"])

	fail := func() (*Completion, error) { return nil, fmt.Errorf("boom") }
	for range 3 {
		_, err := cb.Execute(fail)
		require.Error(t, err)
		assert.False(t, isBreakerRejection(err))
	}

	assert.False(t, cb.IsHealthy())
	_, err := cb.Execute(fail)
	assert.True(t, isBreakerRejection(err))
	assert.Equal(t, "open", cb.GetStats()["state"])
}

func TestModelCircuitBreakerIsLenient(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled:     true,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		MinRequests: 1,
	}
	cb := NewModelCircuitBreaker("gemini", cfg, testLogger)

	fail := func() (*ModelInfo, error) { return nil, fmt.Errorf("boom") }
	for range 4 {
		_, _ = cb.Execute(fail)
	}
	assert.True(t, cb.IsHealthy(), "model breaker needs five requests")

	_, _ = cb.Execute(fail)
	assert.False(t, cb.IsHealthy())
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain network error", fmt.Errorf("connection reset"), true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
		{"googleapi throttled", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"googleapi bad request", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"genai unavailable", genai.APIError{Code: http.StatusServiceUnavailable}, true},
		{"genai forbidden", fmt.Errorf("wrapped: %w", genai.APIError{Code: http.StatusForbidden}), false},
		{"openai server error", &openai.Error{StatusCode: http.StatusBadGateway}, true},
		{"openai unauthorized", &openai.Error{StatusCode: http.StatusUnauthorized}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransientError(tt.err))
		})
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	cb := NewGenerationCircuitBreaker("gemini", cfg, testLogger)

	badRequest := func() (*Completion, error) {
		return nil, &googleapi.Error{Code: http.StatusBadRequest, Message: "invalid argument"}
	}
	for range 4 {
		_, err := cb.Execute(badRequest)
		require.Error(t, err)
		assert.False(t, isBreakerRejection(err))
	}
	assert.True(t, cb.IsHealthy())
}
