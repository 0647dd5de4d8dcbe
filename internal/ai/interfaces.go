package ai

import (
	"context"

	"tailorkit/internal/config"
	"tailorkit/internal/errors"
	"tailorkit/internal/types"
)

// Generator produces tailored documents for a request
type Generator interface {
	Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error)
}

// Provider is a text generation backend. Complete returns the raw JSON text
// produced by the model; decoding and validation happen in the Service.
type Provider interface {
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
	ModelInfo(ctx context.Context) (*ModelInfo, error)
	Close() error
}

// ProviderFactory builds a Provider for a resolved configuration
type ProviderFactory func(cfg config.GenerateConfig, logger *errors.Logger) (Provider, error)

// Prompt is a single generation request as sent to a provider
type Prompt struct {
	System string
	User   string
}

// Completion is the raw provider answer
type Completion struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
