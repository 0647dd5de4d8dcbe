package ai

import (
	"context"
	"fmt"

	"tailorkit/internal/config"
	"tailorkit/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	config config.GenerateConfig
	logger *errors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg config.GenerateConfig, logger *errors.Logger) (Provider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Complete sends the prompt with a JSON response schema
func (g *GeminiProvider) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	tracer := otel.Tracer("tailorkit.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderGemini),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("ai.prompt_length", len(prompt.User)),
	)

	genaiConfig := g.buildGenerateConfig()
	if prompt.System != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt.User), genaiConfig)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	text := result.Text()
	if text == "" {
		err := fmt.Errorf("gemini returned an empty response")
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))

	return &Completion{Text: text, Usage: usage}, nil
}

// buildGenerateConfig requests JSON output constrained by the result schema
func (g *GeminiProvider) buildGenerateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   buildGeminiSchema(),
	}
	if g.config.Temperature != nil && *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// ModelInfo looks up the configured model
func (g *GeminiProvider) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	model, err := g.client.Models.Get(ctx, g.config.Model, &genai.GetModelConfig{})
	if err != nil {
		return nil, err
	}
	return &ModelInfo{
		Name:        g.config.Model,
		Provider:    config.ProviderGemini,
		DisplayName: model.DisplayName,
		Version:     model.Version,
		Available:   true,
	}, nil
}

// Close implements Provider. The genai client holds no resources in
// single-shot usage.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
