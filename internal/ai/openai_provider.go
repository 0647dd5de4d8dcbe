package ai

import (
	"context"
	"fmt"

	"tailorkit/internal/config"
	"tailorkit/internal/errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIProvider implements Provider for OpenAI-compatible chat completion
// endpoints. The result schema is sent as an instruction in the system message.
type OpenAIProvider struct {
	client openai.Client
	config config.GenerateConfig
	logger *errors.Logger
}

// Ensure OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider for the OpenAI API or a compatible server
func NewOpenAIProvider(cfg config.GenerateConfig, logger *errors.Logger) (Provider, error) {
	if cfg.Model == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "AI model is required for the openai provider", nil)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		config: cfg,
		logger: logger,
	}, nil
}

// Complete sends the prompt as a system and a user message
func (o *OpenAIProvider) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	tracer := otel.Tracer("tailorkit.ai.openai")
	ctx, span := tracer.Start(ctx, "openai.chat_completion")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderOpenAI),
		attribute.String("ai.model", o.config.Model),
		attribute.Int("ai.prompt_length", len(prompt.User)),
	)

	system := jsonOnlyInstruction + ResultJSONSchema
	if prompt.System != "" {
		system = prompt.System + "\n\n" + system
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt.User),
		},
	}
	if o.config.Temperature != nil && *o.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(*o.config.Temperature))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		err := fmt.Errorf("openai returned an empty response")
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	usage := &TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	span.SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
		attribute.Bool("success", true),
	)

	return &Completion{Text: stripCodeFences(resp.Choices[0].Message.Content), Usage: usage}, nil
}

// ModelInfo looks up the configured model
func (o *OpenAIProvider) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	model, err := o.client.Models.Get(ctx, o.config.Model)
	if err != nil {
		return nil, err
	}
	return &ModelInfo{
		Name:        o.config.Model,
		Provider:    config.ProviderOpenAI,
		DisplayName: model.ID,
		Version:     model.OwnedBy,
		Available:   true,
	}, nil
}

// Close implements Provider
func (o *OpenAIProvider) Close() error {
	return nil
}
