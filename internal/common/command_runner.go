package common

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"tailorkit/internal/ai"
	"tailorkit/internal/errors"
	"tailorkit/internal/observability"
	"tailorkit/internal/types"
)

// UsageGenerator is a generation client that reports token usage
type UsageGenerator interface {
	GenerateWithUsage(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, *ai.TokenUsage, error)
}

// InstrumentedGenerator records tracing, token usage and business metrics
// around each generation call. It is shared by the CLI and the server.
type InstrumentedGenerator struct {
	generator UsageGenerator
	om        *observability.ObservabilityManager
	logger    *errors.Logger
}

// NewInstrumentedGenerator wraps generator. om may be a disabled manager.
func NewInstrumentedGenerator(generator UsageGenerator, om *observability.ObservabilityManager, logger *errors.Logger) *InstrumentedGenerator {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if om == nil {
		// a disabled manager never fails to build
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{}, nil, logger)
	}
	return &InstrumentedGenerator{generator: generator, om: om, logger: logger}
}

// Generate implements app.Generator
func (g *InstrumentedGenerator) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error) {
	metrics := g.om.GetMetrics()

	var result *types.GenerationResult
	err := metrics.TrackAIOperationWithTokens(ctx, "generate", func(ctx context.Context) *observability.AIOperationResult {
		res, tokenUsage, err := g.generator.GenerateWithUsage(ctx, req)
		result = res
		if tokenUsage != nil {
			g.logger.Info("AI token usage",
				"input_tokens", tokenUsage.InputTokens,
				"output_tokens", tokenUsage.OutputTokens,
				"total_tokens", tokenUsage.TotalTokens)
		}
		return &observability.AIOperationResult{
			Error:      err,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, g.om)

	metrics.RecordBusinessMetric(ctx, observability.MetricDocumentGenerated, err == nil, g.om,
		attribute.String("tone", string(req.Tone)),
		attribute.String("role_level", string(req.RoleLevel)))

	if err != nil {
		return nil, err
	}

	metrics.RecordContentSize(ctx, "tailored_resume", len(result.TailoredResume), g.om)
	metrics.RecordContentSize(ctx, "cover_letter", len(result.CoverLetter), g.om)
	return result, nil
}
