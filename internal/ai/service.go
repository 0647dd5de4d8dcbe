package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"tailorkit/internal/config"
	"tailorkit/internal/errors"
	"tailorkit/internal/types"
)

const (
	msgGenerateFailed = "Failed to generate content. Please check your inputs or API key."
	msgMissingAPIKey  = "API_KEY environment variable not set. Please configure it in the environment."

	defaultModelCheckTimeout = 10 * time.Second
)

// Service issues generation requests against the configured provider. The
// provider is created on first use so that a missing credential surfaces as
// a configuration error on the first request rather than at startup.
type Service struct {
	mu       sync.Mutex
	cfg      config.GenerateConfig
	factory  ProviderFactory
	provider Provider

	breaker      *GenerationCircuitBreaker
	modelBreaker *ModelCircuitBreaker

	modelCheckTimeout time.Duration
	logger            *errors.Logger
}

// Ensure Service implements Generator
var _ Generator = (*Service)(nil)

// NewService creates a generation service for cfg.Provider
func NewService(cfg config.GenerateConfig, logger *errors.Logger) (*Service, error) {
	var factory ProviderFactory
	switch cfg.Provider {
	case config.ProviderGemini, "":
		cfg.Provider = config.ProviderGemini
		factory = NewGeminiProvider
	case config.ProviderOpenAI:
		factory = NewOpenAIProvider
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	return NewServiceWithFactory(cfg, factory, logger), nil
}

// NewServiceWithFactory creates a generation service using factory to build
// its provider
func NewServiceWithFactory(cfg config.GenerateConfig, factory ProviderFactory, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"timeout", cfg.Timeout,
		"use_system_prompts", cfg.UseSystemPrompts,
		"has_api_key", cfg.APIKey != "")

	return &Service{
		cfg:               cfg,
		factory:           factory,
		breaker:           NewGenerationCircuitBreaker(cfg.Provider, cfg.CircuitBreaker, logger),
		modelBreaker:      NewModelCircuitBreaker(cfg.Provider, cfg.CircuitBreaker, logger),
		modelCheckTimeout: defaultModelCheckTimeout,
		logger:            logger,
	}
}

// SetModelCheckTimeout overrides the timeout used by GetModelInfo
func (s *Service) SetModelCheckTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.modelCheckTimeout = timeout
	}
}

// Generate implements Generator
func (s *Service) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error) {
	result, _, err := s.GenerateWithUsage(ctx, req)
	return result, err
}

// GenerateWithUsage issues exactly one provider call and returns the
// validated result together with the reported token usage
func (s *Service) GenerateWithUsage(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, *TokenUsage, error) {
	provider, cfg, err := s.currentProvider()
	if err != nil {
		return nil, nil, err
	}

	prompt := s.buildPrompt(cfg, req)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := s.breaker.Execute(func() (*Completion, error) {
		return provider.Complete(ctx, prompt)
	})
	if err != nil {
		appErr := s.classifyFailure(ctx, err)
		s.logger.LogError(appErr, "Generation request failed",
			"provider", cfg.Provider,
			"model", cfg.Model,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, nil, appErr
	}

	result, err := ParseResult(completion.Text)
	if err != nil {
		s.logger.LogError(err, "Generation response rejected",
			"provider", cfg.Provider,
			"model", cfg.Model,
			"response_length", len(completion.Text))
		return nil, completion.Usage, err
	}

	s.logger.Debug("Generation completed",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"keywords", len(result.KeywordAnalysis))

	return result, completion.Usage, nil
}

func (s *Service) classifyFailure(ctx context.Context, err error) *errors.AppError {
	switch {
	case isBreakerRejection(err):
		return errors.NewAIError(errors.ErrCodeCircuitOpen, msgGenerateFailed, err)
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewAIError(errors.ErrCodeAITimeout, msgGenerateFailed, err)
	default:
		return errors.NewAIError(errors.ErrCodeAIServiceFailed, msgGenerateFailed, err)
	}
}

// buildPrompt resolves the template and system prompt at call time so that
// reloaded prompt files take effect without a restart
func (s *Service) buildPrompt(cfg config.GenerateConfig, req *types.GenerationRequest) Prompt {
	loaded := config.Prompts().Snapshot()

	template := resolvePrompt(loaded.Generate, cfg.PromptTemplate, DefaultPromptTemplate)

	var system string
	if cfg.UseSystemPrompts {
		system = resolvePrompt(loaded.System, cfg.SystemPrompt, "")
	}

	return Prompt{System: system, User: BuildPrompt(template, req)}
}

// currentProvider returns the provider, creating it on first use
func (s *Service) currentProvider() (Provider, config.GenerateConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	if cfg.APIKey == "" {
		return nil, cfg, errors.NewConfigError(errors.ErrCodeMissingAPIKey, msgMissingAPIKey, nil).
			WithContext("provider", cfg.Provider)
	}

	if s.provider == nil {
		provider, err := s.factory(cfg, s.logger)
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok && appErr.Type == errors.ErrorTypeConfig {
				return nil, cfg, appErr
			}
			return nil, cfg, errors.NewAIError(errors.ErrCodeAIServiceFailed, msgGenerateFailed, err)
		}
		s.provider = provider
	}
	return s.provider, cfg, nil
}

// UpdateAPIKey swaps the credential; the provider is rebuilt on next use
func (s *Service) UpdateAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if apiKey == s.cfg.APIKey {
		return
	}
	s.cfg.APIKey = apiKey
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Warn("Failed to close AI provider", "error", err)
		}
		s.provider = nil
	}
	s.logger.Info("AI credential updated", "provider", s.cfg.Provider)
}

// HasAPIKey reports whether a credential is configured
func (s *Service) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.APIKey != ""
}

// GetModelInfo checks the readiness and availability of the configured model
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: s.cfg.Model, Provider: s.cfg.Provider}

	provider, _, err := s.currentProvider()
	if err != nil {
		info.Error = errors.UserMessage(err)
		return info
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.modelCheckTimeout)
	defer cancel()

	model, err := s.modelBreaker.Execute(func() (*ModelInfo, error) {
		return provider.ModelInfo(checkCtx)
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		s.logger.Warn("Model availability check failed",
			"model", s.cfg.Model,
			"provider", s.cfg.Provider,
			"error", err.Error())
		return info
	}

	s.logger.Debug("Model availability check successful",
		"model", s.cfg.Model,
		"provider", s.cfg.Provider,
		"display_name", model.DisplayName,
		"version", model.Version)
	return model
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (s *Service) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    s.breaker.GetStats(),
		"model_operations": s.modelBreaker.GetStats(),
		"overall_healthy":  s.breaker.IsHealthy() && s.modelBreaker.IsHealthy(),
	}
}

// Provider returns the configured provider name
func (s *Service) Provider() string {
	return s.cfg.Provider
}

// Close releases the provider
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil {
		return nil
	}
	err := s.provider.Close()
	s.provider = nil
	return err
}
