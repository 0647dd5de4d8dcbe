package app

import (
	"context"
	"sync"

	"tailorkit/internal/errors"
	"tailorkit/internal/types"
)

// Generator issues a generation request
type Generator interface {
	Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error)
}

// Extractor turns an uploaded document into text
type Extractor interface {
	Extract(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(ctx context.Context, name, mimeType string, data []byte) (string, error)

// Extract implements Extractor
func (f ExtractorFunc) Extract(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	return f(ctx, name, mimeType, data)
}

// Fetcher retrieves job description text from a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Controller owns one UIState and runs the effects its transitions request.
// State mutation is serialised; generation and extraction run outside the lock.
type Controller struct {
	mu    sync.Mutex
	state UIState

	generator Generator
	extractor Extractor
	fetcher   Fetcher
	logger    *errors.Logger
}

// NewController creates a controller in the initial state. fetcher may be nil.
func NewController(generator Generator, extractor Extractor, fetcher Fetcher, logger *errors.Logger) *Controller {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Controller{
		state:     NewUIState(),
		generator: generator,
		extractor: extractor,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// State returns a snapshot of the current state
func (c *Controller) State() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) apply(transition func(UIState) (UIState, Effect)) (UIState, Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, effect := transition(c.state)
	c.state = next
	return next, effect
}

// SetField updates the text of f
func (c *Controller) SetField(f Field, text string) UIState {
	s, _ := c.apply(func(s UIState) (UIState, Effect) { return SetField(s, f, text) })
	return s
}

// SetTone updates the tone
func (c *Controller) SetTone(tone types.Tone) UIState {
	s, _ := c.apply(func(s UIState) (UIState, Effect) { return SetTone(s, tone) })
	return s
}

// SetRoleLevel updates the role level
func (c *Controller) SetRoleLevel(level types.RoleLevel) UIState {
	s, _ := c.apply(func(s UIState) (UIState, Effect) { return SetRoleLevel(s, level) })
	return s
}

// SetCustomInstructions updates the custom instructions
func (c *Controller) SetCustomInstructions(instructions string) UIState {
	s, _ := c.apply(func(s UIState) (UIState, Effect) { return SetCustomInstructions(s, instructions) })
	return s
}

// Submit validates the form and, when valid, blocks until the generation
// resolves. A Submit while another is in flight returns the current state
// without calling the generator.
func (c *Controller) Submit(ctx context.Context) UIState {
	s, effect := c.apply(Submit)
	if effect.Kind != EffectGenerate {
		return s
	}

	c.logger.Debug("Generation started",
		"tone", effect.Request.Tone,
		"role_level", effect.Request.RoleLevel,
		"resume_length", len(effect.Request.ResumeText),
		"job_description_length", len(effect.Request.JobDescriptionText))

	result, err := c.generator.Generate(ctx, effect.Request)
	if err != nil {
		c.logger.LogError(err, "Generation failed")
	}

	s, _ = c.apply(func(s UIState) (UIState, Effect) { return Resolve(s, result, err) })
	return s
}

// Upload extracts data into field f
func (c *Controller) Upload(ctx context.Context, f Field, name, mimeType string, data []byte) UIState {
	return c.runUpload(f, func() (string, error) {
		return c.extractor.Extract(ctx, name, mimeType, data)
	}, "file_name", name)
}

// FetchJobDescription fetches url into the job description field
func (c *Controller) FetchJobDescription(ctx context.Context, url string) UIState {
	if c.fetcher == nil {
		return c.runUpload(FieldJobDescription, func() (string, error) {
			return "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "Fetching job descriptions is not enabled.", nil)
		}, "url", url)
	}
	return c.runUpload(FieldJobDescription, func() (string, error) {
		return c.fetcher.Fetch(ctx, url)
	}, "url", url)
}

func (c *Controller) runUpload(f Field, run func() (string, error), logArgs ...any) UIState {
	s, effect := c.apply(func(s UIState) (UIState, Effect) { return BeginUpload(s, f) })
	if effect.Kind != EffectExtract {
		return s
	}

	text, err := run()
	if err != nil {
		c.logger.LogError(err, "Upload failed", append([]any{"field", f}, logArgs...)...)
	}

	s, _ = c.apply(func(s UIState) (UIState, Effect) { return FinishUpload(s, f, text, err) })
	return s
}
