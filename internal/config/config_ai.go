package config

import (
	"os"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// credentialEnvVars are consulted in order when no key is configured
var credentialEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

// GenerateConfig is the resolved configuration of the generation client
type GenerateConfig struct {
	Provider         string
	Model            string
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	Temperature      *float32
	UseSystemPrompts bool
	SystemPrompt     string
	PromptTemplate   string
	CircuitBreaker   CircuitBreakerConfig
}

// GetGenerateConfig resolves the generation configuration, filling the
// credential from legacy environment variables and the prompt text from
// loaded prompt files. The API key may still be empty.
func (c *Config) GetGenerateConfig() GenerateConfig {
	cfg := GenerateConfig{
		Provider:         c.AI.Provider,
		Model:            c.AI.Model,
		BaseURL:          c.AI.BaseURL,
		APIKey:           c.AI.APIKey,
		Timeout:          c.AI.Timeout,
		Temperature:      c.AI.Temperature,
		UseSystemPrompts: c.AI.UseSystemPrompts,
		SystemPrompt:     c.AI.CustomPrompts.System,
		PromptTemplate:   c.AI.CustomPrompts.Generate,
		CircuitBreaker:   c.AI.CircuitBreaker,
	}

	if cfg.APIKey == "" {
		cfg.APIKey = lookupCredentialEnv()
	}

	loaded := Prompts().Snapshot()
	if loaded.System != "" {
		cfg.SystemPrompt = loaded.System
	}
	if loaded.Generate != "" {
		cfg.PromptTemplate = loaded.Generate
	}

	return cfg
}

func lookupCredentialEnv() string {
	for _, name := range credentialEnvVars {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
