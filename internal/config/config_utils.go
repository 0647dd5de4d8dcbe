package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("TAILORKIT_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
	}
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = "disabled"
	}
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// maskSecret keeps the first and last four characters of long secrets
func maskSecret(value string) string {
	if len(value) > 8 {
		return value[:4] + "****" + value[len(value)-4:]
	}
	if value != "" {
		return "****"
	}
	return ""
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"TAILORKIT_AI_APIKEY",
		"TAILORKIT_AI_PROVIDER",
		"TAILORKIT_AI_MODEL",
		"TAILORKIT_SERVER_PORT",
		"TAILORKIT_SERVER_HOST",
		"TAILORKIT_APP_LOGLEVEL",
		"TAILORKIT_VAULT_ENABLED",
		"GEMINI_API_KEY",
		"API_KEY",
	}

	var set []string
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				set = append(set, envVar+"=***MASKED***")
			} else {
				set = append(set, envVar+"="+value)
			}
		}
	}
	if len(set) == 0 {
		log.Println("[CONFIG] Environment variables: None set")
	} else {
		log.Printf("[CONFIG] Environment variables: %s", strings.Join(set, ", "))
	}

	apiKeyState := "***NOT SET***"
	if c.AI.APIKey != "" || lookupCredentialEnv() != "" {
		apiKeyState = "***CONFIGURED***"
	}
	log.Printf("[CONFIG] AI Provider: %s, Model: %s, API Key: %s", c.AI.Provider, c.AI.Model, apiKeyState)
	log.Printf("[CONFIG] Server: %s:%s (TLS %s), Log Level: %s", c.Server.Host, c.Server.Port, c.Server.TLS.Mode, c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t, Observability Enabled: %t", c.Vault.Enabled, c.Observability.Enabled)
}
