// Package cli implements the tailorkit command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"tailorkit/internal/config"
	"tailorkit/internal/errors"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}
type vaultKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}
var vaultKey = vaultKeyType{}

// annotation set on commands that never need secrets
const skipVaultAnnotation = "tailorkit/skip-vault"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tailorkit",
		Short: "Tailor a resume and write a cover letter for a job description",
		Long: `Tailorkit rewrites your resume for a specific job description and drafts a
matching cover letter, together with a keyword and alignment analysis.

Resumes and job descriptions can be PDF, DOCX or plain text files. Results can
be printed as text, markdown, HTML or JSON and exported as PDF or DOCX.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadSecrets,
	}

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command line with cfg and logger available to every command
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	return newRootCmd().ExecuteContext(withDependencies(ctx, cfg, logger))
}

func withDependencies(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	return ctx
}

// loadSecrets applies Vault secrets to the configuration before a command
// runs and keeps the client for credential rotation
func loadSecrets(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipVaultAnnotation] != "" {
		return nil
	}

	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	client, err := config.ApplyVaultSecrets(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load secrets from vault: %w", err)
	}
	if client != nil {
		cmd.SetContext(context.WithValue(cmd.Context(), vaultKey, client))
	}
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// getVaultFromContext returns the Vault client, or nil when Vault is disabled
func getVaultFromContext(ctx context.Context) *config.VaultClient {
	client, _ := ctx.Value(vaultKey).(*config.VaultClient)
	return client
}
