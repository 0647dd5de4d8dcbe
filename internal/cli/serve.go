package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"tailorkit/internal/ai"
	"tailorkit/internal/app"
	"tailorkit/internal/common"
	"tailorkit/internal/config"
	"tailorkit/internal/export"
	"tailorkit/internal/extract"
	"tailorkit/internal/fetch"
	"tailorkit/internal/server"
)

type serveOptions struct {
	Port     string
	Host     string
	TLSMode  string
	CertFile string
	KeyFile  string
	CAFile   string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start an HTTP server with a stateless REST API and a session API that
keeps one workspace per visitor.

Available endpoints:
- POST /api/v1/generate: Generate a tailored resume, cover letter and analysis
- POST /api/v1/extract: Extract text from an uploaded PDF, DOCX or TXT file
- POST /api/v1/export: Export a document as PDF or DOCX
- POST /api/v1/fetch: Fetch a job description from a URL
- /api/v1/sessions: Session workspace (form, upload, submit, edit, copy, export)
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&opts.TLSMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().StringVar(&opts.CertFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.KeyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.CAFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	return cmd
}

// applyServeFlags copies the flags the user set over the loaded config
func applyServeFlags(cmd *cobra.Command, opts *serveOptions, cfg *config.Config) {
	overrides := []struct {
		flag   string
		value  string
		target *string
	}{
		{"port", opts.Port, &cfg.Server.Port},
		{"host", opts.Host, &cfg.Server.Host},
		{"tls-mode", opts.TLSMode, &cfg.Server.TLS.Mode},
		{"cert-file", opts.CertFile, &cfg.Server.TLS.CertFile},
		{"key-file", opts.KeyFile, &cfg.Server.TLS.KeyFile},
		{"ca-file", opts.CAFile, &cfg.Server.TLS.CAFile},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.target = o.value
		}
	}
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, opts, cfg)

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, shutdown := startObservability(cfg, logger, true)
	defer shutdown()

	aiService, err := ai.NewService(cfg.GetGenerateConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()
	if timeout := cfg.Observability.HealthCheck.AIModelCheckTimeout; timeout > 0 {
		aiService.SetModelCheckTimeout(timeout)
	}

	deps := server.Dependencies{
		Generator:     common.NewInstrumentedGenerator(aiService, om, logger),
		Extractor:     app.ExtractorFunc(extract.Extract),
		Fetcher:       fetch.New(cfg.Fetch, logger),
		Exporter:      export.NewService(cfg.Export, logger),
		Backend:       aiService,
		Observability: om,
	}
	// a nil *VaultClient must not end up as a non-nil interface
	if vault := getVaultFromContext(ctx); vault != nil {
		deps.Vault = vault
	}

	return server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), deps, logger).Start(ctx)
}
