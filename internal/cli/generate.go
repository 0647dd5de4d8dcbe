package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"tailorkit/internal/ai"
	"tailorkit/internal/app"
	"tailorkit/internal/common"
	"tailorkit/internal/config"
	"tailorkit/internal/errors"
	"tailorkit/internal/export"
	"tailorkit/internal/fetch"
	"tailorkit/internal/presentation"
	"tailorkit/internal/types"
)

// generationBackend is the generation client used by the generate command
type generationBackend interface {
	common.UsageGenerator
	Close() error
}

// newGenerationBackend builds the generation client; tests replace it
var newGenerationBackend = func(cfg *config.Config, logger *errors.Logger) (generationBackend, error) {
	return ai.NewService(cfg.GetGenerateConfig(), logger)
}

type generateOptions struct {
	common.CommandConfig

	ResumeFile         string
	JobFile            string
	JobURL             string
	Tone               string
	RoleLevel          string
	CustomInstructions string
	ExportDir          string
	ExportFormat       string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a tailored resume and cover letter",
		Long: `Generate a tailored resume and a personalized cover letter for a job
description, along with a keyword and alignment analysis.

The resume and the job description can be PDF, DOCX or plain text files. The
job description can also be fetched from a job posting URL.`,
		Example: `  tailorkit generate --resume resume.pdf --job job.txt
  tailorkit generate --resume resume.docx --job-url https://example.com/jobs/42 --tone Confident --role Senior-level
  tailorkit generate --resume resume.txt --job job.txt --format json --output result.json --export-dir out/`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			// Apply default format if not specified
			if opts.OutputFormat == "" {
				opts.OutputFormat = cfg.App.DefaultFormat
			}
			// Validate format against supported formats
			if err := common.ValidateOutputFormat(opts.OutputFormat, cfg.App.SupportedFormats); err != nil {
				return err
			}
			if opts.ExportDir != "" {
				if _, err := export.ParseFormat(opts.ExportFormat); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ResumeFile, "resume", "", "Resume or profile file (pdf, docx or txt)")
	flags.StringVar(&opts.JobFile, "job", "", "Job description file (pdf, docx or txt)")
	flags.StringVar(&opts.JobURL, "job-url", "", "URL of the job posting to fetch")
	flags.StringVar(&opts.Tone, "tone", string(types.ToneDefault), "Cover letter tone: Default, Formal, Confident, Friendly, Persuasive")
	flags.StringVar(&opts.RoleLevel, "role", string(types.RoleLevelDefault), "Role level: Default, Entry-level, Mid-level, Senior-level, Executive")
	flags.StringVar(&opts.CustomInstructions, "instructions", "", "Custom instructions or keywords to emphasize")
	flags.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	flags.StringVar(&opts.OutputFormat, "format", "", "Output format: json, text, markdown or html")
	flags.StringVar(&opts.ExportDir, "export-dir", "", "Also export both documents into this directory")
	flags.StringVar(&opts.ExportFormat, "export-format", string(export.FormatPDF), "Export format for --export-dir: pdf or docx")

	_ = cmd.MarkFlagRequired("resume")
	cmd.MarkFlagsOneRequired("job", "job-url")
	cmd.MarkFlagsMutuallyExclusive("job", "job-url")

	// Add completion for enum flags
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("tone", cobra.FixedCompletions(enumStrings(types.Tones), cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("role", cobra.FixedCompletions(enumStrings(types.RoleLevels), cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("export-format", cobra.FixedCompletions([]string{"pdf", "docx"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	om, shutdown := startObservability(cfg, logger, false)
	defer shutdown()

	resume, jobDescription, err := readGenerationInputs(ctx, cfg, logger, opts, common.NewFileProcessor(logger, om))
	if err != nil {
		return err
	}

	req := &types.GenerationRequest{
		ResumeText:         resume,
		JobDescriptionText: jobDescription,
		Tone:               types.Tone(opts.Tone),
		RoleLevel:          types.RoleLevel(opts.RoleLevel),
		CustomInstructions: opts.CustomInstructions,
	}
	req.Normalize()
	if !req.HasRequiredText() {
		return errors.NewValidationError(errors.ErrCodeMissingInput, app.MsgMissingInput, nil)
	}
	if err := req.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid tone or role level.", err)
	}

	backend, err := newGenerationBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	logger.Info("Starting generation",
		"resume_chars", len(req.ResumeText),
		"job_chars", len(req.JobDescriptionText),
		"tone", req.Tone,
		"role_level", req.RoleLevel,
		"output_format", opts.OutputFormat)

	result, err := common.NewInstrumentedGenerator(backend, om, logger).Generate(ctx, req)
	if err != nil {
		return err
	}

	outputHandler := common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger)
	if err := outputHandler.HandleOutput(result, opts.CommandConfig); err != nil {
		return err
	}

	if opts.ExportDir != "" {
		if err := exportResult(cmd, cfg, logger, outputHandler, result, opts); err != nil {
			return err
		}
	}

	logger.Info("Generation completed successfully")
	return nil
}

// readGenerationInputs extracts the resume and the job description
// concurrently. The job description comes from a file or a URL.
func readGenerationInputs(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts *generateOptions, fp *common.FileProcessor) (string, string, error) {
	if opts.JobURL == "" {
		texts, err := fp.ExtractFiles(ctx, opts.ResumeFile, opts.JobFile)
		if err != nil {
			return "", "", err
		}
		return texts[0], texts[1], nil
	}

	var resume, jobDescription string
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := fp.ExtractFile(ctx, opts.ResumeFile)
		resume = text
		return err
	})
	g.Go(func() error {
		text, err := fetch.New(cfg.Fetch, logger).Fetch(ctx, opts.JobURL)
		jobDescription = text
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return resume, jobDescription, nil
}

// exportResult writes both generated documents into the export directory
func exportResult(cmd *cobra.Command, cfg *config.Config, logger *errors.Logger, oh *common.OutputHandler, result *types.GenerationResult, opts *generateOptions) error {
	format, err := export.ParseFormat(opts.ExportFormat)
	if err != nil {
		return err
	}

	exporter := export.NewService(cfg.Export, logger)
	texts := map[presentation.DocKind]string{
		presentation.DocResume:      result.TailoredResume,
		presentation.DocCoverLetter: result.CoverLetter,
	}

	for _, kind := range presentation.DocKinds {
		doc, err := exporter.Export(kind.Title(), texts[kind], format)
		if err != nil {
			return err
		}
		path, err := oh.WriteDocument(opts.ExportDir, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", kind.Title(), path)
	}
	return nil
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
