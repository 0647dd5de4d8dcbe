package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"tailorkit/internal/common"
	"tailorkit/internal/errors"
	"tailorkit/internal/export"
	"tailorkit/internal/observability"
	"tailorkit/internal/presentation"
)

type exportOptions struct {
	InputFile string
	Format    string
	Title     string
	OutputDir string
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a document as PDF or DOCX",
		Long: `Render the text of a document as a PDF or DOCX file. The file is named after
the title, with spaces replaced by underscores.`,
		Example: `  tailorkit export --input resume.txt --format pdf
  tailorkit export --input letter.txt --format docx --title "Personalized Cover Letter" --output-dir out/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Document to export (pdf, docx or txt)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Export format: pdf or docx")
	cmd.Flags().StringVar(&opts.Title, "title", presentation.DocResume.Title(), "Document title, also used for the file name")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", ".", "Directory to write the file into")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("format")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"pdf", "docx"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if opts.Title == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "A title is required.", nil)
	}

	om, shutdown := startObservability(cfg, logger, false)
	defer shutdown()

	text, err := common.NewFileProcessor(logger, om).ExtractFile(ctx, opts.InputFile)
	if err != nil {
		return err
	}
	if text == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "There is no text to export.", nil)
	}

	doc, err := export.NewService(cfg.Export, logger).Export(opts.Title, text, format)
	om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricDocumentExported, err == nil, om,
		attribute.String("format", string(format)))
	if err != nil {
		return err
	}

	path, err := common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).WriteDocument(opts.OutputDir, doc)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
