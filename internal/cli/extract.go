package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"tailorkit/internal/common"
	"tailorkit/internal/errors"
	"tailorkit/internal/extract"
	"tailorkit/internal/types"
)

// extractFormats are the output formats with an ExtractResponse formatter
var extractFormats = []string{"text", "markdown", "json"}

type extractOptions struct {
	common.CommandConfig
	MIMEType string
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract plain text from a PDF, DOCX or TXT file",
		Long: `Extract the plain text of a resume or job description file. The format is
picked from the file extension; --mime declares it for files without one.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return common.ValidateOutputFormat(opts.OutputFormat, extractFormats)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.MIMEType, "mime", "", "Declared MIME type of the file")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "text", "Output format: text, markdown or json")

	return cmd
}

func runExtract(cmd *cobra.Command, filename string, opts *extractOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	om, shutdown := startObservability(cfg, logger, false)
	defer shutdown()

	var text string
	var err error
	if opts.MIMEType == "" {
		text, err = common.NewFileProcessor(logger, om).ExtractFile(ctx, filename)
	} else {
		text, err = extractWithMIME(cmd, filename, opts.MIMEType)
	}
	if err != nil {
		return err
	}

	response := types.ExtractResponse{FileName: filepath.Base(filename), Text: text}
	return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(response, opts.CommandConfig)
}

// extractWithMIME extracts a file whose format is declared rather than
// taken from its extension
func extractWithMIME(cmd *cobra.Command, filename, mimeType string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	// a bare name lets the declared type win over a misleading extension
	return extract.Extract(cmd.Context(), "", mimeType, data)
}
