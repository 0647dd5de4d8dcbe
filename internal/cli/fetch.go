package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"tailorkit/internal/common"
	"tailorkit/internal/fetch"
	"tailorkit/internal/observability"
	"tailorkit/internal/types"
)

func newFetchCmd() *cobra.Command {
	opts := &common.CommandConfig{}

	cmd := &cobra.Command{
		Use:   "fetch [url]",
		Short: "Fetch a job posting and print its main text",
		Long: `Download a job posting and reduce it to the text of the job description.
Navigation, scripts and other page chrome are dropped.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return common.ValidateOutputFormat(opts.OutputFormat, extractFormats)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfigFromContext(ctx)
			logger := getLoggerFromContext(ctx)

			om, shutdown := startObservability(cfg, logger, false)
			defer shutdown()

			url := strings.TrimSpace(args[0])
			text, err := fetch.New(cfg.Fetch, logger).Fetch(ctx, url)
			om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricJobDescriptionFetched, err == nil, om,
				attribute.String("source", "cli"))
			if err != nil {
				return err
			}

			response := types.ExtractResponse{FileName: url, Text: text}
			return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(response, *opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "text", "Output format: text, markdown or json")

	return cmd
}
