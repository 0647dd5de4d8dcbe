package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"tailorkit/internal/errors"
	"tailorkit/internal/extract"
	"tailorkit/internal/observability"
	"tailorkit/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
	om     *observability.ObservabilityManager
}

// NewFileProcessor creates a new file processor instance. om may be nil.
func NewFileProcessor(logger *errors.Logger, om *observability.ObservabilityManager) *FileProcessor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileProcessor{logger: logger, om: om}
}

// ExtractFile validates and extracts the text of a pdf, docx or txt file
func (fp *FileProcessor) ExtractFile(ctx context.Context, filename string) (string, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	text, err := extract.ExtractFile(ctx, filename)
	fp.recordExtraction(ctx, filename, text, err)
	if err != nil {
		return "", err
	}

	if info, statErr := os.Stat(filename); statErr == nil {
		fp.logger.Debug("Extracted document", "filename", filename, "size", utils.FormatFileSize(info.Size()), "chars", len(text))
	}
	return text, nil
}

// ExtractFiles extracts several files concurrently. Results keep the order
// of filenames; the first failure cancels the rest.
func (fp *FileProcessor) ExtractFiles(ctx context.Context, filenames ...string) ([]string, error) {
	texts := make([]string, len(filenames))

	g, ctx := errgroup.WithContext(ctx)
	for i, filename := range filenames {
		g.Go(func() error {
			text, err := fp.ExtractFile(ctx, filename)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

func (fp *FileProcessor) recordExtraction(ctx context.Context, filename, text string, err error) {
	if fp.om == nil {
		return
	}
	kind, _ := extract.DetectKind(filename, "")
	metrics := fp.om.GetMetrics()
	metrics.RecordBusinessMetric(ctx, observability.MetricDocumentExtracted, err == nil, fp.om,
		attribute.String("kind", string(kind)))
	if err == nil {
		metrics.RecordContentSize(ctx, "extracted_"+string(kind), len(text), fp.om)
	}
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, content, 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
