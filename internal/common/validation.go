package common

import (
	"fmt"
	"slices"

	"tailorkit/internal/errors"
	"tailorkit/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and the
// formatters actually registered. An empty supported list allows every
// registered format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if !slices.Contains(registered, format) {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, GetSupportedFormats(supportedFormats)), nil)
	}

	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}

// GetSupportedFormats returns the configured formats that have a formatter
func GetSupportedFormats(supportedFormats []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		return registered
	}
	formats := make([]string, 0, len(supportedFormats))
	for _, format := range supportedFormats {
		if slices.Contains(registered, format) {
			formats = append(formats, format)
		}
	}
	return formats
}
