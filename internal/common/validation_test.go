package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailorkit/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{
			name:             "valid format - json",
			format:           "json",
			supportedFormats: []string{"json", "text", "markdown", "html"},
		},
		{
			name:             "valid format - html",
			format:           "html",
			supportedFormats: []string{"json", "text", "markdown", "html"},
		},
		{
			name:             "not registered - xml",
			format:           "xml",
			supportedFormats: []string{"json", "text", "markdown"},
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive - JSON uppercase",
			format:           "JSON",
			supportedFormats: []string{"json", "text"},
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text]",
		},
		{
			name:             "empty format string",
			format:           "",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format ''. Supported formats: [json]",
		},
		{
			name:             "registered but not configured",
			format:           "text",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format 'text'. Supported formats: [json]",
		},
		{
			name:             "empty supported formats allow all registered",
			format:           "markdown",
			supportedFormats: nil,
		},
		{
			name:             "empty supported formats still reject unknown",
			format:           "xml",
			supportedFormats: nil,
			expectedError:    "unsupported output format 'xml'. Supported formats: [html json markdown text]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Equal(t, tt.expectedError, errors.UserMessage(err))
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	tests := []struct {
		name             string
		supportedFormats []string
		expected         []string
	}{
		{"configured formats", []string{"json", "text", "markdown"}, []string{"json", "text", "markdown"}},
		{"unregistered formats dropped", []string{"xml", "json", "yaml"}, []string{"json"}},
		{"nothing configured", nil, []string{"html", "json", "markdown", "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetSupportedFormats(tt.supportedFormats))
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
