package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"tailorkit/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "GenerationResult", &GenerationTextFormatter{})
	registry.RegisterFormatter("markdown", "GenerationResult", &GenerationMarkdownFormatter{})
	registry.RegisterFormatter("html", "GenerationResult", &GenerationHTMLFormatter{})
	registry.RegisterFormatter("text", "ExtractResponse", &ExtractTextFormatter{})
	registry.RegisterFormatter("markdown", "ExtractResponse", &ExtractTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.GenerationResult, *types.GenerationResult:
		return "GenerationResult"
	case types.ExtractResponse, *types.ExtractResponse:
		return "ExtractResponse"
	default:
		return "any"
	}
}

func asGenerationResult(data any) (types.GenerationResult, error) {
	switch v := data.(type) {
	case types.GenerationResult:
		return v, nil
	case *types.GenerationResult:
		if v != nil {
			return *v, nil
		}
	}
	return types.GenerationResult{}, fmt.Errorf("expected GenerationResult, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// GenerationTextFormatter handles text formatting for generation results
type GenerationTextFormatter struct{}

func (gtf *GenerationTextFormatter) Format(data any) (string, error) {
	result, err := asGenerationResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== TAILORED RESUME ===\n\n")
	output.WriteString(result.TailoredResume)
	output.WriteString("\n\n")

	output.WriteString("=== PERSONALIZED COVER LETTER ===\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	output.WriteString("=== KEYWORD ANALYSIS ===\n")
	writeTextList(&output, result.KeywordAnalysis, "No keywords were extracted.")
	output.WriteString("\n")

	output.WriteString("=== RESUME & JOB ALIGNMENT ===\n")
	output.WriteString("Strengths:\n")
	writeTextList(&output, result.AlignmentAnalysis.Strengths, "No specific strengths identified.")
	output.WriteString("\nPotential Gaps:\n")
	writeTextList(&output, result.AlignmentAnalysis.Gaps, "No potential gaps identified.")

	return output.String(), nil
}

func (gtf *GenerationTextFormatter) SupportedType() string {
	return "GenerationResult"
}

func writeTextList(output *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		output.WriteString(empty)
		output.WriteString("\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
}

// GenerationMarkdownFormatter handles markdown formatting for generation results
type GenerationMarkdownFormatter struct{}

func (gmf *GenerationMarkdownFormatter) Format(data any) (string, error) {
	result, err := asGenerationResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Tailored Resume\n\n")
	output.WriteString(result.TailoredResume)
	output.WriteString("\n\n")

	output.WriteString("# Personalized Cover Letter\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	output.WriteString("## Keyword Analysis\n\n")
	if len(result.KeywordAnalysis) == 0 {
		output.WriteString("No keywords were extracted.\n")
	} else {
		quoted := make([]string, len(result.KeywordAnalysis))
		for i, keyword := range result.KeywordAnalysis {
			quoted[i] = "`" + keyword + "`"
		}
		output.WriteString(strings.Join(quoted, " "))
		output.WriteString("\n")
	}
	output.WriteString("\n")

	output.WriteString("## Resume & Job Alignment\n\n")
	output.WriteString("### Strengths\n")
	writeTextList(&output, result.AlignmentAnalysis.Strengths, "No specific strengths identified.")
	output.WriteString("\n### Potential Gaps\n")
	writeTextList(&output, result.AlignmentAnalysis.Gaps, "No potential gaps identified.")

	return output.String(), nil
}

func (gmf *GenerationMarkdownFormatter) SupportedType() string {
	return "GenerationResult"
}

// GenerationHTMLFormatter renders the markdown report as a standalone HTML page
type GenerationHTMLFormatter struct{}

func (ghf *GenerationHTMLFormatter) Format(data any) (string, error) {
	md, err := (&GenerationMarkdownFormatter{}).Format(data)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	var output strings.Builder
	output.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Tailored Resume</title>\n</head>\n<body>\n")
	output.Write(body.Bytes())
	output.WriteString("</body>\n</html>\n")
	return output.String(), nil
}

func (ghf *GenerationHTMLFormatter) SupportedType() string {
	return "GenerationResult"
}

// ExtractTextFormatter prints the extracted text as is
type ExtractTextFormatter struct{}

func (etf *ExtractTextFormatter) Format(data any) (string, error) {
	switch v := data.(type) {
	case types.ExtractResponse:
		return v.Text, nil
	case *types.ExtractResponse:
		if v != nil {
			return v.Text, nil
		}
	}
	return "", fmt.Errorf("expected ExtractResponse, got %T", data)
}

func (etf *ExtractTextFormatter) SupportedType() string {
	return "ExtractResponse"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
