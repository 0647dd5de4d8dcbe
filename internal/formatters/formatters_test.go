package formatters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailorkit/internal/types"
)

func sampleResult() types.GenerationResult {
	return types.GenerationResult{
		TailoredResume:  "Jane Doe\n\nSenior Go Engineer",
		CoverLetter:     "Dear Hiring Manager,",
		KeywordAnalysis: []string{"Go", "Kafka"},
		AlignmentAnalysis: types.AlignmentAnalysis{
			Strengths: []string{"Distributed systems"},
			Gaps:      []string{},
		},
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleResult(), "json")
	require.NoError(t, err)

	var decoded types.GenerationResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, sampleResult(), decoded)
}

func TestFormatText(t *testing.T) {
	result := sampleResult()
	out, err := GlobalRegistry.Format(&result, "text")
	require.NoError(t, err)

	assert.Contains(t, out, "=== TAILORED RESUME ===\n\nJane Doe")
	assert.Contains(t, out, "=== PERSONALIZED COVER LETTER ===\n\nDear Hiring Manager,")
	assert.Contains(t, out, "- Go\n- Kafka\n")
	assert.Contains(t, out, "- Distributed systems\n")
	assert.Contains(t, out, "No potential gaps identified.")
}

func TestFormatMarkdown(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleResult(), "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "# Tailored Resume\n\n")
	assert.Contains(t, out, "`Go` `Kafka`")
	assert.Contains(t, out, "### Potential Gaps\nNo potential gaps identified.")
}

func TestFormatHTML(t *testing.T) {
	result := sampleResult()
	result.TailoredResume = "Jane <script>alert(1)</script>"

	out, err := GlobalRegistry.Format(result, "html")
	require.NoError(t, err)

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<h1>Tailored Resume</h1>")
	assert.Contains(t, out, "<code>Kafka</code>")
	assert.NotContains(t, out, "<script>")
}

func TestFormatExtractResponse(t *testing.T) {
	out, err := GlobalRegistry.Format(types.ExtractResponse{FileName: "cv.txt", Text: "Jane Doe"}, "text")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", out)

	out, err = GlobalRegistry.Format(types.ExtractResponse{Text: "Jane Doe"}, "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"text": "Jane Doe"`)
}

func TestFormatUnknown(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleResult(), "yaml")
	assert.Error(t, err)

	_, err = GlobalRegistry.Format(map[string]string{"a": "b"}, "text")
	assert.Error(t, err)
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"html", "json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}
