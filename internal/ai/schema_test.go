package ai

import (
	"testing"

	"tailorkit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const validResponse = `{
  "tailoredResume": "# Jane Doe\n- Built Go services",
  "coverLetter": "Dear Hiring Manager,",
  "keywordAnalysis": ["Go", "Kubernetes"],
  "alignmentAnalysis": {"strengths": ["Go"], "gaps": []}
}`

func TestParseResultValid(t *testing.T) {
	result, err := ParseResult("\n" + validResponse + "  ")
	require.NoError(t, err)

	assert.Equal(t, "# Jane Doe\n- Built Go services", result.TailoredResume)
	assert.Equal(t, "Dear Hiring Manager,", result.CoverLetter)
	assert.Equal(t, []string{"Go", "Kubernetes"}, result.KeywordAnalysis)
	assert.Equal(t, []string{"Go"}, result.AlignmentAnalysis.Strengths)
	assert.Empty(t, result.AlignmentAnalysis.Gaps)
}

func TestParseResultRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "missing cover letter",
			raw:   `{"tailoredResume":"r","keywordAnalysis":[],"alignmentAnalysis":{"strengths":[],"gaps":[]}}`,
			field: "(root)",
		},
		{
			name:  "keywords not an array",
			raw:   `{"tailoredResume":"r","coverLetter":"c","keywordAnalysis":"Go","alignmentAnalysis":{"strengths":[],"gaps":[]}}`,
			field: "keywordAnalysis",
		},
		{
			name:  "nested gaps missing",
			raw:   `{"tailoredResume":"r","coverLetter":"c","keywordAnalysis":[],"alignmentAnalysis":{"strengths":[]}}`,
			field: "alignmentAnalysis",
		},
		{
			name:  "non string keyword",
			raw:   `{"tailoredResume":"r","coverLetter":"c","keywordAnalysis":[1],"alignmentAnalysis":{"strengths":[],"gaps":[]}}`,
			field: "keywordAnalysis.0",
		},
		{
			name:  "resume is null",
			raw:   `{"tailoredResume":null,"coverLetter":"c","keywordAnalysis":[],"alignmentAnalysis":{"strengths":[],"gaps":[]}}`,
			field: "tailoredResume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseResult(tt.raw)
			assert.Nil(t, result)
			require.Error(t, err)

			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeResponseShape, appErr.Type)
			assert.Equal(t, msgGenerateFailed, appErr.Message)

			violations, ok := appErr.Context["violations"].([]FieldError)
			require.True(t, ok)
			var fields []string
			for _, v := range violations {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestParseResultMalformedJSON(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"tailoredResume": "r"`} {
		_, err := ParseResult(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.IsType(err, errors.ErrorTypeResponseShape), raw)
	}
}

func TestGeminiSchemaRequiresAllFields(t *testing.T) {
	schema := buildGeminiSchema()

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.ElementsMatch(t, []string{"tailoredResume", "coverLetter", "keywordAnalysis", "alignmentAnalysis"}, schema.Required)
	assert.Equal(t, descTailoredResume, schema.Properties["tailoredResume"].Description)
	assert.Equal(t, genai.TypeString, schema.Properties["keywordAnalysis"].Items.Type)

	alignment := schema.Properties["alignmentAnalysis"]
	assert.ElementsMatch(t, []string{"strengths", "gaps"}, alignment.Required)
	assert.Equal(t, descGaps, alignment.Properties["gaps"].Description)
}

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```{\"a\":1}```":         `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, stripCodeFences(in), in)
	}
}
