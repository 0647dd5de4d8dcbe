package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"tailorkit/internal/errors"
	"tailorkit/internal/types"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

// Field descriptions shared by the Gemini schema and the JSON Schema
const (
	descTailoredResume  = "The full text of the tailored resume, formatted with markdown."
	descCoverLetter     = "The full text of the personalized cover letter."
	descKeywordAnalysis = "An array of important keywords from the job description."
	descStrengths       = "Areas of strong alignment between the resume and job description."
	descGaps            = "Potential gaps or areas to emphasize."
)

// buildGeminiSchema returns the response schema sent to Gemini
func buildGeminiSchema() *genai.Schema {
	stringArray := func(description string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: description,
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tailoredResume":  {Type: genai.TypeString, Description: descTailoredResume},
			"coverLetter":     {Type: genai.TypeString, Description: descCoverLetter},
			"keywordAnalysis": stringArray(descKeywordAnalysis),
			"alignmentAnalysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"strengths": stringArray(descStrengths),
					"gaps":      stringArray(descGaps),
				},
				Required: []string{"strengths", "gaps"},
			},
		},
		Required: []string{"tailoredResume", "coverLetter", "keywordAnalysis", "alignmentAnalysis"},
	}
}

// ResultJSONSchema is the JSON Schema every provider answer must satisfy
var ResultJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "tailoredResume": {"type": "string", "description": "` + descTailoredResume + `"},
    "coverLetter": {"type": "string", "description": "` + descCoverLetter + `"},
    "keywordAnalysis": {
      "type": "array",
      "items": {"type": "string"},
      "description": "` + descKeywordAnalysis + `"
    },
    "alignmentAnalysis": {
      "type": "object",
      "properties": {
        "strengths": {"type": "array", "items": {"type": "string"}, "description": "` + descStrengths + `"},
        "gaps": {"type": "array", "items": {"type": "string"}, "description": "` + descGaps + `"}
      },
      "required": ["strengths", "gaps"]
    }
  },
  "required": ["tailoredResume", "coverLetter", "keywordAnalysis", "alignmentAnalysis"]
}`

var resultSchemaLoader = gojsonschema.NewStringLoader(ResultJSONSchema)

// FieldError is a single schema violation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ParseResult validates raw against the result schema and decodes it. Any
// failure is an InvalidResponseShape error carrying the violations.
func ParseResult(raw string) (*types.GenerationResult, error) {
	text := strings.TrimSpace(raw)

	validation, err := gojsonschema.Validate(resultSchemaLoader, gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, errors.NewResponseShapeError(errors.ErrCodeInvalidResponseShape, msgGenerateFailed,
			fmt.Errorf("response is not valid JSON: %w", err))
	}

	if !validation.Valid() {
		violations := make([]FieldError, 0, len(validation.Errors()))
		details := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			violations = append(violations, FieldError{Field: desc.Field(), Message: desc.Description()})
			details = append(details, desc.Field()+": "+desc.Description())
		}
		return nil, errors.NewResponseShapeError(errors.ErrCodeInvalidResponseShape, msgGenerateFailed,
			fmt.Errorf("response does not match schema: %s", strings.Join(details, "; "))).
			WithContext("violations", violations)
	}

	var result types.GenerationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, errors.NewResponseShapeError(errors.ErrCodeInvalidResponseShape, msgGenerateFailed, err)
	}
	return &result, nil
}

// stripCodeFences removes a surrounding markdown code fence, as returned by
// chat models that ignore the JSON-only instruction
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the info string, e.g. ```json
		if !strings.ContainsAny(text[:nl], "{[") {
			text = text[nl+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
