package app

import (
	"fmt"
	"testing"

	"tailorkit/internal/errors"
	"tailorkit/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledState() UIState {
	s := NewUIState()
	s, _ = SetField(s, FieldResume, "Jane Doe\nSoftware Engineer")
	s, _ = SetField(s, FieldJobDescription, "Go developer")
	return s
}

func sampleResult() *types.GenerationResult {
	return &types.GenerationResult{
		TailoredResume:  "# Jane",
		CoverLetter:     "Dear team",
		KeywordAnalysis: []string{"Go"},
		AlignmentAnalysis: types.AlignmentAnalysis{
			Strengths: []string{"Go"},
			Gaps:      []string{},
		},
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		resume string
		jd     string
	}{
		{"both empty", "", ""},
		{"whitespace resume", " ", "Go developer"},
		{"blank job description", "Jane", "\n\t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewUIState()
			s.Resume, s.JobDescription = tt.resume, tt.jd

			next, effect := Submit(s)
			assert.Equal(t, EffectNone, effect.Kind)
			assert.False(t, next.InFlight)
			assert.Equal(t, "Please provide both your resume/profile and the job description.", next.Error)
		})
	}
}

func TestSubmitStartsGeneration(t *testing.T) {
	s := filledState()
	s.Error = "old error"
	s.Result = sampleResult()
	s, _ = SetTone(s, types.ToneConfident)
	s, _ = SetCustomInstructions(s, "Mention Kafka")

	next, effect := Submit(s)

	require.Equal(t, EffectGenerate, effect.Kind)
	assert.True(t, next.InFlight)
	assert.Empty(t, next.Error)
	assert.Nil(t, next.Result)
	assert.Equal(t, &types.GenerationRequest{
		ResumeText:         "Jane Doe\nSoftware Engineer",
		JobDescriptionText: "Go developer",
		Tone:               types.ToneConfident,
		RoleLevel:          types.RoleLevelDefault,
		CustomInstructions: "Mention Kafka",
	}, effect.Request)
}

func TestSubmitIsSingleFlight(t *testing.T) {
	s, effect := Submit(filledState())
	require.Equal(t, EffectGenerate, effect.Kind)

	again, effect := Submit(s)
	assert.Equal(t, EffectNone, effect.Kind)
	assert.Equal(t, s, again)
	assert.False(t, CanSubmit(again))
}

func TestSubmitBlockedWhileParsing(t *testing.T) {
	s, _ := BeginUpload(filledState(), FieldJobDescription)
	assert.False(t, CanSubmit(s))

	next, effect := Submit(s)
	assert.Equal(t, EffectNone, effect.Kind)
	assert.False(t, next.InFlight)
}

func TestResolve(t *testing.T) {
	inFlight, _ := Submit(filledState())

	t.Run("success", func(t *testing.T) {
		result := sampleResult()
		s, _ := Resolve(inFlight, result, nil)
		assert.False(t, s.InFlight)
		assert.Same(t, result, s.Result)
		assert.Empty(t, s.Error)
		assert.Equal(t, inFlight.Generation+1, s.Generation)
	})

	t.Run("application error", func(t *testing.T) {
		err := errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate content. Please check your inputs or API key.", fmt.Errorf("500"))
		s, _ := Resolve(inFlight, nil, err)
		assert.False(t, s.InFlight)
		assert.Nil(t, s.Result)
		assert.Equal(t, "An error occurred: Failed to generate content. Please check your inputs or API key.", s.Error)
		assert.Equal(t, inFlight.Generation, s.Generation)
	})

	t.Run("plain error", func(t *testing.T) {
		s, _ := Resolve(inFlight, nil, fmt.Errorf("connection reset"))
		assert.Equal(t, "An error occurred: connection reset", s.Error)
	})

	t.Run("error without message", func(t *testing.T) {
		s, _ := Resolve(inFlight, nil, fmt.Errorf(""))
		assert.Equal(t, "An unknown error occurred.", s.Error)

		s, _ = Resolve(inFlight, nil, nil)
		assert.Equal(t, "An unknown error occurred.", s.Error)
	})

	t.Run("ignored when idle", func(t *testing.T) {
		idle := filledState()
		s, _ := Resolve(idle, sampleResult(), nil)
		assert.Equal(t, idle, s)
	})
}

func TestUploadLifecycle(t *testing.T) {
	s := filledState()
	s.ResumeUpload = UploadState{Status: UploadErrored, Error: "previous"}

	s, effect := BeginUpload(s, FieldResume)
	require.Equal(t, EffectExtract, effect.Kind)
	assert.Equal(t, FieldResume, effect.Field)
	assert.Equal(t, UploadState{Status: UploadParsing}, s.ResumeUpload)

	again, effect := BeginUpload(s, FieldResume)
	assert.Equal(t, EffectNone, effect.Kind)
	assert.Equal(t, s, again)

	// edits to a parsing field are ignored, the other field stays editable
	s, _ = SetField(s, FieldResume, "typed")
	assert.Equal(t, "Jane Doe\nSoftware Engineer", s.Resume)
	s, _ = SetField(s, FieldJobDescription, "Senior Go developer")
	assert.Equal(t, "Senior Go developer", s.JobDescription)

	s, _ = FinishUpload(s, FieldResume, "Extracted resume", nil)
	assert.Equal(t, "Extracted resume", s.Resume)
	assert.Equal(t, UploadState{Status: UploadIdle}, s.ResumeUpload)
}

func TestUploadFailureKeepsText(t *testing.T) {
	s, _ := BeginUpload(filledState(), FieldJobDescription)

	unsupported := errors.NewUnsupportedTypeError(errors.ErrCodeUnsupportedFileType,
		"Unsupported file type. Please upload a PDF, DOCX, or TXT file.", nil)
	s, _ = FinishUpload(s, FieldJobDescription, "", unsupported)

	assert.Equal(t, "Go developer", s.JobDescription)
	assert.Equal(t, UploadErrored, s.JobDescriptionUpload.Status)
	assert.Equal(t, "Unsupported file type. Please upload a PDF, DOCX, or TXT file.", s.JobDescriptionUpload.Error)

	// a failed upload on one field does not block submission
	assert.True(t, CanSubmit(s))
	_, effect := Submit(s)
	assert.Equal(t, EffectGenerate, effect.Kind)
}

func TestUploadFailureWithoutMessage(t *testing.T) {
	s, _ := BeginUpload(NewUIState(), FieldResume)
	s, _ = FinishUpload(s, FieldResume, "", fmt.Errorf(""))
	assert.Equal(t, "An unknown error occurred during parsing.", s.ResumeUpload.Error)
}

func TestUploadRefusedWhileInFlight(t *testing.T) {
	s, _ := Submit(filledState())
	next, effect := BeginUpload(s, FieldResume)
	assert.Equal(t, EffectNone, effect.Kind)
	assert.Equal(t, s, next)
}

func TestFormEditsIgnoredWhileInFlight(t *testing.T) {
	s, _ := Submit(filledState())

	next, _ := SetField(s, FieldResume, "changed")
	next, _ = SetTone(next, types.ToneFormal)
	next, _ = SetRoleLevel(next, types.RoleLevelExecutive)
	next, _ = SetCustomInstructions(next, "x")
	assert.Equal(t, s, next)
}

func TestSetEnumsDefaultWhenEmpty(t *testing.T) {
	s, _ := SetTone(NewUIState(), "")
	assert.Equal(t, types.ToneDefault, s.Tone)
	s, _ = SetRoleLevel(s, "")
	assert.Equal(t, types.RoleLevelDefault, s.RoleLevel)
}

func TestUnknownFieldIgnored(t *testing.T) {
	s := NewUIState()
	next, effect := SetField(s, Field("coverLetter"), "x")
	assert.Equal(t, s, next)
	_, effect = BeginUpload(s, Field("coverLetter"))
	assert.Equal(t, EffectNone, effect.Kind)
}
