package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerationRequest
		wantErr bool
	}{
		{
			name: "defaults",
			req:  GenerationRequest{ResumeText: "r", JobDescriptionText: "j", Tone: ToneDefault, RoleLevel: RoleLevelDefault},
		},
		{
			name: "empty enums are allowed",
			req:  GenerationRequest{ResumeText: "r", JobDescriptionText: "j"},
		},
		{
			name: "every tone and role",
			req:  GenerationRequest{ResumeText: "r", JobDescriptionText: "j", Tone: TonePersuasive, RoleLevel: RoleLevelSenior},
		},
		{
			name:    "unknown tone",
			req:     GenerationRequest{ResumeText: "r", JobDescriptionText: "j", Tone: "Sarcastic"},
			wantErr: true,
		},
		{
			name:    "unknown role",
			req:     GenerationRequest{ResumeText: "r", JobDescriptionText: "j", RoleLevel: "Intern"},
			wantErr: true,
		},
		{
			name:    "missing resume",
			req:     GenerationRequest{JobDescriptionText: "j"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasRequiredText(t *testing.T) {
	assert.False(t, (&GenerationRequest{ResumeText: " ", JobDescriptionText: "job"}).HasRequiredText())
	assert.False(t, (&GenerationRequest{ResumeText: "cv", JobDescriptionText: "\n\t"}).HasRequiredText())
	assert.True(t, (&GenerationRequest{ResumeText: "cv", JobDescriptionText: "job"}).HasRequiredText())
}

func TestNormalize(t *testing.T) {
	req := GenerationRequest{}
	req.Normalize()
	assert.Equal(t, ToneDefault, req.Tone)
	assert.Equal(t, RoleLevelDefault, req.RoleLevel)

	req = GenerationRequest{Tone: ToneFormal, RoleLevel: RoleLevelExecutive}
	req.Normalize()
	assert.Equal(t, ToneFormal, req.Tone)
	assert.Equal(t, RoleLevelExecutive, req.RoleLevel)
}

func TestExportRequestValidate(t *testing.T) {
	assert.NoError(t, (&ExportRequest{Title: "Tailored Resume", Format: "pdf"}).Validate())
	assert.Error(t, (&ExportRequest{Title: "Tailored Resume", Format: "rtf"}).Validate())
	assert.Error(t, (&ExportRequest{Format: "docx"}).Validate())
}

func TestFetchRequestValidate(t *testing.T) {
	assert.NoError(t, (&FetchRequest{URL: "https://jobs.example.com/123"}).Validate())
	assert.Error(t, (&FetchRequest{URL: "not a url"}).Validate())
}
