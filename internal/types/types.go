package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tone is the requested cover letter tone
type Tone string

const (
	ToneDefault    Tone = "Default"
	ToneFormal     Tone = "Formal"
	ToneConfident  Tone = "Confident"
	ToneFriendly   Tone = "Friendly"
	TonePersuasive Tone = "Persuasive"
)

// Tones lists the selectable tones in display order
var Tones = []Tone{ToneDefault, ToneFormal, ToneConfident, ToneFriendly, TonePersuasive}

// RoleLevel is the seniority of the target role
type RoleLevel string

const (
	RoleLevelDefault   RoleLevel = "Default"
	RoleLevelEntry     RoleLevel = "Entry-level"
	RoleLevelMid       RoleLevel = "Mid-level"
	RoleLevelSenior    RoleLevel = "Senior-level"
	RoleLevelExecutive RoleLevel = "Executive"
)

// RoleLevels lists the selectable role levels in display order
var RoleLevels = []RoleLevel{RoleLevelDefault, RoleLevelEntry, RoleLevelMid, RoleLevelSenior, RoleLevelExecutive}

// GenerationRequest holds the five inputs of a single generation call
type GenerationRequest struct {
	ResumeText         string    `json:"resumeText" validate:"required"`
	JobDescriptionText string    `json:"jobDescriptionText" validate:"required"`
	Tone               Tone      `json:"tone" validate:"omitempty,oneof=Default Formal Confident Friendly Persuasive"`
	RoleLevel          RoleLevel `json:"roleLevel" validate:"omitempty,oneof=Default Entry-level Mid-level Senior-level Executive"`
	CustomInstructions string    `json:"customInstructions,omitempty"`
}

var validate = validator.New()

// Validate checks enum membership and field presence
func (r *GenerationRequest) Validate() error {
	return validate.Struct(r)
}

// Normalize fills empty tone and role level with their Default sentinel
func (r *GenerationRequest) Normalize() {
	if r.Tone == "" {
		r.Tone = ToneDefault
	}
	if r.RoleLevel == "" {
		r.RoleLevel = RoleLevelDefault
	}
}

// HasRequiredText reports whether both resume and job description carry
// non-whitespace text
func (r *GenerationRequest) HasRequiredText() bool {
	return strings.TrimSpace(r.ResumeText) != "" && strings.TrimSpace(r.JobDescriptionText) != ""
}

// AlignmentAnalysis lists strengths and gaps between resume and job
type AlignmentAnalysis struct {
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
}

// GenerationResult is the validated output of a generation call
type GenerationResult struct {
	TailoredResume    string            `json:"tailoredResume"`
	CoverLetter       string            `json:"coverLetter"`
	KeywordAnalysis   []string          `json:"keywordAnalysis"`
	AlignmentAnalysis AlignmentAnalysis `json:"alignmentAnalysis"`
}

// ExtractResponse is returned by text extraction endpoints
type ExtractResponse struct {
	FileName string `json:"fileName,omitempty"`
	Text     string `json:"text"`
}

// FetchRequest asks for a job description to be fetched from a URL
type FetchRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// Validate checks the URL field
func (r *FetchRequest) Validate() error {
	return validate.Struct(r)
}

// ExportRequest asks for a document to be exported
type ExportRequest struct {
	Title  string `json:"title" validate:"required"`
	Text   string `json:"text"`
	Format string `json:"format" validate:"required,oneof=pdf docx"`
}

// Validate checks the export request fields
func (r *ExportRequest) Validate() error {
	return validate.Struct(r)
}
