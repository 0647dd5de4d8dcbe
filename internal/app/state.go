// Package app holds the request lifecycle of a single user: form values,
// upload sub-states and the generation state machine. Transitions are pure
// functions over UIState; Controller runs their effects.
package app

import (
	"strings"

	"tailorkit/internal/errors"
	"tailorkit/internal/types"
)

// Field names an input text area
type Field string

const (
	FieldResume         Field = "resume"
	FieldJobDescription Field = "jobDescription"
)

// Valid reports whether f names a known field
func (f Field) Valid() bool {
	return f == FieldResume || f == FieldJobDescription
}

// UploadStatus is the per-field file extraction state
type UploadStatus string

const (
	UploadIdle    UploadStatus = "idle"
	UploadParsing UploadStatus = "parsing"
	UploadErrored UploadStatus = "errored"
)

// UploadState tracks a field's most recent upload
type UploadState struct {
	Status UploadStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

const (
	MsgMissingInput       = "Please provide both your resume/profile and the job description."
	MsgErrorPrefix        = "An error occurred: "
	MsgUnknownError       = "An unknown error occurred."
	MsgUnknownParseFailed = "An unknown error occurred during parsing."
)

// UIState is the complete application state of one user
type UIState struct {
	Resume             string          `json:"resume"`
	JobDescription     string          `json:"jobDescription"`
	Tone               types.Tone      `json:"tone"`
	RoleLevel          types.RoleLevel `json:"roleLevel"`
	CustomInstructions string          `json:"customInstructions"`

	Result   *types.GenerationResult `json:"result,omitempty"`
	InFlight bool                    `json:"inFlight"`
	Error    string                  `json:"error,omitempty"`

	// Generation counts successful results so views can detect a new one
	Generation uint64 `json:"generation"`

	ResumeUpload         UploadState `json:"resumeUpload"`
	JobDescriptionUpload UploadState `json:"jobDescriptionUpload"`
}

// NewUIState returns the initial state
func NewUIState() UIState {
	return UIState{
		Tone:                 types.ToneDefault,
		RoleLevel:            types.RoleLevelDefault,
		ResumeUpload:         UploadState{Status: UploadIdle},
		JobDescriptionUpload: UploadState{Status: UploadIdle},
	}
}

// Text returns the current text of f
func (s UIState) Text(f Field) string {
	if f == FieldJobDescription {
		return s.JobDescription
	}
	return s.Resume
}

// Upload returns the upload sub-state of f
func (s UIState) Upload(f Field) UploadState {
	if f == FieldJobDescription {
		return s.JobDescriptionUpload
	}
	return s.ResumeUpload
}

func (s *UIState) setText(f Field, text string) {
	if f == FieldJobDescription {
		s.JobDescription = text
	} else {
		s.Resume = text
	}
}

func (s *UIState) setUpload(f Field, u UploadState) {
	if f == FieldJobDescription {
		s.JobDescriptionUpload = u
	} else {
		s.ResumeUpload = u
	}
}

// Parsing reports whether either field is extracting a file
func (s UIState) Parsing() bool {
	return s.ResumeUpload.Status == UploadParsing || s.JobDescriptionUpload.Status == UploadParsing
}

// EffectKind names the side effect a transition asks for
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectGenerate
	EffectExtract
)

// Effect is the side effect requested by a transition
type Effect struct {
	Kind    EffectKind
	Request *types.GenerationRequest
	Field   Field
}

var noEffect = Effect{Kind: EffectNone}

// CanSubmit is false while a generation is in flight or a field is parsing
func CanSubmit(s UIState) bool {
	return !s.InFlight && !s.Parsing()
}

// SetField replaces the text of f. Edits are ignored while a generation is
// in flight or while f is extracting a file.
func SetField(s UIState, f Field, text string) (UIState, Effect) {
	if !f.Valid() || s.InFlight || s.Upload(f).Status == UploadParsing {
		return s, noEffect
	}
	s.setText(f, text)
	return s, noEffect
}

// SetTone selects the cover letter tone; empty means Default
func SetTone(s UIState, tone types.Tone) (UIState, Effect) {
	if s.InFlight {
		return s, noEffect
	}
	if tone == "" {
		tone = types.ToneDefault
	}
	s.Tone = tone
	return s, noEffect
}

// SetRoleLevel selects the target role level; empty means Default
func SetRoleLevel(s UIState, level types.RoleLevel) (UIState, Effect) {
	if s.InFlight {
		return s, noEffect
	}
	if level == "" {
		level = types.RoleLevelDefault
	}
	s.RoleLevel = level
	return s, noEffect
}

// SetCustomInstructions replaces the optional instructions
func SetCustomInstructions(s UIState, instructions string) (UIState, Effect) {
	if s.InFlight {
		return s, noEffect
	}
	s.CustomInstructions = instructions
	return s, noEffect
}

// Submit validates the form and starts a generation
func Submit(s UIState) (UIState, Effect) {
	if !CanSubmit(s) {
		return s, noEffect
	}

	if strings.TrimSpace(s.Resume) == "" || strings.TrimSpace(s.JobDescription) == "" {
		s.Error = MsgMissingInput
		return s, noEffect
	}

	s.Error = ""
	s.Result = nil
	s.InFlight = true

	req := &types.GenerationRequest{
		ResumeText:         s.Resume,
		JobDescriptionText: s.JobDescription,
		Tone:               s.Tone,
		RoleLevel:          s.RoleLevel,
		CustomInstructions: s.CustomInstructions,
	}
	req.Normalize()

	return s, Effect{Kind: EffectGenerate, Request: req}
}

// Resolve completes an in-flight generation. Calls without a generation in
// flight are ignored.
func Resolve(s UIState, result *types.GenerationResult, err error) (UIState, Effect) {
	if !s.InFlight {
		return s, noEffect
	}
	s.InFlight = false

	if err == nil && result != nil {
		s.Result = result
		s.Error = ""
		s.Generation++
		return s, noEffect
	}

	s.Result = nil
	if msg := failureMessage(err); msg != "" {
		s.Error = MsgErrorPrefix + msg
	} else {
		s.Error = MsgUnknownError
	}
	return s, noEffect
}

// BeginUpload marks f as parsing and requests an extraction. It is refused
// while a generation is in flight or f is already parsing.
func BeginUpload(s UIState, f Field) (UIState, Effect) {
	if !f.Valid() || s.InFlight || s.Upload(f).Status == UploadParsing {
		return s, noEffect
	}
	s.setUpload(f, UploadState{Status: UploadParsing})
	return s, Effect{Kind: EffectExtract, Field: f}
}

// FinishUpload stores the extracted text, or the failure message leaving the
// field text untouched
func FinishUpload(s UIState, f Field, text string, err error) (UIState, Effect) {
	if !f.Valid() || s.Upload(f).Status != UploadParsing {
		return s, noEffect
	}

	if err != nil {
		msg := failureMessage(err)
		if msg == "" {
			msg = MsgUnknownParseFailed
		}
		s.setUpload(f, UploadState{Status: UploadErrored, Error: msg})
		return s, noEffect
	}

	s.setText(f, text)
	s.setUpload(f, UploadState{Status: UploadIdle})
	return s, noEffect
}

// failureMessage prefers the user-facing message of application errors
func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := errors.UserMessage(err); msg != "" {
		return msg
	}
	if _, ok := errors.AsAppError(err); ok {
		return ""
	}
	return err.Error()
}
