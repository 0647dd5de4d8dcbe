package presentation

import (
	"time"

	"tailorkit/internal/app"
	"tailorkit/internal/types"
)

const (
	loadingTitle    = "AI is working its magic..."
	loadingSubtitle = "Analyzing fit and crafting documents."

	placeholderTitle = "Your Results Will Appear Here"
	placeholderText  = "Once you provide your resume and a job description, your tailored documents and a detailed analysis will be generated."

	noKeywords  = "No keywords were extracted."
	noStrengths = "No specific strengths identified."
	noGaps      = "No potential gaps identified."

	uploadAccept = ".pdf,.docx,.txt"
)

// Section lists items with the text shown when there are none
type Section struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
	Empty string   `json:"empty,omitempty"`
}

// Analysis is the content of the Analysis tab
type Analysis struct {
	Keywords  Section `json:"keywords"`
	Alignment struct {
		Title     string  `json:"title"`
		Strengths Section `json:"strengths"`
		Gaps      Section `json:"gaps"`
	} `json:"alignment"`
}

// AnalysisView builds the analysis tab from result
func AnalysisView(result *types.GenerationResult) Analysis {
	var a Analysis
	a.Keywords = section("Keyword Analysis", result.KeywordAnalysis, noKeywords)
	a.Alignment.Title = "Resume & Job Alignment"
	a.Alignment.Strengths = section("Strengths", result.AlignmentAnalysis.Strengths, noStrengths)
	a.Alignment.Gaps = section("Potential Gaps", result.AlignmentAnalysis.Gaps, noGaps)
	return a
}

func section(title string, items []string, empty string) Section {
	s := Section{Title: title, Items: items}
	if len(items) == 0 {
		s.Items = []string{}
		s.Empty = empty
	}
	return s
}

// View is the complete screen model of a session
type View struct {
	Form   FormView   `json:"form"`
	Error  string     `json:"error,omitempty"`
	Output OutputView `json:"output"`
}

// FormView is the input section
type FormView struct {
	Resume             TextAreaView `json:"resume"`
	JobDescription     TextAreaView `json:"jobDescription"`
	CustomInstructions TextAreaView `json:"customInstructions"`
	Tone               SelectView   `json:"tone"`
	RoleLevel          SelectView   `json:"roleLevel"`
	SubmitLabel        string       `json:"submitLabel"`
	SubmitEnabled      bool         `json:"submitEnabled"`
}

// TextAreaView is a text input, optionally accepting file uploads
type TextAreaView struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Disabled    bool   `json:"disabled"`
	UploadLabel string `json:"uploadLabel,omitempty"`
	Accept      string `json:"accept,omitempty"`
	UploadError string `json:"uploadError,omitempty"`
}

// SelectView is a drop-down
type SelectView struct {
	Label    string   `json:"label"`
	Value    string   `json:"value"`
	Options  []string `json:"options"`
	Disabled bool     `json:"disabled"`
}

// OutputStatus is what the result area shows
type OutputStatus string

const (
	OutputLoading     OutputStatus = "loading"
	OutputPlaceholder OutputStatus = "placeholder"
	OutputResult      OutputStatus = "result"
)

// OutputView is the result area
type OutputView struct {
	Status    OutputStatus   `json:"status"`
	Title     string         `json:"title,omitempty"`
	Text      string         `json:"text,omitempty"`
	ActiveTab Tab            `json:"activeTab,omitempty"`
	Documents []DocumentView `json:"documents,omitempty"`
	Analysis  *Analysis      `json:"analysis,omitempty"`
}

// DocumentView is an editable output card
type DocumentView struct {
	Kind      DocKind `json:"kind"`
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	CopyLabel string  `json:"copyLabel"`
	CanExport bool    `json:"canExport"`
}

// View syncs the workspace with state and builds the screen model at now
func (w *Workspace) View(state app.UIState, now time.Time) View {
	w.Sync(state.Result, state.Generation)

	return View{
		Form:   formView(state),
		Error:  state.Error,
		Output: w.outputView(state, now),
	}
}

func formView(state app.UIState) FormView {
	submitLabel := "Generate My Documents"
	if state.InFlight {
		submitLabel = "Generating..."
	}

	tones := make([]string, len(types.Tones))
	for i, t := range types.Tones {
		tones[i] = string(t)
	}
	levels := make([]string, len(types.RoleLevels))
	for i, l := range types.RoleLevels {
		levels[i] = string(l)
	}

	return FormView{
		Resume:         uploadArea("Your Resume / Profile", state.Resume, state.InFlight, state.ResumeUpload),
		JobDescription: uploadArea("Target Job Description", state.JobDescription, state.InFlight, state.JobDescriptionUpload),
		CustomInstructions: TextAreaView{
			Label:    "Custom Instructions / Keywords (Optional)",
			Value:    state.CustomInstructions,
			Disabled: state.InFlight,
		},
		Tone:          SelectView{Label: "Cover Letter Tone", Value: string(state.Tone), Options: tones, Disabled: state.InFlight},
		RoleLevel:     SelectView{Label: "Role Level", Value: string(state.RoleLevel), Options: levels, Disabled: state.InFlight},
		SubmitLabel:   submitLabel,
		SubmitEnabled: app.CanSubmit(state),
	}
}

func uploadArea(label, value string, inFlight bool, upload app.UploadState) TextAreaView {
	parsing := upload.Status == app.UploadParsing
	uploadLabel := "Upload File"
	if parsing {
		uploadLabel = "Parsing..."
	}
	return TextAreaView{
		Label:       label,
		Value:       value,
		Disabled:    inFlight || parsing,
		UploadLabel: uploadLabel,
		Accept:      uploadAccept,
		UploadError: upload.Error,
	}
}

func (w *Workspace) outputView(state app.UIState, now time.Time) OutputView {
	if state.InFlight {
		return OutputView{Status: OutputLoading, Title: loadingTitle, Text: loadingSubtitle}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result == nil {
		return OutputView{Status: OutputPlaceholder, Title: placeholderTitle, Text: placeholderText}
	}

	out := OutputView{Status: OutputResult, ActiveTab: w.tab}
	if w.tab == TabAnalysis {
		analysis := AnalysisView(w.result)
		out.Analysis = &analysis
		return out
	}
	for _, kind := range DocKinds {
		text := w.docs[kind]
		out.Documents = append(out.Documents, DocumentView{
			Kind:      kind,
			Title:     kind.Title(),
			Text:      text,
			CopyLabel: w.copyLabel(kind, now),
			CanExport: text != "",
		})
	}
	return out
}
