// Package presentation models what a user sees of a session: the form, the
// result tabs and the locally editable copies of the generated documents.
package presentation

import (
	"fmt"
	"sync"
	"time"

	"tailorkit/internal/errors"
	"tailorkit/internal/export"
	"tailorkit/internal/types"
)

// Tab is a result tab
type Tab string

const (
	TabDocuments Tab = "documents"
	TabAnalysis  Tab = "analysis"
)

// DocKind names a generated document
type DocKind string

const (
	DocResume      DocKind = "resume"
	DocCoverLetter DocKind = "coverLetter"
)

// DocKinds lists the documents in display order
var DocKinds = []DocKind{DocResume, DocCoverLetter}

// Title returns the card title, which also names exported files
func (d DocKind) Title() string {
	if d == DocCoverLetter {
		return "Personalized Cover Letter"
	}
	return "Tailored Resume"
}

// Valid reports whether d names a known document
func (d DocKind) Valid() bool {
	return d == DocResume || d == DocCoverLetter
}

const (
	copiedFor      = 2 * time.Second
	labelCopy      = "Copy"
	labelCopied    = "Copied!"
	msgNothingToDo = "There is no text to export."
)

// Exporter renders document text for download
type Exporter interface {
	Export(title, text string, format export.Format) (*export.Document, error)
}

// Workspace holds the view-local state of the result area. Edits stay local:
// they never reach the controller's result.
type Workspace struct {
	mu sync.Mutex

	result     *types.GenerationResult
	generation uint64
	tab        Tab
	docs       map[DocKind]string
	copiedAt   map[DocKind]time.Time

	exporter Exporter
	logger   *errors.Logger
}

// NewWorkspace creates an empty workspace
func NewWorkspace(exporter Exporter, logger *errors.Logger) *Workspace {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Workspace{
		tab:      TabDocuments,
		docs:     make(map[DocKind]string),
		copiedAt: make(map[DocKind]time.Time),
		exporter: exporter,
		logger:   logger,
	}
}

// Sync follows the controller's result. A result from a new generation
// resets the active tab to Documents and reseeds both editable copies.
// It reports whether the workspace was reseeded.
func (w *Workspace) Sync(result *types.GenerationResult, generation uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if result == nil {
		w.result = nil
		clear(w.docs)
		clear(w.copiedAt)
		return false
	}
	if w.result != nil && generation == w.generation {
		return false
	}

	w.result = result
	w.generation = generation
	w.tab = TabDocuments
	w.docs[DocResume] = result.TailoredResume
	w.docs[DocCoverLetter] = result.CoverLetter
	clear(w.copiedAt)
	return true
}

// HasResult reports whether a result is shown
func (w *Workspace) HasResult() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result != nil
}

// Edit replaces the local copy of doc
func (w *Workspace) Edit(doc DocKind, text string) error {
	if !doc.Valid() {
		return unknownDocError(doc)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "There is no generated document to edit.", nil)
	}
	w.docs[doc] = text
	return nil
}

// Text returns the current local copy of doc
func (w *Workspace) Text(doc DocKind) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.docs[doc]
}

// SelectTab switches the active tab
func (w *Workspace) SelectTab(tab Tab) error {
	if tab != TabDocuments && tab != TabAnalysis {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, fmt.Sprintf("Unknown tab %q.", tab), nil)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tab = tab
	return nil
}

// ActiveTab returns the selected tab
func (w *Workspace) ActiveTab() Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tab
}

// Copy returns the edited text of doc for the clipboard and shows the
// copied confirmation until now+2s. Empty text is ignored.
func (w *Workspace) Copy(doc DocKind, now time.Time) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	text := w.docs[doc]
	if text == "" {
		return "", false
	}
	w.copiedAt[doc] = now
	return text, true
}

// CopyLabel returns the copy button label at now
func (w *Workspace) CopyLabel(doc DocKind, now time.Time) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copyLabel(doc, now)
}

func (w *Workspace) copyLabel(doc DocKind, now time.Time) string {
	at, ok := w.copiedAt[doc]
	if ok && now.Before(at.Add(copiedFor)) {
		return labelCopied
	}
	return labelCopy
}

// Export renders the edited text of doc. The error's user message is the
// alert to show.
func (w *Workspace) Export(doc DocKind, format export.Format) (*export.Document, error) {
	if !doc.Valid() {
		return nil, unknownDocError(doc)
	}
	text := w.Text(doc)
	if text == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, msgNothingToDo, nil)
	}

	document, err := w.exporter.Export(doc.Title(), text, format)
	if err != nil {
		w.logger.LogError(err, "Failed to export document", "document", doc, "format", format)
		return nil, err
	}
	return document, nil
}

// Analysis returns the analysis tab of the current result
func (w *Workspace) Analysis() *Analysis {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return nil
	}
	analysis := AnalysisView(w.result)
	return &analysis
}

func unknownDocError(doc DocKind) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, fmt.Sprintf("Unknown document %q.", doc), nil)
}
