package server

import (
	"net/http"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"tailorkit/internal/app"
	"tailorkit/internal/errors"
	"tailorkit/internal/export"
	"tailorkit/internal/presentation"
	"tailorkit/internal/types"
)

// SessionResponse carries the state of a session and the screen model
// derived from it
type SessionResponse struct {
	ID    string            `json:"id"`
	State app.UIState       `json:"state"`
	View  presentation.View `json:"view"`
}

// FormUpdate changes the fields that are set and leaves the rest alone
type FormUpdate struct {
	Resume             *string          `json:"resume,omitempty"`
	JobDescription     *string          `json:"jobDescription,omitempty"`
	Tone               *types.Tone      `json:"tone,omitempty"`
	RoleLevel          *types.RoleLevel `json:"roleLevel,omitempty"`
	CustomInstructions *string          `json:"customInstructions,omitempty"`
}

// Validate rejects unknown tone and role level values
func (u *FormUpdate) Validate() error {
	if u.Tone != nil && *u.Tone != "" && !slices.Contains(types.Tones, *u.Tone) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid tone.", nil).
			WithContext("tone", *u.Tone)
	}
	if u.RoleLevel != nil && *u.RoleLevel != "" && !slices.Contains(types.RoleLevels, *u.RoleLevel) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid role level.", nil).
			WithContext("role_level", *u.RoleLevel)
	}
	return nil
}

// TabRequest selects a result tab
type TabRequest struct {
	Tab presentation.Tab `json:"tab"`
}

// DocumentEdit replaces the local text of a generated document
type DocumentEdit struct {
	Text string `json:"text"`
}

// CopyResponse is the text to place on the clipboard
type CopyResponse struct {
	Text      string `json:"text"`
	CopyLabel string `json:"copyLabel"`
}

func (s *Server) sessionResponse(session *Session) SessionResponse {
	state := session.Controller.State()
	return SessionResponse{
		ID:    session.ID,
		State: state,
		View:  session.Workspace.View(state, time.Now()),
	}
}

// lookupSession resolves the {id} path value, writing a 404 when unknown
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session, err := s.Sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return nil, false
	}
	return session, true
}

// syncedWorkspace brings the workspace up to date with the controller
// result before a workspace operation
func syncedWorkspace(session *Session) *presentation.Workspace {
	state := session.Controller.State()
	session.Workspace.Sync(state.Result, state.Generation)
	return session.Workspace
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.Sessions.Create(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionResponse(session))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !s.Sessions.Delete(r.PathValue("id")) {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeSessionNotFound, "Session not found or expired.", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateFormHandler applies a partial form update. Changes are ignored
// while a generation is in flight, as in the form itself.
func (s *Server) updateFormHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var update FormUpdate
	if err := parseJSONRequest(r, &update); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := update.Validate(); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	c := session.Controller
	if update.Resume != nil {
		c.SetField(app.FieldResume, *update.Resume)
	}
	if update.JobDescription != nil {
		c.SetField(app.FieldJobDescription, *update.JobDescription)
	}
	if update.Tone != nil {
		c.SetTone(*update.Tone)
	}
	if update.RoleLevel != nil {
		c.SetRoleLevel(*update.RoleLevel)
	}
	if update.CustomInstructions != nil {
		c.SetCustomInstructions(*update.CustomInstructions)
	}

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// uploadHandler extracts an uploaded file into a form field. Extraction
// failures land in the field's upload state, not in the HTTP status.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.session.upload")
	defer span.End()

	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	field := app.Field(r.PathValue("field"))
	if !field.Valid() {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Unknown field.", nil).
			WithContext("field", string(field)))
		return
	}

	file, err := s.readUpload(r)
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("field", string(field)), attribute.Int("upload.bytes", len(file.data)))

	state := session.Controller.Upload(ctx, field, file.name, file.mimeType, file.data)
	if u := state.Upload(field); u.Status == app.UploadErrored {
		s.recordExtraction(ctx, file, "", errors.NewValidationError(errors.ErrCodeInvalidRequest, u.Error, nil))
	} else {
		s.recordExtraction(ctx, file, state.Text(field), nil)
	}

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// sessionFetchHandler fetches a job posting into the job description field
func (s *Server) sessionFetchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.session.fetch")
	defer span.End()

	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req types.FetchRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := validateFetchRequest(&req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	state := session.Controller.FetchJobDescription(ctx, req.URL)
	upload := state.Upload(app.FieldJobDescription)
	if upload.Status == app.UploadErrored {
		s.recordFetch(ctx, "", errors.NewNetworkError(errors.ErrCodeFetchFailed, upload.Error, nil))
	} else {
		s.recordFetch(ctx, state.JobDescription, nil)
	}

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// submitHandler runs the form's submit. It blocks until the generation
// resolves; the outcome is in the returned state.
func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.session.submit")
	defer span.End()

	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	state := session.Controller.Submit(ctx)
	span.SetAttributes(
		attribute.Bool("success", state.Result != nil && state.Error == ""),
		attribute.Int64("generation", int64(state.Generation)))

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

func (s *Server) selectTabHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req TabRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := syncedWorkspace(session).SelectTab(req.Tab); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// editDocumentHandler stores a local edit of a generated document
func (s *Server) editDocumentHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req DocumentEdit
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	doc := presentation.DocKind(r.PathValue("doc"))
	if err := syncedWorkspace(session).Edit(doc, req.Text); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// copyDocumentHandler returns the edited text of a document for the clipboard
func (s *Server) copyDocumentHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	doc := presentation.DocKind(r.PathValue("doc"))
	if !doc.Valid() {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Unknown document.", nil).
			WithContext("document", string(doc)))
		return
	}

	now := time.Now()
	ws := syncedWorkspace(session)
	text, copied := ws.Copy(doc, now)
	if !copied {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "There is no text to copy.", nil))
		return
	}

	writeJSON(w, http.StatusOK, CopyResponse{Text: text, CopyLabel: ws.CopyLabel(doc, now)})
}

// exportDocumentHandler downloads the edited text of a document
func (s *Server) exportDocumentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.session.export")
	defer span.End()

	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	doc := presentation.DocKind(r.PathValue("doc"))
	document, err := syncedWorkspace(session).Export(doc, format)
	s.recordExport(ctx, format, err)
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	writeDocument(w, document)
}
