package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"tailorkit/internal/app"
	"tailorkit/internal/errors"
	"tailorkit/internal/export"
	"tailorkit/internal/extract"
	"tailorkit/internal/observability"
	"tailorkit/internal/types"
)

// FetchResponse is the text fetched from a job posting URL
type FetchResponse struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

const (
	uploadFormField = "file"
	msgFileRequired = "A file is required in the \"file\" form field."
)

// generateHandler runs one generation without a session
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.generate")
	defer span.End()

	var req types.GenerationRequest
	if err := parseJSONRequest(r, &req); err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	if err := validateGenerationRequest(&req); err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Int("request.job_length", len(req.JobDescriptionText)),
		attribute.String("request.tone", string(req.Tone)),
		attribute.String("request.role_level", string(req.RoleLevel)),
	)

	result, err := s.deps.Generator.Generate(ctx, &req)
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("response.keywords", len(result.KeywordAnalysis)),
	)
	writeJSON(w, http.StatusOK, result)
}

// validateGenerationRequest applies the submit rules of the form to a raw
// request: both texts present, enums known
func validateGenerationRequest(req *types.GenerationRequest) error {
	req.Normalize()
	if !req.HasRequiredText() {
		return errors.NewValidationError(errors.ErrCodeMissingInput, app.MsgMissingInput, nil)
	}
	if err := req.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid tone or role level.", err)
	}
	return nil
}

// extractHandler returns the text of an uploaded document
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.extract")
	defer span.End()

	upload, err := s.readUpload(r)
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	text, err := s.deps.Extractor.Extract(ctx, upload.name, upload.mimeType, upload.data)
	s.recordExtraction(ctx, upload, text, err)
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.ExtractResponse{FileName: upload.name, Text: text})
}

// exportHandler renders posted text as a PDF or DOCX download
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.export")
	defer span.End()

	var req types.ExportRequest
	if err := parseJSONRequest(r, &req); err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err == nil && strings.TrimSpace(req.Title) == "" {
		err = errors.NewValidationError(errors.ErrCodeInvalidRequest, "A title is required.", nil)
	}
	if err == nil && req.Text == "" {
		err = errors.NewValidationError(errors.ErrCodeInvalidRequest, "There is no text to export.", nil)
	}
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	doc, err := s.deps.Exporter.Export(req.Title, req.Text, format)
	s.recordExport(ctx, format, err)
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	writeDocument(w, doc)
}

// fetchHandler fetches a job posting and returns its main text
func (s *Server) fetchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.fetch")
	defer span.End()

	var req types.FetchRequest
	if err := parseJSONRequest(r, &req); err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}
	if err := validateFetchRequest(&req); err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	if s.deps.Fetcher == nil {
		err := errors.NewConfigError(errors.ErrCodeInvalidConfig, "Fetching job descriptions is not enabled.", nil)
		s.writeAppError(w, r, err)
		return
	}

	text, err := s.deps.Fetcher.Fetch(ctx, req.URL)
	s.recordFetch(ctx, text, err)
	if err != nil {
		recordSpanError(span, err)
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FetchResponse{URL: req.URL, Text: text})
}

func validateFetchRequest(req *types.FetchRequest) error {
	req.URL = strings.TrimSpace(req.URL)
	if err := req.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "A valid job posting URL is required.", err)
	}
	return nil
}

type uploadedFile struct {
	name     string
	mimeType string
	data     []byte
}

// readUpload reads the "file" part of a multipart request, enforcing the
// upload size limit
func (s *Server) readUpload(r *http.Request) (*uploadedFile, error) {
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, s.fileTooLarge(err)
		}
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Expected a multipart/form-data upload.", err)
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeMissingInput, msgFileRequired, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if s.MaxFileSize > 0 {
		reader = io.LimitReader(file, s.MaxFileSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "Error reading file.", err)
	}
	if s.MaxFileSize > 0 && int64(len(data)) > s.MaxFileSize {
		return nil, s.fileTooLarge(nil)
	}

	return &uploadedFile{
		name:     header.Filename,
		mimeType: header.Header.Get("Content-Type"),
		data:     data,
	}, nil
}

func (s *Server) fileTooLarge(cause error) error {
	return errors.NewValidationError(errors.ErrCodeFileTooLarge,
		fmt.Sprintf("File is too large. The maximum size is %d bytes.", s.MaxFileSize), cause)
}

func (s *Server) recordExtraction(ctx context.Context, u *uploadedFile, text string, err error) {
	kind, _ := extract.DetectKind(u.name, u.mimeType)
	metrics := s.om.GetMetrics()
	metrics.RecordBusinessMetric(ctx, observability.MetricDocumentExtracted, err == nil, s.om,
		attribute.String("kind", string(kind)))
	if err == nil {
		metrics.RecordContentSize(ctx, "extracted_"+string(kind), len(text), s.om)
	}
}

func (s *Server) recordExport(ctx context.Context, format export.Format, err error) {
	s.om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricDocumentExported, err == nil, s.om,
		attribute.String("format", string(format)))
}

func (s *Server) recordFetch(ctx context.Context, text string, err error) {
	metrics := s.om.GetMetrics()
	metrics.RecordBusinessMetric(ctx, observability.MetricJobDescriptionFetched, err == nil, s.om)
	if err == nil {
		metrics.RecordContentSize(ctx, "fetched_job_description", len(text), s.om)
	}
}
