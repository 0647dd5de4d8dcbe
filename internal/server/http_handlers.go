package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"tailorkit/internal/errors"
	"tailorkit/internal/export"
)

const (
	tracerName                = "tailorkit.api"
	defaultHealthCheckTimeout = 10 * time.Second
	msgInternalError          = "Internal server error"
)

// healthCheckTimeout returns the configured model check timeout
func (s *Server) healthCheckTimeout() time.Duration {
	hc := s.AppConfig.Observability.HealthCheck
	if hc.AIModelCheckTimeout > 0 {
		return hc.AIModelCheckTimeout
	}
	if hc.Timeout > 0 {
		return hc.Timeout
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports service health. With ?deep=true it also checks
// that the configured model is reachable.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":   "healthy",
		"service":  "tailorkit",
		"version":  s.Version,
		"sessions": s.Sessions.Len(),
	}
	healthy := true

	if backend := s.deps.Backend; backend != nil {
		response["credential_configured"] = backend.HasAPIKey()

		breakers := backend.GetCircuitBreakerStats()
		response["circuit_breakers"] = breakers
		if ok, exists := breakers["overall_healthy"].(bool); exists && !ok {
			healthy = false
		}

		if deep, _ := strconv.ParseBool(r.URL.Query().Get("deep")); deep {
			ctx, cancel := context.WithTimeout(r.Context(), s.healthCheckTimeout())
			defer cancel()

			model := backend.GetModelInfo(ctx)
			response["ai_model"] = model
			if model == nil || !model.Available {
				healthy = false
			}
		}
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkCertificateHealth reports the served certificate, or nil without TLS
func (s *Server) checkCertificateHealth() map[string]any {
	s.mu.Lock()
	certs, watcher := s.certs, s.certWatcher
	s.mu.Unlock()
	if certs == nil {
		return nil
	}

	certStatus := certs.Status(time.Now())
	autoReload := map[string]any{"enabled": watcher != nil}
	if watcher != nil {
		autoReload["running"] = watcher.IsRunning()
		autoReload["watched_files"] = watcher.Files()
	}
	certStatus["auto_reload"] = autoReload
	return certStatus
}

// statsHandler provides server statistics
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "tailorkit",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_file_size_bytes":    s.MaxFileSize,
		},
		"sessions": s.Sessions.GetStats(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	s.mu.Lock()
	promptWatcher, secretWatcher := s.promptWatcher, s.secretWatcher
	s.mu.Unlock()

	if promptWatcher != nil {
		response["prompt_reload"] = map[string]any{
			"running":       promptWatcher.IsRunning(),
			"watched_files": promptWatcher.Files(),
		}
	}
	if secretWatcher != nil {
		response["credential_rotation"] = secretWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Content-Type must be application/json.", err)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeFileTooLarge,
				fmt.Sprintf("Request body too large (limit is %d bytes).", maxBytesErr.Limit), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read request body.", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Request body is not valid JSON.", err)
	}

	return nil
}

// statusForError maps an application error to its HTTP status
func statusForError(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSessionLimit:
		return http.StatusServiceUnavailable
	case errors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeIO:
		return http.StatusBadRequest
	case errors.ErrorTypeUnsupportedType:
		return http.StatusUnsupportedMediaType
	case errors.ErrorTypeCorruptDocument:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeConfig:
		return http.StatusServiceUnavailable
	case errors.ErrorTypeAI, errors.ErrorTypeResponseShape, errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError writes err as an ErrorResponse carrying its code and user
// message. Server-side failures are logged.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)

	code, message := "INTERNAL_ERROR", msgInternalError
	if appErr, ok := errors.AsAppError(err); ok {
		code, message = appErr.Code, appErr.Message
	}

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "endpoint", r.URL.Path, "status", status)
	} else {
		s.Logger.Debug("Request rejected", "endpoint", r.URL.Path, "status", status, "code", code)
	}

	writeErrorResponse(w, code, message, status)
}

// recordSpanError marks span as failed with the error type of err
func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if appErr, ok := errors.AsAppError(err); ok {
		span.SetAttributes(
			attribute.String("error.type", string(appErr.Type)),
			attribute.String("error.code", appErr.Code))
	}
}

// writeJSON writes v with status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeDocument sends an exported document as a download
func writeDocument(w http.ResponseWriter, doc *export.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		log.Printf("Failed to write document: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
