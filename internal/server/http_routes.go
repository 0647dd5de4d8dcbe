package server

import "net/http"

const (
	apiPrefix = "/api/v1"

	// room for multipart boundaries and form fields around the file
	multipartOverhead = 1 << 20
)

// Handler returns the instrumented HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(s.setupRoutes())
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware()
	jsonLimit := s.requestSizeLimitMiddleware(s.MaxRequestSize)
	uploadLimit := s.requestSizeLimitMiddleware(s.uploadLimit())

	protect := func(limit func(http.HandlerFunc) http.HandlerFunc, h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(limit(h)))
	}
	api := func(method, path string) string {
		return method + " " + apiPrefix + path
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	// stateless
	mux.HandleFunc(api("POST", "/generate"), protect(jsonLimit, s.generateHandler))
	mux.HandleFunc(api("POST", "/extract"), protect(uploadLimit, s.extractHandler))
	mux.HandleFunc(api("POST", "/export"), protect(jsonLimit, s.exportHandler))
	mux.HandleFunc(api("POST", "/fetch"), protect(jsonLimit, s.fetchHandler))

	// sessions
	mux.HandleFunc(api("POST", "/sessions"), protect(jsonLimit, s.createSessionHandler))
	mux.HandleFunc(api("GET", "/sessions/{id}"), protect(jsonLimit, s.getSessionHandler))
	mux.HandleFunc(api("DELETE", "/sessions/{id}"), protect(jsonLimit, s.deleteSessionHandler))
	mux.HandleFunc(api("PUT", "/sessions/{id}/form"), protect(jsonLimit, s.updateFormHandler))
	mux.HandleFunc(api("POST", "/sessions/{id}/uploads/{field}"), protect(uploadLimit, s.uploadHandler))
	mux.HandleFunc(api("POST", "/sessions/{id}/fetch"), protect(jsonLimit, s.sessionFetchHandler))
	mux.HandleFunc(api("POST", "/sessions/{id}/submit"), protect(jsonLimit, s.submitHandler))
	mux.HandleFunc(api("PUT", "/sessions/{id}/tab"), protect(jsonLimit, s.selectTabHandler))
	mux.HandleFunc(api("PUT", "/sessions/{id}/documents/{doc}"), protect(jsonLimit, s.editDocumentHandler))
	mux.HandleFunc(api("POST", "/sessions/{id}/documents/{doc}/copy"), protect(jsonLimit, s.copyDocumentHandler))
	mux.HandleFunc(api("GET", "/sessions/{id}/documents/{doc}/export"), protect(jsonLimit, s.exportDocumentHandler))

	return mux
}

func (s *Server) uploadLimit() int64 {
	if s.MaxFileSize <= 0 {
		return s.MaxRequestSize
	}
	return s.MaxFileSize + multipartOverhead
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(limit int64) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
