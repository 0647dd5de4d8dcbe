package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displaySessionInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                                   - Health check (?deep=true checks the model)")
	fmt.Println("  GET    /stats                                    - Server statistics")
	fmt.Println("  POST   /api/v1/generate                          - Generate resume and cover letter")
	fmt.Println("  POST   /api/v1/extract                           - Extract text from PDF, DOCX or TXT")
	fmt.Println("  POST   /api/v1/export                            - Export text as PDF or DOCX")
	fmt.Println("  POST   /api/v1/fetch                             - Fetch a job posting")
	fmt.Println("  POST   /api/v1/sessions                          - Create a session")
	fmt.Println("  GET    /api/v1/sessions/{id}                     - Session state and view")
	fmt.Println("  DELETE /api/v1/sessions/{id}                     - End a session")
	fmt.Println("  PUT    /api/v1/sessions/{id}/form                - Update form fields")
	fmt.Println("  POST   /api/v1/sessions/{id}/uploads/{field}     - Upload a document into a field")
	fmt.Println("  POST   /api/v1/sessions/{id}/fetch               - Fetch a job posting into the form")
	fmt.Println("  POST   /api/v1/sessions/{id}/submit              - Generate from the form")
	fmt.Println("  PUT    /api/v1/sessions/{id}/tab                 - Select the result tab")
	fmt.Println("  PUT    /api/v1/sessions/{id}/documents/{doc}     - Edit a generated document")
	fmt.Println("  POST   /api/v1/sessions/{id}/documents/{doc}/copy   - Copy a document")
	fmt.Println("  GET    /api/v1/sessions/{id}/documents/{doc}/export - Download a document")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /api/v1")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}

// displaySessionInfo shows session limits
func (s *Server) displaySessionInfo() {
	stats := s.Sessions.GetStats()
	fmt.Printf("Sessions: max %v, idle timeout %v\n", stats["max_sessions"], stats["ttl"])
}
