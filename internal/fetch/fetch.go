// Package fetch retrieves job postings over HTTP and reduces them to text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"tailorkit/internal/config"
	"tailorkit/internal/errors"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; tailorkit/1.0)"
	DefaultMaxBytes  = 2 * 1024 * 1024

	msgFetchFailed = "Could not fetch the job description."
	msgInvalidURL  = "Please provide a valid http or https URL."
)

// Fetcher downloads a job posting and returns its main text
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	logger    *errors.Logger
}

// New creates a Fetcher from cfg, filling unset values with defaults
func New(cfg config.FetchConfig, logger *errors.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (f *Fetcher) WithHTTPClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

// Fetch downloads rawURL and returns the job description text. Plain text
// responses are returned trimmed; HTML is reduced to its main content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, msgInvalidURL, err).
			WithContext("url", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", fetchError(rawURL, "failed to create request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fetchError(rawURL, "HTTP request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fetchError(rawURL, fmt.Sprintf("HTTP status %d", resp.StatusCode), nil).
			WithContext("status_code", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", fetchError(rawURL, "failed to read response body", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", fetchError(rawURL, fmt.Sprintf("response exceeds %d bytes", f.maxBytes), nil)
	}

	var text string
	if isPlainText(resp.Header.Get("Content-Type")) {
		text = cleanWhitespace(string(body))
	} else {
		text, err = ExtractMainText(string(body))
		if err != nil {
			return "", fetchError(rawURL, "failed to parse HTML", err)
		}
	}

	if text == "" {
		return "", fetchError(rawURL, "page has no text", nil)
	}

	f.logger.Debug("Fetched job description", "url", rawURL, "chars", len(text), "duration", time.Since(start))
	return text, nil
}

func fetchError(rawURL, reason string, cause error) *errors.AppError {
	if cause == nil {
		cause = fmt.Errorf("%s", reason)
	}
	return errors.NewNetworkError(errors.ErrCodeFetchFailed, msgFetchFailed, cause).
		WithContext("url", rawURL).
		WithContext("reason", reason)
}

func isPlainText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/plain"
}

// ExtractMainText strips page chrome and returns the text of the first
// element matching a job posting selector, falling back to the body.
func ExtractMainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, iframe, svg, form, .ad, .ads, .advertisement, .sidebar, .cookie-banner, .popup").Remove()

	var content *goquery.Selection
	for _, selector := range JobPostingSelectors() {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	// keep block boundaries as line breaks
	content.Find("p, li, br, h1, h2, h3, h4, h5, h6, div, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return cleanWhitespace(content.Text()), nil
}

// JobPostingSelectors returns content selectors for common job boards
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		"#job-description",
		".job-content",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"[itemprop='description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
