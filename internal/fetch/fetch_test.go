package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailorkit/internal/config"
	"tailorkit/internal/errors"
)

const postingHTML = `<!DOCTYPE html>
<html>
<head><title>Backend Engineer</title><style>.x{color:red}</style></head>
<body>
  <nav>Home | Jobs | About</nav>
  <header>Acme Careers</header>
  <div class="job-description">
    <h1>Backend Engineer</h1>
    <p>We are looking for a Go engineer.</p>
    <ul><li>5+ years   of Go</li><li>Kafka</li></ul>
  </div>
  <script>track()</script>
  <footer>Copyright Acme</footer>
</body>
</html>`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func assertFetchFailed(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNetwork, appErr.Type)
	assert.Equal(t, errors.ErrCodeFetchFailed, appErr.Code)
	assert.Equal(t, "Could not fetch the job description.", appErr.Message)
}

func TestFetchHTML(t *testing.T) {
	var userAgent string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(postingHTML))
	})

	fetcher := New(config.FetchConfig{UserAgent: "test-agent"}, nil)
	text, err := fetcher.Fetch(context.Background(), server.URL+"/jobs/1")
	require.NoError(t, err)

	assert.Equal(t, "test-agent", userAgent)
	assert.Contains(t, text, "Backend Engineer")
	assert.Contains(t, text, "We are looking for a Go engineer.")
	assert.Contains(t, text, "5+ years of Go")
	assert.NotContains(t, text, "Home | Jobs")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "Copyright")
}

func TestFetchPlainText(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  Senior Engineer\n\n  Remote  \n"))
	})

	text, err := New(config.FetchConfig{}, nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Senior Engineer\nRemote", text)
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		cfg     config.FetchConfig
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "empty page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html><body><script>x()</script></body></html>"))
			},
		},
		{
			name: "too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("a", 64)))
			},
			cfg: config.FetchConfig{MaxBytes: 16},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(time.Second):
				case <-r.Context().Done():
				}
			},
			cfg: config.FetchConfig{Timeout: 50 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.handler)
			_, err := New(tt.cfg, nil).Fetch(context.Background(), server.URL)
			assertFetchFailed(t, err)
		})
	}
}

func TestFetchInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "ftp://example.com/job", "http://"} {
		_, err := New(config.FetchConfig{}, nil).Fetch(context.Background(), raw)
		require.Error(t, err, raw)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), raw)
	}
}

func TestExtractMainTextFallsBackToBody(t *testing.T) {
	text, err := ExtractMainText("<html><body><nav>menu</nav><p>Only body text</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, "Only body text", text)
}
