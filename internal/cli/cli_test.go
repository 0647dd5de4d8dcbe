package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailorkit/internal/ai"
	"tailorkit/internal/config"
	"tailorkit/internal/errors"
	"tailorkit/internal/types"
)

type fakeBackend struct {
	mu     sync.Mutex
	last   *types.GenerationRequest
	result *types.GenerationResult
	err    error
	closed bool
}

func (f *fakeBackend) GenerateWithUsage(_ context.Context, req *types.GenerationRequest) (*types.GenerationResult, *ai.TokenUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.result, &ai.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			LogLevel:         "error",
			DefaultFormat:    "text",
			SupportedFormats: []string{"json", "text", "markdown", "html"},
			MaxFileSize:      1 << 20,
		},
		Export: config.ExportConfig{
			PDFFont:       "Helvetica",
			PDFFontSize:   11,
			PDFLineHeight: 5,
		},
	}
}

// useBackend swaps the generation backend for the duration of the test
func useBackend(t *testing.T, backend *fakeBackend) {
	t.Helper()
	original := newGenerationBackend
	newGenerationBackend = func(*config.Config, *errors.Logger) (generationBackend, error) {
		return backend, nil
	}
	t.Cleanup(func() { newGenerationBackend = original })
}

func runCommand(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(withDependencies(context.Background(), cfg, errors.NewNopLogger()))
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sampleResult() *types.GenerationResult {
	return &types.GenerationResult{
		TailoredResume:  "Jane Doe\nSenior Go Engineer",
		CoverLetter:     "Dear Hiring Manager,\nI am excited to apply.",
		KeywordAnalysis: []string{"Go", "Kubernetes"},
		AlignmentAnalysis: types.AlignmentAnalysis{
			Strengths: []string{"Distributed systems"},
			Gaps:      []string{"Rust"},
		},
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Jane Doe\nGo engineer")
	job := writeFile(t, dir, "job.txt", "Senior Go Engineer wanted")

	t.Run("json output with export", func(t *testing.T) {
		backend := &fakeBackend{result: sampleResult()}
		useBackend(t, backend)

		outFile := filepath.Join(dir, "result.json")
		exportDir := filepath.Join(dir, "out")
		_, stderr, err := runCommand(t, testConfig(), "generate",
			"--resume", resume, "--job", job,
			"--tone", "Confident", "--role", "Senior-level",
			"--instructions", "Mention Kubernetes",
			"--format", "json", "--output", outFile,
			"--export-dir", exportDir, "--export-format", "docx")
		require.NoError(t, err)

		require.NotNil(t, backend.last)
		assert.Equal(t, "Jane Doe\nGo engineer", backend.last.ResumeText)
		assert.Equal(t, "Senior Go Engineer wanted", backend.last.JobDescriptionText)
		assert.Equal(t, types.Tone("Confident"), backend.last.Tone)
		assert.Equal(t, types.RoleLevel("Senior-level"), backend.last.RoleLevel)
		assert.Equal(t, "Mention Kubernetes", backend.last.CustomInstructions)
		assert.True(t, backend.closed)

		data, err := os.ReadFile(outFile)
		require.NoError(t, err)
		var result types.GenerationResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, *sampleResult(), result)

		assert.FileExists(t, filepath.Join(exportDir, "Tailored_Resume.docx"))
		assert.FileExists(t, filepath.Join(exportDir, "Personalized_Cover_Letter.docx"))
		assert.Contains(t, stderr, "Exported Tailored Resume to")
	})

	t.Run("default format prints text", func(t *testing.T) {
		useBackend(t, &fakeBackend{result: sampleResult()})

		stdout, _, err := runCommand(t, testConfig(), "generate", "--resume", resume, "--job", job)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Senior Go Engineer")
		assert.Contains(t, stdout, "Dear Hiring Manager")
	})

	t.Run("job from url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("Platform Engineer\nRemote"))
		}))
		t.Cleanup(server.Close)

		backend := &fakeBackend{result: sampleResult()}
		useBackend(t, backend)

		_, _, err := runCommand(t, testConfig(), "generate", "--resume", resume, "--job-url", server.URL)
		require.NoError(t, err)
		require.NotNil(t, backend.last)
		assert.Equal(t, "Platform Engineer\nRemote", backend.last.JobDescriptionText)
	})

	t.Run("blank job description", func(t *testing.T) {
		backend := &fakeBackend{result: sampleResult()}
		useBackend(t, backend)
		blank := writeFile(t, dir, "blank.txt", "   \n")

		_, _, err := runCommand(t, testConfig(), "generate", "--resume", resume, "--job", blank)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		assert.Contains(t, err.Error(), "Please provide both")
		assert.Nil(t, backend.last)
	})

	t.Run("invalid tone", func(t *testing.T) {
		backend := &fakeBackend{result: sampleResult()}
		useBackend(t, backend)

		_, _, err := runCommand(t, testConfig(), "generate", "--resume", resume, "--job", job, "--tone", "Sarcastic")
		require.Error(t, err)
		assert.Nil(t, backend.last)
	})

	t.Run("unsupported output format", func(t *testing.T) {
		useBackend(t, &fakeBackend{result: sampleResult()})

		_, _, err := runCommand(t, testConfig(), "generate", "--resume", resume, "--job", job, "--format", "yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})

	t.Run("job and job-url are exclusive", func(t *testing.T) {
		useBackend(t, &fakeBackend{result: sampleResult()})

		_, _, err := runCommand(t, testConfig(), "generate", "--resume", resume, "--job", job, "--job-url", "https://example.com")
		require.Error(t, err)
	})

	t.Run("generation failure", func(t *testing.T) {
		useBackend(t, &fakeBackend{err: errors.NewAIError(errors.ErrCodeAIServiceFailed, "quota exceeded", nil)})

		_, _, err := runCommand(t, testConfig(), "generate", "--resume", resume, "--job", job)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeAI))
	})
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		file      string
		content   string
		args      []string
		want      string
		wantError bool
	}{
		{
			name:    "text file",
			file:    "resume.txt",
			content: "Jane Doe\nGo engineer",
			want:    "Jane Doe\nGo engineer",
		},
		{
			name:    "declared mime type",
			file:    "resume",
			content: "No extension here",
			args:    []string{"--mime", "text/plain"},
			want:    "No extension here",
		},
		{
			name:      "unsupported type",
			file:      "resume.rtf",
			content:   "{\\rtf1 hello}",
			wantError: true,
		},
		{
			name:      "corrupt pdf",
			file:      "resume.pdf",
			content:   "not a pdf",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			args := append([]string{"extract", path}, tt.args...)

			stdout, _, err := runCommand(t, testConfig(), args...)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}

	t.Run("json output", func(t *testing.T) {
		path := writeFile(t, dir, "job.txt", "Senior Go Engineer")

		stdout, _, err := runCommand(t, testConfig(), "extract", path, "--format", "json")
		require.NoError(t, err)

		var resp types.ExtractResponse
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		assert.Equal(t, "job.txt", resp.FileName)
		assert.Equal(t, "Senior Go Engineer", resp.Text)
	})

	t.Run("html is not offered", func(t *testing.T) {
		path := writeFile(t, dir, "job2.txt", "text")

		_, _, err := runCommand(t, testConfig(), "extract", path, "--format", "html")
		require.Error(t, err)
	})
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "letter.txt", "Dear Hiring Manager,\nI am excited to apply.")
	outDir := filepath.Join(dir, "exports")

	t.Run("pdf", func(t *testing.T) {
		stdout, _, err := runCommand(t, testConfig(), "export",
			"--input", input, "--format", "pdf",
			"--title", "Personalized Cover Letter", "--output-dir", outDir)
		require.NoError(t, err)

		path := strings.TrimSpace(stdout)
		assert.Equal(t, filepath.Join(outDir, "Personalized_Cover_Letter.pdf"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	})

	t.Run("docx with default title", func(t *testing.T) {
		stdout, _, err := runCommand(t, testConfig(), "export",
			"--input", input, "--format", "docx", "--output-dir", outDir)
		require.NoError(t, err)

		path := strings.TrimSpace(stdout)
		assert.Equal(t, filepath.Join(outDir, "Tailored_Resume.docx"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("PK")))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := runCommand(t, testConfig(), "export", "--input", input, "--format", "odt")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("missing input", func(t *testing.T) {
		_, _, err := runCommand(t, testConfig(), "export", "--format", "pdf")
		require.Error(t, err)
	})
}

func TestFetchCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><nav>Home | Jobs</nav><main><h1>Backend Engineer</h1><p>We are looking for a Go engineer.</p></main></body></html>`))
	}))
	t.Cleanup(server.Close)

	t.Run("html posting", func(t *testing.T) {
		stdout, _, err := runCommand(t, testConfig(), "fetch", server.URL+"/jobs/1")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Backend Engineer")
		assert.Contains(t, stdout, "We are looking for a Go engineer.")
		assert.NotContains(t, stdout, "Home | Jobs")
	})

	t.Run("output file", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "job.md")
		_, _, err := runCommand(t, testConfig(), "fetch", server.URL, "--format", "markdown", "--output", outFile)
		require.NoError(t, err)

		data, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Backend Engineer")
	})

	t.Run("not found", func(t *testing.T) {
		_, _, err := runCommand(t, testConfig(), "fetch", server.URL+"/missing")
		require.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCommand(t, testConfig(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tailorkit version "+Version)
	assert.Contains(t, stdout, "Git commit: "+GitCommit)
}

func TestApplyServeFlags(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9090", "--tls-mode", "server"}))

	cfg := testConfig()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = "8080"
	cfg.Server.TLS.CertFile = "cert.pem"

	opts := &serveOptions{Port: "9090", TLSMode: "server"}
	applyServeFlags(cmd, opts, cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "server", cfg.Server.TLS.Mode)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "cert.pem", cfg.Server.TLS.CertFile)
}

func TestContextHelpers(t *testing.T) {
	cfg := testConfig()
	logger := errors.NewNopLogger()
	ctx := withDependencies(context.Background(), cfg, logger)

	assert.Same(t, cfg, getConfigFromContext(ctx))
	assert.Same(t, logger, getLoggerFromContext(ctx))
	assert.Nil(t, getVaultFromContext(ctx))
	assert.Panics(t, func() { getConfigFromContext(context.Background()) })
}
