package observability

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailorkit/internal/config"
)

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.ServiceName = "tailorkit"
	cfg.Observability.Enabled = true
	cfg.Observability.SampleRate = 0.5
	cfg.Observability.Prometheus.Port = "9191"

	obs := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "tailorkit", obs.ServiceName)
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.True(t, obs.Enabled)
	assert.Equal(t, "9191", obs.Prometheus.Port)

	cfg.Observability.ServiceVersion = "override"
	assert.Equal(t, "override", GetObservabilityConfig(cfg, "1.2.3").ServiceVersion)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.False(t, fallback.Enabled)
	assert.Equal(t, "/metrics", fallback.Prometheus.Endpoint)
}

func TestDisabledManagerIsNoop(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "tailorkit"}, nil, nil)
	require.NoError(t, err)

	metrics := om.GetMetrics()
	boom := stderrors.New("boom")

	called := false
	err = metrics.TrackAIOperationWithTokens(context.Background(), "generate", func(ctx context.Context) *AIOperationResult {
		called = true
		return &AIOperationResult{Error: boom}
	}, om)
	assert.True(t, called)
	assert.ErrorIs(t, err, boom)

	assert.NotPanics(t, func() {
		metrics.RecordBusinessMetric(context.Background(), MetricDocumentExported, true, om)
		metrics.RecordContentSize(context.Background(), "resume", 120, om)
		metrics.RecordSessionDelta(context.Background(), 1, om)
	})

	handler := om.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	require.NoError(t, om.Shutdown(context.Background()))
}

func TestEnabledManagerRecords(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Tracing.Enabled = true
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.CustomMetrics.AIOperations = config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true}
	cfg.Observability.CustomMetrics.BusinessMetrics = config.BusinessMetricsConfig{Enabled: true, TrackContentSizes: true}
	cfg.Observability.CustomMetrics.Infrastructure = config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackSessions: true}

	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "tailorkit", Enabled: true, SampleRate: 1}, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	metrics := om.GetMetrics()
	require.NotNil(t, metrics.AIProcessingTime)

	err = metrics.TrackAIOperationWithTokens(context.Background(), "generate", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}
	}, om)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		metrics.RecordBusinessMetric(context.Background(), MetricRateLimitHit, false, om)
		metrics.RecordSessionDelta(context.Background(), -1, om)
	})
}
