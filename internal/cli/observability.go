package cli

import (
	"context"
	"time"

	"tailorkit/internal/config"
	"tailorkit/internal/errors"
	"tailorkit/internal/observability"
)

const observabilityShutdownTimeout = 5 * time.Second

// startObservability builds the observability manager for a command. A
// manager that fails to start is replaced by a disabled one so the command
// still runs. One-shot commands pass withPrometheus=false: they exit before
// a scrape could happen.
func startObservability(cfg *config.Config, logger *errors.Logger, withPrometheus bool) (*observability.ObservabilityManager, func()) {
	obsCfg := observability.GetObservabilityConfig(cfg, Version)
	if !withPrometheus {
		obsCfg.Prometheus.Enabled = false
	}

	om, err := observability.NewObservabilityManager(obsCfg, cfg, logger)
	if err != nil {
		logger.LogError(err, "Failed to initialize observability, continuing without it")
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{}, cfg, logger)
	}

	return om, func() {
		ctx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}
}
