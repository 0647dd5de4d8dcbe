package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"tailorkit/internal/config"
	"tailorkit/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is cancelled or the listener fails, then shuts
// down gracefully
func (s *Server) Start(ctx context.Context) error {
	httpServer := s.setupHTTPServer()

	if err := s.configureTLS(httpServer); err != nil {
		s.stopWatchers()
		return err
	}

	if err := s.startWatchers(); err != nil {
		s.stopWatchers()
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(s.Host, s.Port),
		Handler:           s.Handler(),
		ReadTimeout:       s.ReadTimeout,
		ReadHeaderTimeout: s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startWatchers starts prompt file reloading and credential rotation when
// they are configured
func (s *Server) startWatchers() error {
	if s.AppConfig.AI.CustomPrompts.WatchFiles {
		watcher, err := config.WatchPromptFiles(s.Logger)
		if err != nil {
			return fmt.Errorf("failed to start prompt watcher: %w", err)
		}
		if watcher != nil {
			s.mu.Lock()
			s.promptWatcher = watcher
			s.mu.Unlock()
			fmt.Println("Prompt auto-reload: ENABLED (file watching)")
		}
	}

	return s.startSecretWatcher()
}

// startSecretWatcher polls the Vault secret holding the generation API key
// and swaps the key into the backend on every new version
func (s *Server) startSecretWatcher() error {
	path := s.AppConfig.Vault.Secrets.GeminiKey
	if s.deps.Vault == nil || s.deps.Backend == nil || path == "" {
		return nil
	}

	var initialVersion int64
	if secret, err := s.deps.Vault.GetSecretV2(path); err != nil {
		s.Logger.Warn("Could not read initial credential version", "path", path, "error", err)
	} else {
		initialVersion = secret.Version
	}

	backend := s.deps.Backend
	watcher := config.NewSecretWatcher(s.deps.Vault, path, s.AppConfig.Vault.PollInterval, initialVersion,
		func(apiKey string) {
			backend.UpdateAPIKey(apiKey)
			s.om.GetMetrics().RecordBusinessMetric(context.Background(), observability.MetricCredentialRotated, true, s.om)
		}, s.Logger)

	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start credential watcher: %w", err)
	}

	s.mu.Lock()
	s.secretWatcher = watcher
	s.mu.Unlock()

	fmt.Println("Credential rotation: ENABLED (Vault polling)")
	return nil
}

// stopWatchers stops every background watcher that is running
func (s *Server) stopWatchers() {
	s.mu.Lock()
	certWatcher, promptWatcher, secretWatcher := s.certWatcher, s.promptWatcher, s.secretWatcher
	s.certWatcher, s.promptWatcher, s.secretWatcher = nil, nil, nil
	s.mu.Unlock()

	if certWatcher != nil {
		if err := certWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate watcher")
		}
	}
	if promptWatcher != nil {
		if err := promptWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop prompt watcher")
		}
	}
	if secretWatcher != nil {
		if err := secretWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop credential watcher")
		}
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopWatchers()
		s.Close()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"reason", context.Cause(ctx).Error())
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopWatchers()

	s.Logger.Info("Shutting down HTTP server...")
	err := server.Shutdown(shutdownCtx)

	// sessions and limiters outlive in-flight requests
	s.Close()

	if err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Debug("Rate limiter cleaned up")
	}
}
