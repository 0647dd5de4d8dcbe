package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"tailorkit/internal/config"
	"tailorkit/internal/errors"
)

// certReloader serves the current certificate pair and swaps it when the
// files are reloaded. A failed reload keeps the previous certificate.
type certReloader struct {
	mu sync.RWMutex

	certFile string
	keyFile  string

	cert     *tls.Certificate
	leaf     *x509.Certificate
	loadedAt time.Time

	reloadCount   int
	reloadFailed  int
	lastReloadErr error

	logger *errors.Logger
}

func newCertReloader(certFile, keyFile string, logger *errors.Logger) (*certReloader, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	cr := &certReloader{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := cr.Reload(); err != nil {
		return nil, err
	}
	return cr, nil
}

// Reload reads the certificate pair from disk
func (cr *certReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certFile, cr.keyFile)
	if err == nil && cert.Leaf == nil && len(cert.Certificate) > 0 {
		cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	if err != nil {
		cr.reloadFailed++
		cr.lastReloadErr = err
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}

	first := cr.cert == nil
	cr.cert = &cert
	cr.leaf = cert.Leaf
	cr.loadedAt = time.Now()
	cr.lastReloadErr = nil
	if !first {
		cr.reloadCount++
	}
	return nil
}

// GetCertificate implements tls.Config.GetCertificate
func (cr *certReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.cert, nil
}

// Status reports certificate expiry and reload counters at now
func (cr *certReloader) Status(now time.Time) map[string]any {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	status := map[string]any{
		"loaded_at":     cr.loadedAt,
		"reload_count":  cr.reloadCount,
		"reload_failed": cr.reloadFailed,
	}
	if cr.lastReloadErr != nil {
		status["last_reload_error"] = cr.lastReloadErr.Error()
	}
	if cr.leaf == nil {
		status["healthy"] = false
		return status
	}

	timeToExpiry := cr.leaf.NotAfter.Sub(now)
	status["not_after"] = cr.leaf.NotAfter
	status["time_to_expiry"] = timeToExpiry.Round(time.Second).String()

	switch {
	case timeToExpiry <= 0:
		status["healthy"] = false
		status["status"] = "expired"
	case timeToExpiry <= 24*time.Hour:
		status["healthy"] = false
		status["status"] = "critical"
	case timeToExpiry <= 7*24*time.Hour:
		status["healthy"] = true
		status["status"] = "warning"
	default:
		status["healthy"] = true
		status["status"] = "ok"
	}
	return status
}

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	addr := httpServer.Addr

	switch s.TLSConfig.Mode {
	case "", "disabled":
		fmt.Printf("Starting server on http://%s\n", addr)
		fmt.Println("TLS mode: Disabled (HTTP only)")
		return nil
	case "server":
		fmt.Printf("Starting server with HTTPS (server-only TLS) on https://%s\n", addr)
		fmt.Println("TLS mode: Server-only (no client certificates required)")
	case "mutual":
		fmt.Printf("Starting server with mTLS (mutual TLS) on https://%s\n", addr)
		fmt.Println("TLS mode: Mutual (client certificates required)")
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	certs, err := newCertReloader(s.TLSConfig.CertFile, s.TLSConfig.KeyFile, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}

	tlsConfig, err := s.buildTLSConfig(certs)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig

	s.mu.Lock()
	s.certs = certs
	s.mu.Unlock()

	if s.TLSConfig.WatchFiles {
		if err := s.startCertWatcher(certs); err != nil {
			return err
		}
	}
	return nil
}

// startCertWatcher reloads the certificate pair whenever either file changes
func (s *Server) startCertWatcher(certs *certReloader) error {
	watcher := config.NewFileWatcher("tls", []string{s.TLSConfig.CertFile, s.TLSConfig.KeyFile},
		s.TLSConfig.DebounceDelay, func(changed []string) {
			if err := certs.Reload(); err != nil {
				s.Logger.LogError(err, "Failed to reload TLS certificates", "changed", changed)
				return
			}
			s.Logger.Info("TLS certificates reloaded successfully", "changed", changed)
		}, s.Logger)

	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}

	s.mu.Lock()
	s.certWatcher = watcher
	s.mu.Unlock()

	fmt.Println("TLS auto-reload: ENABLED (file watching)")
	return nil
}

// buildTLSConfig creates the TLS configuration
func (s *Server) buildTLSConfig(certs *certReloader) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		GetCertificate: certs.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode != "mutual" {
		return tlsConfig, nil
	}

	caCert, err := os.ReadFile(s.TLSConfig.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert")
	}

	tlsConfig.ClientCAs = caCertPool
	tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	return tlsConfig, nil
}

// tlsVersion maps the configured minimum version, defaulting to TLS 1.2
func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// clientAuthPolicy returns the appropriate client authentication policy
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
