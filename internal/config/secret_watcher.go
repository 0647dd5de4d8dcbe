package config

import (
	"fmt"
	"sync"
	"time"

	"tailorkit/internal/errors"
)

// SecretReader is the subset of VaultClient the secret watcher needs
type SecretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// SecretWatcher polls a KVv2 secret holding the generation API key and
// calls onRotate whenever a newer version carries a non-empty key.
type SecretWatcher struct {
	mu sync.RWMutex

	client       SecretReader
	secretPath   string
	pollInterval time.Duration
	onRotate     func(apiKey string)
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

// NewSecretWatcher creates a new SecretWatcher. initialVersion is the
// version already applied, so it does not trigger a rotation.
func NewSecretWatcher(client SecretReader, secretPath string, pollInterval time.Duration, initialVersion int64, onRotate func(apiKey string), logger *errors.Logger) *SecretWatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &SecretWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onRotate:     onRotate,
		logger:       logger,
		stopChan:     make(chan struct{}),
		lastVersion:  initialVersion,
	}
}

// Start begins polling Vault
func (sw *SecretWatcher) Start() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		return fmt.Errorf("secret watcher is already running")
	}
	sw.running = true
	go sw.pollLoop()
	sw.logger.Info("Secret watcher started", "secret_path", sw.secretPath, "poll_interval", sw.pollInterval)
	return nil
}

// Stop stops polling
func (sw *SecretWatcher) Stop() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if !sw.running {
		return nil
	}
	close(sw.stopChan)
	sw.running = false
	sw.logger.Info("Secret watcher stopped")
	return nil
}

func (sw *SecretWatcher) pollLoop() {
	ticker := time.NewTicker(sw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := sw.CheckNow(); err != nil {
				sw.logger.LogError(err, "Failed to check Vault for credential rotation", "secret_path", sw.secretPath)
			}
		case <-sw.stopChan:
			return
		}
	}
}

// CheckNow reads the secret once and reports whether a rotation was applied
func (sw *SecretWatcher) CheckNow() (bool, error) {
	secret, err := sw.client.GetSecretV2(sw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}

	sw.mu.Lock()
	if secret.Version <= sw.lastVersion {
		sw.mu.Unlock()
		return false, nil
	}
	sw.lastVersion = secret.Version
	sw.mu.Unlock()

	apiKey, _ := secret.Data[geminiKeyField].(string)
	if apiKey == "" {
		sw.logger.Warn("Rotated secret has no API key, keeping current credential", "secret_path", sw.secretPath, "version", secret.Version)
		return false, nil
	}

	sw.logger.Info("Generation API key rotated", "secret_path", sw.secretPath, "version", secret.Version)
	sw.onRotate(apiKey)
	return true, nil
}

// Status returns the current status for health reporting
func (sw *SecretWatcher) Status() map[string]any {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return map[string]any{
		"running":       sw.running,
		"poll_interval": sw.pollInterval.String(),
		"secret_path":   sw.secretPath,
		"last_version":  sw.lastVersion,
	}
}
