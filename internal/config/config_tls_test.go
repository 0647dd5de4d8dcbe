package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr string
	}{
		{name: "disabled", tls: TLSConfig{Mode: "disabled"}},
		{name: "empty mode", tls: TLSConfig{}},
		{
			name: "server mode with files",
			tls:  TLSConfig{Mode: "server", CertFile: "cert.pem", KeyFile: "key.pem", MinVersion: "1.3"},
		},
		{
			name:    "server mode without key",
			tls:     TLSConfig{Mode: "server", CertFile: "cert.pem"},
			wantErr: "required for server mode",
		},
		{
			name: "mutual mode complete",
			tls: TLSConfig{
				Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem", CAFile: "ca.pem",
				ClientAuthPolicy: "verify",
			},
		},
		{
			name:    "mutual mode without CA",
			tls:     TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem"},
			wantErr: "CA certificate is required",
		},
		{
			name: "mutual mode bad policy",
			tls: TLSConfig{
				Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem", CAFile: "ca.pem",
				ClientAuthPolicy: "sometimes",
			},
			wantErr: "invalid clientAuthPolicy",
		},
		{
			name:    "unknown mode",
			tls:     TLSConfig{Mode: "strict"},
			wantErr: "invalid TLS mode",
		},
		{
			name:    "unsupported version",
			tls:     TLSConfig{Mode: "server", CertFile: "cert.pem", KeyFile: "key.pem", MinVersion: "1.0"},
			wantErr: "invalid TLS minVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
