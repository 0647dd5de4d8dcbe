package config

import (
	"os"
	"path/filepath"
	"testing"

	"tailorkit/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(7), expected: 7},
		{name: "string value", input: "12", expected: 12},
		{name: "invalid string value", input: "v3", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/tailorkit/gemini")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseInt64(t *testing.T) {
	v, err := parseInt64("-42")
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v)

	for _, input := range []string{"", "42.5", "forty"} {
		_, err := parseInt64(input)
		assert.Error(t, err, input)
	}
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	cfg := &Config{AI: AIConfig{APIKey: "from-env"}}
	applyGeminiKeyToConfig(cfg, "from-vault")
	assert.Equal(t, "from-vault", cfg.AI.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	logger := newTestLogger()

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0o600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token"}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	client, err := ApplyVaultSecrets(&Config{}, newTestLogger())
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestVaultClientExtractSecret(t *testing.T) {
	vc := &VaultClient{logger: newTestLogger()}

	secret := &api.Secret{
		Data: map[string]any{
			"data":     map[string]any{"api_key": "abc"},
			"metadata": map[string]any{"version": float64(3)},
		},
	}

	data, err := vc.extractSecretData(secret, "p")
	require.NoError(t, err)
	assert.Equal(t, "abc", data["api_key"])

	version, err := vc.extractSecretVersion(secret, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	_, err = vc.extractSecretData(&api.Secret{Data: map[string]any{}}, "p")
	assert.ErrorContains(t, err, "missing 'data' field")

	_, err = vc.extractSecretVersion(&api.Secret{Data: map[string]any{"metadata": map[string]any{}}}, "p")
	assert.ErrorContains(t, err, "missing 'version' field")
}
