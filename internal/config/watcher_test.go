package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretReader struct {
	mu     sync.Mutex
	secret *VaultSecret
	err    error
}

func (f *fakeSecretReader) GetSecretV2(string) (*VaultSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.secret, f.err
}

func (f *fakeSecretReader) set(version int64, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = &VaultSecret{Version: version, Data: map[string]any{geminiKeyField: key}}
}

func TestSecretWatcherCheckNow(t *testing.T) {
	reader := &fakeSecretReader{}
	reader.set(1, "initial")

	var rotated []string
	watcher := NewSecretWatcher(reader, "secret/data/gemini", time.Hour, 1, func(key string) {
		rotated = append(rotated, key)
	}, newTestLogger())

	applied, err := watcher.CheckNow()
	require.NoError(t, err)
	assert.False(t, applied, "same version must not rotate")

	reader.set(2, "")
	applied, err = watcher.CheckNow()
	require.NoError(t, err)
	assert.False(t, applied, "empty key must not rotate")

	reader.set(3, "rotated-key")
	applied, err = watcher.CheckNow()
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{"rotated-key"}, rotated)
	assert.Equal(t, int64(3), watcher.Status()["last_version"])

	reader.mu.Lock()
	reader.err = fmt.Errorf("vault sealed")
	reader.mu.Unlock()
	_, err = watcher.CheckNow()
	assert.ErrorContains(t, err, "vault sealed")
}

func TestSecretWatcherStartStop(t *testing.T) {
	reader := &fakeSecretReader{}
	reader.set(1, "k")
	watcher := NewSecretWatcher(reader, "p", time.Hour, 1, func(string) {}, nil)

	require.NoError(t, watcher.Start())
	assert.Error(t, watcher.Start())
	assert.Equal(t, true, watcher.Status()["running"])
	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
	assert.Equal(t, false, watcher.Status()["running"])
}

func TestFileWatcherDetectsChanges(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0o600))

	changes := make(chan []string, 4)
	watcher := NewFileWatcher("test", []string{file, ""}, 20*time.Millisecond, func(changed []string) {
		changes <- changed
	}, newTestLogger())
	assert.Len(t, watcher.Files(), 1)

	require.NoError(t, watcher.Start())
	t.Cleanup(func() { _ = watcher.Stop() })
	assert.True(t, watcher.IsRunning())

	// make the modification time strictly newer
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(file, []byte("v2"), 0o600))
	require.NoError(t, os.Chtimes(file, future, future))

	select {
	case changed := <-changes:
		assert.Equal(t, watcher.Files(), changed)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}

	require.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())
}

func TestWatchPromptFilesWithoutFiles(t *testing.T) {
	Prompts().Reset()
	watcher, err := WatchPromptFiles(newTestLogger())
	assert.NoError(t, err)
	assert.Nil(t, watcher)
}
