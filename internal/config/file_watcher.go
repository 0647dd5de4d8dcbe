package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"tailorkit/internal/errors"
)

// FileWatcher watches a fixed set of files and calls onChange with the
// files that changed, debounced. It is used for prompt templates and TLS
// certificates.
type FileWatcher struct {
	mu sync.Mutex

	name  string
	files []string

	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onChange func(changed []string)
	logger   *errors.Logger

	running bool
}

// NewFileWatcher creates a watcher for files. name is used in log records.
func NewFileWatcher(name string, files []string, debounceDelay time.Duration, onChange func(changed []string), logger *errors.Logger) *FileWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	watched := make([]string, 0, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		if abs, err := filepath.Abs(file); err == nil {
			file = abs
		}
		watched = append(watched, file)
	}

	if logger == nil {
		logger = errors.NewNopLogger()
	}

	return &FileWatcher{
		name:          name,
		files:         watched,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching the files
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("%s watcher is already running", fw.name)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.fsWatcher = watcher

	if err := fw.updateModTimes(); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to get initial file modification times: %w", err)
	}

	for _, file := range fw.files {
		if err := fw.addFileToWatcher(file); err != nil {
			fw.logger.Warn("Failed to watch file", "watcher", fw.name, "file", file, "error", err)
		}
	}

	fw.running = true
	go fw.watchLoop()

	fw.logger.Info("File watcher started", "watcher", fw.name, "files", fw.files, "debounce_delay", fw.debounceDelay)
	return nil
}

// Stop stops the watcher
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return nil
	}

	close(fw.stopChan)
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.running = false

	if err := fw.fsWatcher.Close(); err != nil {
		fw.logger.LogError(err, "Failed to close file system watcher", "watcher", fw.name)
		return err
	}

	fw.logger.Info("File watcher stopped", "watcher", fw.name)
	return nil
}

// IsRunning returns whether the watcher is currently running
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

// Files returns the watched files
func (fw *FileWatcher) Files() []string {
	return append([]string(nil), fw.files...)
}

// addFileToWatcher watches the file's directory so atomic replaces
// (write to temp + rename) are seen
func (fw *FileWatcher) addFileToWatcher(file string) error {
	dir := filepath.Dir(file)
	if err := fw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	return nil
}

func (fw *FileWatcher) updateModTimes() error {
	for _, file := range fw.files {
		if stat, err := os.Stat(file); err == nil {
			fw.lastModTime[file] = stat.ModTime()
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat file %s: %w", file, err)
		}
	}
	return nil
}

// hasFileChanged reports whether file changed since the last check; callers hold mu
func (fw *FileWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			if _, exists := fw.lastModTime[file]; exists {
				delete(fw.lastModTime, file)
				return true
			}
		}
		return false
	}

	lastMod, exists := fw.lastModTime[file]
	if !exists || stat.ModTime().After(lastMod) {
		fw.lastModTime[file] = stat.ModTime()
		return true
	}

	return false
}

func (fw *FileWatcher) changedFiles() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	var changed []string
	for _, file := range fw.files {
		if fw.hasFileChanged(file) {
			changed = append(changed, file)
		}
	}
	return changed
}

func (fw *FileWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}
			if fw.shouldProcessEvent(event) {
				fw.scheduleReload()
			}

		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			fw.logger.LogError(err, "File watcher error", "watcher", fw.name)

		case <-fw.reloadChan:
			if changed := fw.changedFiles(); len(changed) > 0 {
				fw.logger.Info("Watched files changed", "watcher", fw.name, "files", changed)
				fw.onChange(changed)
			}

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	name := event.Name
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}

	for _, file := range fw.files {
		if name == file {
			return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
		}
	}
	return false
}

func (fw *FileWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceDelay, func() {
		select {
		case fw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// WatchPromptFiles starts a watcher that reloads loaded prompt files into
// the prompt store. It returns nil when no prompt file is loaded.
func WatchPromptFiles(logger *errors.Logger) (*FileWatcher, error) {
	store := Prompts()
	files := store.Files()
	if len(files) == 0 {
		return nil, nil
	}

	watcher := NewFileWatcher("prompts", files, 500*time.Millisecond, func(changed []string) {
		for _, file := range changed {
			if err := store.Reload(file); err != nil {
				// keep serving the previous prompt
				if logger != nil {
					logger.LogError(err, "Failed to reload prompt file", "file", file)
				}
				continue
			}
			if logger != nil {
				logger.Info("Prompt file reloaded", "file", file)
			}
		}
	}, logger)

	if err := watcher.Start(); err != nil {
		return nil, err
	}
	return watcher, nil
}
