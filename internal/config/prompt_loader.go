package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LoadedPrompts holds prompt content read from files
type LoadedPrompts struct {
	System   string
	Generate string
}

// PromptStore holds file-loaded prompts. It is safe for concurrent use and
// is refreshed by the prompt file watcher in serve mode.
type PromptStore struct {
	mu      sync.RWMutex
	prompts LoadedPrompts
	files   map[string]string // absolute path -> prompt kind
}

var (
	promptStore     *PromptStore
	promptStoreOnce sync.Once
)

// Prompts returns the process-wide prompt store
func Prompts() *PromptStore {
	promptStoreOnce.Do(func() {
		promptStore = &PromptStore{files: make(map[string]string)}
	})
	return promptStore
}

const (
	promptKindSystem   = "system"
	promptKindGenerate = "generate"
)

// Snapshot returns a copy of the loaded prompts
func (s *PromptStore) Snapshot() LoadedPrompts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts
}

// Files returns the absolute paths of all loaded prompt files
func (s *PromptStore) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]string, 0, len(s.files))
	for path := range s.files {
		files = append(files, path)
	}
	return files
}

// Reset clears all loaded prompts
func (s *PromptStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = LoadedPrompts{}
	s.files = make(map[string]string)
}

// LoadPromptFiles loads the configured prompt files into the prompt store
func (c *Config) LoadPromptFiles() error {
	if err := c.validatePromptFiles(); err != nil {
		return err
	}

	store := Prompts()
	if c.AI.CustomPrompts.SystemFile != "" {
		if err := store.load(c.AI.CustomPrompts.SystemFile, promptKindSystem); err != nil {
			return fmt.Errorf("failed to load system prompt: %w", err)
		}
	}
	if c.AI.CustomPrompts.GenerateFile != "" {
		if err := store.load(c.AI.CustomPrompts.GenerateFile, promptKindGenerate); err != nil {
			return fmt.Errorf("failed to load generate prompt: %w", err)
		}
	}

	if len(store.Files()) == 0 {
		log.Println("[CONFIG] No custom prompt files configured - using built-in defaults")
	}
	return nil
}

// Reload re-reads a previously loaded prompt file. Unknown paths are ignored.
func (s *PromptStore) Reload(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	s.mu.RLock()
	kind, ok := s.files[absPath]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	return s.load(absPath, kind)
}

func (s *PromptStore) load(filePath, kind string) error {
	content, absPath, err := loadPromptFromFile(filePath, kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case promptKindSystem:
		s.prompts.System = content
	case promptKindGenerate:
		s.prompts.Generate = content
	}
	s.files[absPath] = kind
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, kind string) (string, string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", kind, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", "", fmt.Errorf("%s prompt file not found: %s", kind, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s prompt file '%s': %w", kind, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", "", fmt.Errorf("%s prompt file '%s' is empty", kind, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)", kind, absPath, len(trimmedContent))

	return trimmedContent, absPath, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, kind string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", kind, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", kind, absPath))
		}
	}

	validateFile(c.AI.CustomPrompts.SystemFile, promptKindSystem)
	validateFile(c.AI.CustomPrompts.GenerateFile, promptKindGenerate)

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}
