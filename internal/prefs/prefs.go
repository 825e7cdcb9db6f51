// Package prefs persists device-local preferences such as the theme.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences is the document stored on disk.
type Preferences struct {
	Theme Theme `yaml:"theme"`
}

// FileStore keeps preferences in a YAML file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadTheme returns the saved theme. Anything other than "dark" reads as light,
// including a missing file.
func (s *FileStore) LoadTheme() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ThemeLight, nil
	}
	if err != nil {
		return ThemeLight, fmt.Errorf("failed to read preferences: %w", err)
	}

	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ThemeLight, fmt.Errorf("failed to parse preferences: %w", err)
	}
	if p.Theme == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// SaveTheme writes the theme to disk.
func (s *FileStore) SaveTheme(theme Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(Preferences{Theme: theme})
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create preferences dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
