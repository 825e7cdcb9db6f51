package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	t.Run("Missing file reads as light", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "prefs.yml"))

		theme, err := s.LoadTheme()

		require.NoError(t, err)
		assert.Equal(t, ThemeLight, theme)
	})

	t.Run("Round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "prefs.yml")
		s := NewFileStore(path)

		require.NoError(t, s.SaveTheme(ThemeDark))
		theme, err := NewFileStore(path).LoadTheme()

		require.NoError(t, err)
		assert.Equal(t, ThemeDark, theme)
	})

	t.Run("Unknown theme reads as light", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.yml")
		require.NoError(t, os.WriteFile(path, []byte("theme: sepia\n"), 0o644))

		theme, err := NewFileStore(path).LoadTheme()

		require.NoError(t, err)
		assert.Equal(t, ThemeLight, theme)
	})

	t.Run("Corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.yml")
		require.NoError(t, os.WriteFile(path, []byte("theme: [dark"), 0o644))

		_, err := NewFileStore(path).LoadTheme()

		assert.Error(t, err)
	})
}

func TestThemeToggle(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.Equal(t, ThemeDark, Theme("").Toggle())
}
