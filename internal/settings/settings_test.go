package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	s, err := Open(path)
	require.NoError(t, err)
	if diff := cmp.Diff(Default(path), s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	_, err = os.Stat(path)
	require.NoError(t, err, "defaults should be written to disk")

	reopened, err := Open(path)
	require.NoError(t, err)
	if diff := cmp.Diff(s, reopened); diff != "" {
		t.Errorf("reopened settings mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s := Default(path)
	s.General.Theme = ThemeDark
	s.General.FontSize = 18.5
	s.General.FontFamily = "Iosevka"
	s.General.ShowPageFile = false
	s.File.OpenPreference = OpenCurrentChapter

	require.NoError(t, Write(s))

	got, err := Open(path)
	require.NoError(t, err)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[general]\ntheme = \"light\"\n"), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, ThemeLight, s.General.Theme)
	require.Equal(t, 28.0, s.General.FontSize)
	require.Equal(t, OpenNextChapter, s.File.OpenPreference)
}

func TestOpenDecodeError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not toml", "this is = = not toml"},
		{"unknown theme", "[general]\ntheme = \"neon\"\n"},
		{"unknown preference", "[file]\nopen_preference = \"random\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Open(path)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrDecode), "got %v", err)
		})
	}
}

func TestWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := Default(filepath.Join(blocker, FileName))
	err := Write(s)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrWriteToDisk), "got %v", err)

	err = Write(Settings{})
	require.True(t, errors.Is(err, ErrWriteToDisk), "got %v", err)
}

func TestParseTheme(t *testing.T) {
	for _, theme := range Themes {
		got, err := ParseTheme(theme.String())
		require.NoError(t, err)
		require.Equal(t, theme, got)
	}
	got, err := ParseTheme("Dark")
	require.NoError(t, err)
	require.Equal(t, ThemeDark, got)

	_, err = ParseTheme("neon")
	require.Error(t, err)
}

func TestOpenPreferenceOffset(t *testing.T) {
	require.Equal(t, 0, OpenCurrentChapter.Offset())
	require.Equal(t, 1, OpenNextChapter.Offset())

	p, err := ParseOpenPreference("next")
	require.NoError(t, err)
	require.Equal(t, OpenNextChapter, p)

	_, err = ParseOpenPreference("previous")
	require.Error(t, err)
}
