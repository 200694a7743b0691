// Package settings persists user settings and the main window geometry.
// Both are small TOML files that are created with defaults when missing.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the name of the settings file inside the data directory.
const FileName = "settings.toml"

// Theme is the reader color scheme.
type Theme string

const (
	ThemeNone  Theme = "none"
	ThemeSepia Theme = "sepia"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Themes lists every theme in display order.
var Themes = []Theme{ThemeNone, ThemeSepia, ThemeDark, ThemeLight}

// ParseTheme converts a theme name to a Theme.
func ParseTheme(s string) (Theme, error) {
	for _, t := range Themes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

func (t Theme) String() string { return string(t) }

func (t *Theme) UnmarshalText(text []byte) error {
	parsed, err := ParseTheme(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// OpenPreference decides which page is shown when a document with saved
// progress is opened again.
type OpenPreference string

const (
	// OpenCurrentChapter resumes at the saved page.
	OpenCurrentChapter OpenPreference = "current"
	// OpenNextChapter resumes at the page after the saved one.
	OpenNextChapter OpenPreference = "next"
)

// ParseOpenPreference converts "current" or "next" to an OpenPreference.
func ParseOpenPreference(s string) (OpenPreference, error) {
	switch OpenPreference(strings.ToLower(s)) {
	case OpenCurrentChapter:
		return OpenCurrentChapter, nil
	case OpenNextChapter:
		return OpenNextChapter, nil
	}
	return "", fmt.Errorf("unknown open preference %q", s)
}

// Offset is the number of pages added to the saved page on reopen.
func (p OpenPreference) Offset() int {
	if p == OpenNextChapter {
		return 1
	}
	return 0
}

func (p OpenPreference) String() string { return string(p) }

func (p *OpenPreference) UnmarshalText(text []byte) error {
	parsed, err := ParseOpenPreference(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// General holds appearance and display settings.
type General struct {
	Theme           Theme   `toml:"theme"`
	FontSize        float64 `toml:"font_size"`
	FontFamily      string  `toml:"font_family"`
	UseCustomColor  bool    `toml:"use_custom_color"`
	BackgroundColor string  `toml:"background_color"`
	TextColor       string  `toml:"text_color"`
	AutoScrollSpeed float64 `toml:"auto_scroll_speed"`
	ShowPageNum     bool    `toml:"show_page_num"`
	ShowPageFile    bool    `toml:"show_page_file"`
}

// File holds settings about opening documents.
type File struct {
	OpenPreference OpenPreference `toml:"open_preference"`
}

// Settings is the complete user configuration. Path is where it lives on
// disk and is not part of the file contents.
type Settings struct {
	General General `toml:"general"`
	File    File    `toml:"file"`
	Path    string  `toml:"-"`
}

// Default returns the settings used on first run.
func Default(path string) Settings {
	return Settings{
		General: General{
			Theme:           ThemeSepia,
			FontSize:        28,
			FontFamily:      "Segoe UI",
			UseCustomColor:  false,
			BackgroundColor: "#000000",
			TextColor:       "#000000",
			AutoScrollSpeed: 3.8,
			ShowPageNum:     true,
			ShowPageFile:    true,
		},
		File: File{OpenPreference: OpenNextChapter},
		Path: path,
	}
}

// Open loads settings from path. When the file does not exist the defaults
// are written to path and returned.
func Open(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := Default(path)
		if err := Write(s); err != nil {
			return Settings{}, err
		}
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrReadFromDisk, err)
	}

	s := Default(path)
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	s.Path = path
	return s, nil
}

// Write replaces the file at s.Path with s.
func Write(s Settings) error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("%w: settings path is empty", ErrWriteToDisk)
	}
	return writeTOML(s.Path, s)
}

func writeTOML(path string, v any) error {
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteToDisk, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteToDisk, err)
	}
	return nil
}
