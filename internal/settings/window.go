package settings

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// WindowFileName is the name of the window geometry file inside the data
// directory.
const WindowFileName = "window.toml"

// Geometry is the main window position and size.
type Geometry struct {
	X            int  `toml:"x"`
	Y            int  `toml:"y"`
	Width        int  `toml:"width"`
	Height       int  `toml:"height"`
	IsMaximized  bool `toml:"is_maximized"`
	IsFullscreen bool `toml:"is_fullscreen"`
}

// DefaultGeometry is used when no geometry has been saved.
func DefaultGeometry() Geometry {
	return Geometry{X: 300, Y: 300, Width: 860, Height: 600}
}

// OpenGeometry loads the saved geometry. found is false when nothing usable
// was saved, in which case the defaults are returned. A decode error is
// returned alongside the defaults so callers can log it and carry on.
func OpenGeometry(path string) (g Geometry, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultGeometry(), false, nil
	}
	if err != nil {
		return DefaultGeometry(), false, fmt.Errorf("%w: %w", ErrReadFromDisk, err)
	}

	g = DefaultGeometry()
	if err := toml.Unmarshal(data, &g); err != nil {
		return DefaultGeometry(), false, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return g, true, nil
}

// WriteGeometry replaces the file at path with g.
func WriteGeometry(path string, g Geometry) error {
	return writeTOML(path, g)
}
