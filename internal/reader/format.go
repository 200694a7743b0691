package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Open for a file extension no format
// handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Format opens documents of one kind.
type Format interface {
	Name() string
	Extensions() []string
	Open(filename string) (Document, error)
}

// OpenFunc opens the document at path.
type OpenFunc func(path string) (Document, error)

var registry []Format

// Register adds a format to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Open opens filename with the registered format matching its extension.
func Open(filename string) (Document, error) {
	f, ok := formatFor(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return f.Open(filename)
}

// Supported reports whether some registered format handles filename.
func Supported(filename string) bool {
	_, ok := formatFor(filename)
	return ok
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

func formatFor(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f, true
			}
		}
	}
	return nil, false
}
