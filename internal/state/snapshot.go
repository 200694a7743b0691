package state

import (
	"github.com/metcalfc/leaf/internal/progress"
	"github.com/metcalfc/leaf/internal/reader"
	"github.com/metcalfc/leaf/internal/settings"
)

// DocumentView is the read-only view of the open document.
type DocumentView struct {
	Path         string
	Filename     string
	Page         int
	NumPages     int
	ChapterID    string
	ChapterTitle string
	Content      string
	ContentErr   error
	Chapters     []reader.Chapter
}

// Snapshot is an immutable copy of the application state. It is safe to
// read from any goroutine.
type Snapshot struct {
	// Document is nil when no document is open.
	Document    *DocumentView
	Settings    settings.Settings
	Progress    []progress.Row
	Loading     bool
	LoadingPath string
	// LastError is the most recent load failure, cleared by the next
	// successful load.
	LastError error
	// Version increases every time a new snapshot is published.
	Version uint64
}

// HasDocument reports whether a document is open.
func (s Snapshot) HasDocument() bool {
	return s.Document != nil
}
