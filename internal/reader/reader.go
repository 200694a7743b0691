// Package reader opens documents and exposes them as a sequence of pages
// with a cursor.
package reader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPageOutOfRange is returned by SetCurrentPage for a page outside
// [0, NumPages).
var ErrPageOutOfRange = errors.New("page out of range")

// Document is an open, navigable document. Implementations are not safe for
// concurrent use.
type Document interface {
	// CurrentPage returns the zero-based cursor position.
	CurrentPage() int
	// SetCurrentPage moves the cursor. The cursor is unchanged on error.
	SetCurrentPage(n int) error
	// NumPages returns the number of pages.
	NumPages() int
	// CurrentChapterID returns the spine id of the current page, if any.
	CurrentChapterID() (string, bool)
	// CurrentContent returns the text of the current page.
	CurrentContent() (string, error)
	// Spine returns the chapters in reading order, one per page.
	Spine() []Chapter
	Close() error
}

// pagedDocument is a Document whose pages are already in memory.
type pagedDocument struct {
	chapters []Chapter
	pages    []string
	current  int
}

// NewTextDocument returns a Document over in-memory pages. titles may be
// shorter than pages; missing titles become "Page N".
func NewTextDocument(pages []string, titles []string) Document {
	chapters := make([]Chapter, len(pages))
	for i := range pages {
		title := fmt.Sprintf("Page %d", i+1)
		if i < len(titles) && strings.TrimSpace(titles[i]) != "" {
			title = titles[i]
		}
		chapters[i] = Chapter{ID: fmt.Sprintf("page-%d", i+1), Title: title}
	}
	return &pagedDocument{chapters: chapters, pages: pages}
}

func (d *pagedDocument) CurrentPage() int { return d.current }
func (d *pagedDocument) NumPages() int    { return len(d.pages) }
func (d *pagedDocument) Spine() []Chapter { return cloneChapters(d.chapters) }
func (d *pagedDocument) Close() error     { return nil }

func (d *pagedDocument) SetCurrentPage(n int) error {
	if n < 0 || n >= len(d.pages) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, len(d.pages))
	}
	d.current = n
	return nil
}

func (d *pagedDocument) CurrentChapterID() (string, bool) {
	if d.current >= len(d.chapters) {
		return "", false
	}
	return d.chapters[d.current].ID, true
}

func (d *pagedDocument) CurrentContent() (string, error) {
	if d.current >= len(d.pages) {
		return "", fmt.Errorf("%w: document has no pages", ErrPageOutOfRange)
	}
	return d.pages[d.current], nil
}

func cloneChapters(chapters []Chapter) []Chapter {
	dup := make([]Chapter, len(chapters))
	copy(dup, chapters)
	return dup
}
