package reader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		content := "Hello world this is a test."
		path := filepath.Join(tmpDir, "test.txt")
		os.WriteFile(path, []byte(content), 0644)

		doc, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		got, err := doc.CurrentContent()
		if err != nil {
			t.Fatalf("CurrentContent: %v", err)
		}
		if got != content {
			t.Errorf("got %q, want %q", got, content)
		}
	})

	t.Run("extension is case insensitive", func(t *testing.T) {
		path := filepath.Join(tmpDir, "LOUD.TXT")
		os.WriteFile(path, []byte("HELLO"), 0644)

		if _, err := Open(path); err != nil {
			t.Fatalf("Open: %v", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(tmpDir, "test.pdf")
		os.WriteFile(path, []byte("%PDF"), 0644)

		_, err := Open(path)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("error = %v, want ErrUnsupportedFormat", err)
		}
		if Supported(path) {
			t.Error("Supported() = true for .pdf")
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := Open(filepath.Join(tmpDir, "nonexistent.txt"))
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestEPUBFormat(t *testing.T) {
	f := &EPUBFormat{}
	if f.Name() != "EPUB" {
		t.Errorf("Name() = %q, want EPUB", f.Name())
	}
	if exts := f.Extensions(); len(exts) != 1 || exts[0] != ".epub" {
		t.Errorf("Extensions() = %v, want [.epub]", exts)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := strings.Join(SupportedFormats(), "; ")
	for _, want := range []string{"EPUB (.epub)", "Markdown (.md, .markdown)", "Text (.txt, .text)"} {
		if !strings.Contains(formats, want) {
			t.Errorf("%q not registered: %s", want, formats)
		}
	}
}

func TestTextDocumentPaging(t *testing.T) {
	var lines []string
	for i := 0; i < linesPerPage*2+5; i++ {
		lines = append(lines, "line")
	}
	pages := paginate(strings.Join(lines, "\n")+"\n", linesPerPage)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if n := strings.Count(pages[2], "\n") + 1; n != 5 {
		t.Errorf("last page has %d lines, want 5", n)
	}

	pages = paginate("first\fsecond", linesPerPage)
	if len(pages) != 2 || pages[1] != "second" {
		t.Errorf("form feed pages = %q", pages)
	}

	if pages := paginate("", linesPerPage); len(pages) != 1 {
		t.Errorf("empty text should give one page, got %d", len(pages))
	}
}

func TestTextDocumentNavigation(t *testing.T) {
	doc := NewTextDocument([]string{"a", "b", "c"}, []string{"Intro"})

	if doc.NumPages() != 3 {
		t.Fatalf("NumPages() = %d", doc.NumPages())
	}
	spine := doc.Spine()
	if spine[0].Title != "Intro" || spine[1].Title != "Page 2" {
		t.Errorf("titles = %q, %q", spine[0].Title, spine[1].Title)
	}
	if err := doc.SetCurrentPage(3); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("SetCurrentPage(3) = %v", err)
	}
	if err := doc.SetCurrentPage(-1); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("SetCurrentPage(-1) = %v", err)
	}
	if err := doc.SetCurrentPage(2); err != nil {
		t.Fatalf("SetCurrentPage(2): %v", err)
	}
	id, ok := doc.CurrentChapterID()
	if !ok || id != "page-3" {
		t.Errorf("CurrentChapterID() = %q, %v", id, ok)
	}
	if i, ok := ChapterIndex(doc.Spine(), "page-2"); !ok || i != 1 {
		t.Errorf("ChapterIndex(page-2) = %d, %v", i, ok)
	}
}
