// Package state holds the application state and the operations that mutate
// it.
//
// A Store is owned by exactly one goroutine, the mailbox consumer. It takes
// no locks. Other goroutines never call its methods directly; they enqueue
// commands that do, and read the Snapshot published after each command.
package state

import (
	"log/slog"
	"path/filepath"

	"github.com/metcalfc/leaf/internal/progress"
	"github.com/metcalfc/leaf/internal/reader"
	"github.com/metcalfc/leaf/internal/settings"
)

// ProgressWriter persists the progress table without blocking.
type ProgressWriter interface {
	Write(rows []progress.Row)
}

// Config configures a Store.
type Config struct {
	Settings settings.Settings
	DB       *progress.DB
	Loader   Loader
	Progress ProgressWriter
	// WriteSettings persists settings; defaults to settings.Write.
	WriteSettings func(settings.Settings) error
	// Supported filters paths before a load is dispatched; defaults to
	// reader.Supported.
	Supported func(path string) bool
	Logger    *slog.Logger
}

// Store is the single owner of the open document, the settings and the
// progress database.
type Store struct {
	logger        *slog.Logger
	loader        Loader
	progress      ProgressWriter
	writeSettings func(settings.Settings) error
	supported     func(string) bool

	settings settings.Settings
	db       *progress.DB

	doc        *OpenDocument
	spine      []reader.Chapter
	content    string
	contentErr error

	// token is the most recently issued load token.
	token       uint64
	loading     bool
	loadingPath string
	lastErr     error
}

// New returns a Store with no open document.
func New(cfg Config) *Store {
	s := &Store{
		logger:        cfg.Logger,
		loader:        cfg.Loader,
		progress:      cfg.Progress,
		writeSettings: cfg.WriteSettings,
		supported:     cfg.Supported,
		settings:      cfg.Settings,
		db:            cfg.DB,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "state")
	if s.writeSettings == nil {
		s.writeSettings = settings.Write
	}
	if s.supported == nil {
		s.supported = reader.Supported
	}
	if s.db == nil {
		s.db = progress.New(nil)
	}
	return s
}

// Open starts loading path in the background. It does nothing when path is
// already the open document or no format supports it. It reports whether a
// load was dispatched.
//
// Reopening the open document while another load is in flight cancels that
// load: its result will be discarded.
func (s *Store) Open(path string, initialPage *int) bool {
	path = normalizePath(path)
	if s.doc != nil && s.doc.Path == path {
		if s.loading {
			s.token++
			s.logger.Debug("cancel pending load", "path", s.loadingPath, "token", s.token)
			s.loading = false
			s.loadingPath = ""
			return false
		}
		s.logger.Debug("document already open", "path", path)
		return false
	}
	if !s.supported(path) {
		s.logger.Warn("unsupported document", "path", path)
		return false
	}
	if s.loader == nil {
		s.logger.Error("no loader configured", "path", path)
		return false
	}

	s.token++
	s.loading = true
	s.loadingPath = path

	var page *int
	if initialPage != nil {
		p := *initialPage
		page = &p
		s.logger.Debug("open document", "path", path, "initial_page", p, "token", s.token)
	} else {
		s.logger.Debug("open document", "path", path, "token", s.token)
	}
	s.loader.Load(LoadRequest{Token: s.token, Path: path, InitialPage: page})
	return true
}

// HandleLoad applies a load result. Results for any request other than the
// most recent one are discarded.
func (s *Store) HandleLoad(res LoadResult) {
	if res.token() != s.token {
		s.logger.Debug("discarding stale load result", "token", res.token(), "latest", s.token)
		if r, ok := res.(LoadSucceeded); ok && r.Document != nil && r.Document.Doc != nil {
			if err := r.Document.Doc.Close(); err != nil {
				s.logger.Warn("cannot close stale document", "path", r.Document.Path, "err", err)
			}
		}
		return
	}

	s.loading = false
	s.loadingPath = ""

	switch r := res.(type) {
	case LoadSucceeded:
		s.install(r.Document)
	case LoadFailed:
		s.lastErr = r.Err
		s.logger.Error("cannot open document", "path", r.Path, "err", r.Err)
	}
}

func (s *Store) install(od *OpenDocument) {
	if od == nil || od.Doc == nil {
		return
	}
	if s.doc != nil {
		if err := s.doc.Doc.Close(); err != nil {
			s.logger.Warn("cannot close document", "path", s.doc.Path, "err", err)
		}
	}

	s.doc = od
	s.spine = od.Doc.Spine()
	s.lastErr = nil

	row, ok := s.db.Lookup(od.Path)
	page := initialPage(od.Doc.NumPages(), od.InitialPage, row, ok, s.settings.File.OpenPreference)
	if err := od.Doc.SetCurrentPage(page); err != nil {
		s.logger.Warn("cannot set initial page", "path", od.Path, "page", page, "err", err)
	}
	s.refreshContent()

	s.logger.Info("opened document",
		"path", od.Path,
		"page", od.Doc.CurrentPage(),
		"pages", od.Doc.NumPages())
}

// Goto moves to page n and records progress. It is a no-op returning false
// when no document is open, n is the current page or n is out of range.
func (s *Store) Goto(n int) bool {
	if s.doc == nil {
		return false
	}
	doc := s.doc.Doc
	if n == doc.CurrentPage() || !inRange(n, doc.NumPages()) {
		return false
	}
	if err := doc.SetCurrentPage(n); err != nil {
		s.logger.Warn("cannot set page", "path", s.doc.Path, "page", n, "err", err)
		return false
	}
	s.refreshContent()

	s.db.Upsert(filepath.Base(s.doc.Path), s.doc.Path, n)
	if s.progress != nil {
		s.progress.Write(s.db.Rows())
	}
	return true
}

// Next moves to the following page.
func (s *Store) Next() bool {
	if s.doc == nil {
		return false
	}
	return s.Goto(s.doc.Doc.CurrentPage() + 1)
}

// Previous moves to the preceding page. It is a no-op on the first page.
func (s *Store) Previous() bool {
	if s.doc == nil {
		return false
	}
	current := s.doc.Doc.CurrentPage()
	if current == 0 {
		return false
	}
	return s.Goto(current - 1)
}

// GotoChapter moves to the page of the spine entry with the given id.
func (s *Store) GotoChapter(id string) bool {
	if s.doc == nil {
		return false
	}
	i, ok := reader.ChapterIndex(s.spine, id)
	if !ok {
		s.logger.Debug("unknown chapter", "id", id)
		return false
	}
	return s.Goto(i)
}

// UpdateSettings replaces the settings and then writes them to disk. A write
// failure is returned but the new settings stay in effect.
func (s *Store) UpdateSettings(next settings.Settings) error {
	if next.Path == "" {
		next.Path = s.settings.Path
	}
	s.settings = next
	if err := s.writeSettings(next); err != nil {
		s.logger.Error("cannot write settings", "path", next.Path, "err", err)
		return err
	}
	return nil
}

// Settings returns the current settings.
func (s *Store) Settings() settings.Settings {
	return s.settings
}

// Close closes the open document, if any.
func (s *Store) Close() error {
	if s.doc == nil {
		return nil
	}
	err := s.doc.Doc.Close()
	s.doc = nil
	s.spine = nil
	s.content, s.contentErr = "", nil
	return err
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Settings:    s.settings,
		Progress:    s.db.Rows(),
		Loading:     s.loading,
		LoadingPath: s.loadingPath,
		LastError:   s.lastErr,
	}
	if s.doc == nil {
		return snap
	}

	doc := s.doc.Doc
	view := &DocumentView{
		Path:       s.doc.Path,
		Filename:   filepath.Base(s.doc.Path),
		Page:       doc.CurrentPage(),
		NumPages:   doc.NumPages(),
		Content:    s.content,
		ContentErr: s.contentErr,
		Chapters:   make([]reader.Chapter, len(s.spine)),
	}
	copy(view.Chapters, s.spine)
	if id, ok := doc.CurrentChapterID(); ok {
		view.ChapterID = id
	}
	if inRange(view.Page, len(s.spine)) {
		view.ChapterTitle = s.spine[view.Page].Title
	}
	snap.Document = view
	return snap
}

func (s *Store) refreshContent() {
	s.content, s.contentErr = s.doc.Doc.CurrentContent()
	if s.contentErr != nil {
		s.logger.Warn("cannot read page content",
			"path", s.doc.Path,
			"page", s.doc.Doc.CurrentPage(),
			"err", s.contentErr)
	}
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
