// Package app wires the state store to its mailbox, the background loader
// and the persisted files, and exposes the result to the front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/metcalfc/leaf/internal/mailbox"
	"github.com/metcalfc/leaf/internal/progress"
	"github.com/metcalfc/leaf/internal/reader"
	"github.com/metcalfc/leaf/internal/settings"
	"github.com/metcalfc/leaf/internal/state"
)

// ErrClosed is returned for commands issued after Shutdown.
var ErrClosed = errors.New("runtime is shut down")

// ErrRunning is returned by Run when the runtime is already running.
var ErrRunning = errors.New("runtime is already running")

// ErrNotApplied is reported by UpdateSettings when the command did not
// complete.
var ErrNotApplied = errors.New("settings update did not complete")

// Options configure a Runtime.
type Options struct {
	// DataDir holds the progress database, settings and window files.
	DataDir string
	Logger  *slog.Logger
	// Open opens documents; defaults to reader.Open.
	Open reader.OpenFunc
	// OnChange is called on the consumer goroutine with every published
	// snapshot. It must not block.
	OnChange func(state.Snapshot)
	// WriteSettings persists settings; defaults to settings.Write.
	WriteSettings func(settings.Settings) error
}

// Runtime owns the state store. Every mutation is a command executed by
// the single goroutine running Run; readers use Snapshot.
type Runtime struct {
	logger   *slog.Logger
	onChange func(state.Snapshot)

	settingsPath string
	dbPath       string
	windowPath   string

	window      settings.Geometry
	windowFound bool

	mailbox *mailbox.Mailbox[*state.Store]
	store   *state.Store
	loader  *loader
	writer  *progress.Writer

	snap    atomic.Pointer[state.Snapshot]
	version uint64

	started  atomic.Bool
	runDone  chan struct{}
	shutdown sync.Once
	err      error
}

// New loads the persisted files from opts.DataDir and returns a Runtime
// ready to Run. A missing file is created with defaults; an unreadable or
// corrupt settings or progress file is an error.
func New(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	open := opts.Open
	if open == nil {
		open = reader.Open
	}

	r := &Runtime{
		logger:       logger.With("component", "runtime"),
		onChange:     opts.OnChange,
		settingsPath: filepath.Join(opts.DataDir, settings.FileName),
		dbPath:       filepath.Join(opts.DataDir, progress.FileName),
		windowPath:   filepath.Join(opts.DataDir, settings.WindowFileName),
		runDone:      make(chan struct{}),
	}

	s, err := settings.Open(r.settingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	db, err := progress.Load(r.dbPath)
	if err != nil {
		return nil, fmt.Errorf("load progress database: %w", err)
	}
	r.window, r.windowFound, err = settings.OpenGeometry(r.windowPath)
	if err != nil {
		r.logger.Warn("ignoring window geometry", "path", r.windowPath, "err", err)
	}

	r.mailbox = mailbox.New[*state.Store](logger)
	r.writer = progress.NewWriter(r.dbPath, logger)
	r.loader = newLoader(open, r.mailbox.Enqueue, logger)
	r.store = state.New(state.Config{
		Settings: s,
		DB:       db,
		Loader:   r.loader,
		Progress: r.writer,
		Logger:   logger,

		WriteSettings: opts.WriteSettings,
	})

	initial := r.store.Snapshot()
	r.snap.Store(&initial)

	r.logger.Info("runtime ready",
		"data_dir", opts.DataDir,
		"theme", s.General.Theme,
		"open_preference", s.File.OpenPreference,
		"progress_rows", db.Len())
	return r, nil
}

// Run executes commands until ctx is done or Shutdown is called.
func (r *Runtime) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(r.runDone)
	return r.mailbox.Run(ctx, r.store, r.publish)
}

func (r *Runtime) publish(s *state.Store) {
	r.version++
	snap := s.Snapshot()
	snap.Version = r.version
	r.snap.Store(&snap)
	if r.onChange != nil {
		r.onChange(snap)
	}
}

// Enqueue schedules cmd. It reports false after Shutdown.
func (r *Runtime) Enqueue(cmd func(*state.Store)) bool {
	return r.mailbox.Enqueue(cmd)
}

// Open schedules loading path. page, when non-nil, overrides the saved
// reading position.
func (r *Runtime) Open(path string, page *int) bool {
	if page != nil {
		p := *page
		page = &p
	}
	return r.Enqueue(func(s *state.Store) { s.Open(path, page) })
}

// Goto schedules a move to the zero-based page n.
func (r *Runtime) Goto(n int) bool {
	return r.Enqueue(func(s *state.Store) { s.Goto(n) })
}

// Next schedules a move to the following page.
func (r *Runtime) Next() bool {
	return r.Enqueue(func(s *state.Store) { s.Next() })
}

// Previous schedules a move to the preceding page.
func (r *Runtime) Previous() bool {
	return r.Enqueue(func(s *state.Store) { s.Previous() })
}

// GotoChapter schedules a move to the chapter with the given id.
func (r *Runtime) GotoChapter(id string) bool {
	return r.Enqueue(func(s *state.Store) { s.GotoChapter(id) })
}

// UpdateSettings schedules a settings change. The returned channel receives
// the write result once and is then closed.
func (r *Runtime) UpdateSettings(next settings.Settings) <-chan error {
	done := make(chan error, 1)
	ok := r.Enqueue(func(s *state.Store) {
		err := ErrNotApplied
		defer func() {
			done <- err
			close(done)
		}()
		err = s.UpdateSettings(next)
	})
	if !ok {
		done <- ErrClosed
		close(done)
	}
	return done
}

// Snapshot returns the state published after the most recent command.
func (r *Runtime) Snapshot() state.Snapshot {
	return *r.snap.Load()
}

// Window returns the window geometry loaded at startup. found is false
// when the defaults are in use.
func (r *Runtime) Window() (g settings.Geometry, found bool) {
	return r.window, r.windowFound
}

// Shutdown saves the window geometry, runs the commands still queued, waits
// for in-flight loads, flushes the progress database and closes the open
// document. Later calls, and calls to Close, return the first call's result.
func (r *Runtime) Shutdown(window settings.Geometry) error {
	return r.stop(&window)
}

// Close shuts down like Shutdown but leaves the window geometry file alone.
// Front ends without a window use it.
func (r *Runtime) Close() error {
	return r.stop(nil)
}

func (r *Runtime) stop(window *settings.Geometry) error {
	r.shutdown.Do(func() {
		r.err = r.close(window)
	})
	return r.err
}

func (r *Runtime) close(window *settings.Geometry) error {
	var errs []error
	if window != nil {
		if err := settings.WriteGeometry(r.windowPath, *window); err != nil {
			r.logger.Error("cannot write window geometry", "path", r.windowPath, "err", err)
			errs = append(errs, err)
		}
	}

	r.mailbox.Close()
	if !r.started.CompareAndSwap(false, true) {
		<-r.runDone
	}
	// Whatever Run left behind, for example after its context was
	// cancelled.
	if err := r.mailbox.Run(context.Background(), r.store, r.publish); err != nil {
		errs = append(errs, err)
	}

	r.loader.Wait()
	if r.Snapshot().HasDocument() {
		if err := r.store.Close(); err != nil {
			r.logger.Warn("cannot close document", "err", err)
			errs = append(errs, err)
		}
		// Readers must not see a document whose handle is closed.
		r.publish(r.store)
	}
	r.writer.Close()

	r.logger.Info("runtime stopped")
	return errors.Join(errs...)
}
