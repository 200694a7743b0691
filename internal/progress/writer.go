package progress

import (
	"log/slog"
	"sync"
)

// Writer persists progress tables on a background goroutine.
//
// Write never blocks on I/O. Tables handed to Write while a save is running
// are coalesced so only the newest one is written next, and saves never run
// concurrently, so an older table cannot overwrite a newer one.
type Writer struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	pending []Row
	dirty   bool
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// NewWriter starts a writer that saves to path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		path:   path,
		logger: logger.With("component", "progress-writer"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

// Write schedules rows to be saved. The slice is copied.
func (w *Writer) Write(rows []Row) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("write after close dropped", "rows", len(rows))
		return
	}
	w.pending = cloneRows(rows)
	w.dirty = true
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}

// Close flushes any pending table and stops the writer. It is safe to call
// more than once.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.wake)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) loop() {
	defer close(w.done)
	for range w.wake {
		w.flush()
	}
	w.flush()
}

func (w *Writer) flush() {
	w.mu.Lock()
	if !w.dirty {
		w.mu.Unlock()
		return
	}
	rows := w.pending
	w.pending = nil
	w.dirty = false
	w.mu.Unlock()

	if err := Save(w.path, rows); err != nil {
		w.logger.Error("cannot write progress database", "path", w.path, "err", err)
		return
	}
	w.logger.Debug("wrote progress database", "path", w.path, "rows", len(rows))
}
