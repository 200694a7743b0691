package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/metcalfc/leaf/internal/mailbox"
	"github.com/metcalfc/leaf/internal/reader"
	"github.com/metcalfc/leaf/internal/state"
)

// loader opens documents on background goroutines and reports the result
// back to the store through the mailbox.
type loader struct {
	open    reader.OpenFunc
	enqueue func(mailbox.Command[*state.Store]) bool
	logger  *slog.Logger

	wg sync.WaitGroup
}

func newLoader(open reader.OpenFunc, enqueue func(mailbox.Command[*state.Store]) bool, logger *slog.Logger) *loader {
	return &loader{
		open:    open,
		enqueue: enqueue,
		logger:  logger.With("component", "loader"),
	}
}

// Load implements state.Loader. It is only called from the consumer
// goroutine.
func (l *loader) Load(req state.LoadRequest) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(req)
	}()
}

func (l *loader) run(req state.LoadRequest) {
	start := time.Now()
	doc, err := l.open(req.Path)

	var res state.LoadResult
	if err != nil {
		l.logger.Error("load failed", "path", req.Path, "token", req.Token, "err", err)
		res = state.LoadFailed{Token: req.Token, Path: req.Path, Err: err}
	} else {
		l.logger.Debug("loaded document",
			"path", req.Path,
			"token", req.Token,
			"pages", doc.NumPages(),
			"elapsed", time.Since(start))
		res = state.LoadSucceeded{
			Token:    req.Token,
			Document: &state.OpenDocument{Path: req.Path, Doc: doc, InitialPage: req.InitialPage},
		}
	}

	if !l.enqueue(func(s *state.Store) { s.HandleLoad(res) }) && doc != nil {
		l.logger.Debug("runtime closed, discarding loaded document", "path", req.Path)
		if err := doc.Close(); err != nil {
			l.logger.Warn("cannot close document", "path", req.Path, "err", err)
		}
	}
}

// Wait blocks until every started load has delivered its result.
func (l *loader) Wait() {
	l.wg.Wait()
}
