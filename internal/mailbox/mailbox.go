// Package mailbox implements an unbounded multi-producer, single-consumer
// command queue.
//
// Commands are closures over a target value. Any goroutine may enqueue; a
// single goroutine running Run executes them one at a time, in order of
// arrival, so the target is only ever touched by that goroutine.
package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Command is a one-shot mutation of the target.
type Command[T any] func(T)

// Mailbox queues commands for a single consumer.
type Mailbox[T any] struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []Command[T]
	closed bool

	// wake has capacity one; a pending value means "queue may be non-empty".
	wake chan struct{}
}

// New returns an open, empty mailbox.
func New[T any](logger *slog.Logger) *Mailbox[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailbox[T]{
		logger: logger.With("component", "mailbox"),
		wake:   make(chan struct{}, 1),
	}
}

// Enqueue adds cmd to the queue and returns immediately. It reports false
// and drops cmd when the mailbox is closed.
func (m *Mailbox[T]) Enqueue(cmd Command[T]) bool {
	if cmd == nil {
		return false
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Debug("command dropped, mailbox closed")
		return false
	}
	m.queue = append(m.queue, cmd)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// Close stops accepting commands. Commands already queued still run.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued commands.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run executes queued commands against target until the mailbox is closed
// and drained, or ctx is done. after, when non-nil, is called with target
// once each command has finished, including commands that panicked.
//
// Only one goroutine may call Run.
func (m *Mailbox[T]) Run(ctx context.Context, target T, after func(T)) error {
	for {
		cmd, ok, closed := m.next()
		if ok {
			m.exec(cmd, target)
			if after != nil {
				m.exec(after, target)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wake:
		}
	}
}

func (m *Mailbox[T]) next() (cmd Command[T], ok bool, closed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		m.queue = nil
		return nil, false, m.closed
	}
	cmd = m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return cmd, true, m.closed
}

// exec runs cmd and turns a panic into a logged no-op.
func (m *Mailbox[T]) exec(cmd func(T), target T) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("command panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	cmd(target)
}
