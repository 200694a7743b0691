package mailbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []int
}

func runAsync[T any](t *testing.T, m *Mailbox[T], target T, after func(T)) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background(), target, after) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestEnqueueBeforeRunDoesNotBlock(t *testing.T) {
	m := New[*recorder](nil)
	for i := 0; i < 10000; i++ {
		require.True(t, m.Enqueue(func(r *recorder) { r.events = append(r.events, i) }))
	}
	require.Equal(t, 10000, m.Len())

	m.Close()
	rec := &recorder{}
	require.NoError(t, m.Run(context.Background(), rec, nil))
	require.Len(t, rec.events, 10000)
	for i, v := range rec.events {
		require.Equal(t, i, v)
	}
}

func TestFIFOPerProducer(t *testing.T) {
	const producers, perProducer = 8, 500

	type event struct{ producer, seq int }
	var events []event

	m := New[*[]event](nil)
	done := runAsync(t, m, &events, nil)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				m.Enqueue(func(ev *[]event) { *ev = append(*ev, event{p, i}) })
			}
		}(p)
	}
	wg.Wait()
	m.Close()
	require.NoError(t, waitDone(t, done))

	require.Len(t, events, producers*perProducer)
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for _, ev := range events {
		require.Greater(t, ev.seq, last[ev.producer], "producer %d out of order", ev.producer)
		last[ev.producer] = ev.seq
	}
}

func TestCommandsRunOneAtATime(t *testing.T) {
	var running, maxRunning int
	var mu sync.Mutex
	enter := func() {
		mu.Lock()
		running++
		maxRunning = max(maxRunning, running)
		mu.Unlock()
	}
	exit := func() {
		mu.Lock()
		running--
		mu.Unlock()
	}

	m := New[struct{}](nil)
	done := runAsync(t, m, struct{}{}, nil)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Enqueue(func(struct{}) {
					enter()
					time.Sleep(50 * time.Microsecond)
					exit()
				})
			}
		}()
	}
	wg.Wait()
	m.Close()
	require.NoError(t, waitDone(t, done))
	require.Equal(t, 1, maxRunning)
}

func TestPanickingCommandDoesNotStopLoop(t *testing.T) {
	rec := &recorder{}
	var afterCalls int

	m := New[*recorder](nil)
	m.Enqueue(func(r *recorder) { r.events = append(r.events, 1) })
	m.Enqueue(func(r *recorder) { panic("boom") })
	m.Enqueue(func(r *recorder) { r.events = append(r.events, 3) })
	m.Close()

	require.NoError(t, m.Run(context.Background(), rec, func(*recorder) { afterCalls++ }))
	require.Equal(t, []int{1, 3}, rec.events)
	require.Equal(t, 3, afterCalls)
}

func TestEnqueueAfterClose(t *testing.T) {
	m := New[*recorder](nil)
	m.Close()
	require.False(t, m.Enqueue(func(*recorder) {}))
	require.False(t, m.Enqueue(nil))
	require.NoError(t, m.Run(context.Background(), &recorder{}, nil))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	m := New[*recorder](nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, &recorder{}, nil) }()

	ran := make(chan struct{})
	m.Enqueue(func(*recorder) { close(ran) })
	<-ran

	cancel()
	err := waitDone(t, done)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestCommandMayEnqueueFollowUp(t *testing.T) {
	rec := &recorder{}
	m := New[*recorder](nil)
	done := runAsync(t, m, rec, nil)

	finished := make(chan struct{})
	m.Enqueue(func(r *recorder) {
		r.events = append(r.events, 1)
		m.Enqueue(func(r *recorder) {
			r.events = append(r.events, 2)
			close(finished)
		})
	})
	<-finished
	m.Close()
	require.NoError(t, waitDone(t, done))
	require.Equal(t, []int{1, 2}, rec.events)
}
