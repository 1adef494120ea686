package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 10

// ErrPanic wraps the value recovered from a panicking task.
var ErrPanic = errors.New("goroutine panicked")

// Manager runs background tasks such as compression submissions with a
// bounded number of goroutines. Task errors and recovered panics are
// collected and returned by Wait.
type Manager struct {
	mu       sync.Mutex
	errs     []error
	wg       sync.WaitGroup
	sema     chan struct{}
	inFlight atomic.Int64
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go runs f in its own goroutine once a slot is free. It blocks while the
// manager is at capacity and gives up when ctx is done first.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	select {
	case g.sema <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "task dropped before start", "because", ctx.Err())
		return
	}

	g.wg.Add(1)
	g.inFlight.Add(1)
	go func() {
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic occurred in task", "because", rvr, "stack", string(debug.Stack()))
				g.collect(fmt.Errorf("%w: %v", ErrPanic, rvr))
			}

			<-g.sema
			g.inFlight.Add(-1)
			g.wg.Done()
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "task canceled", "because", err)
			return
		}

		if err := f(ctx); err != nil {
			g.collect(err)
		}
	}()
}

// InFlight reports how many tasks are currently running.
func (g *Manager) InFlight() int {
	return int(g.inFlight.Load())
}

// Wait blocks until every started task finished and returns the collected
// errors joined.
func (g *Manager) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) collect(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}
