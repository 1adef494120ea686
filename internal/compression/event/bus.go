package event

import (
	"context"
	"errors"
	"sync"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

var ErrBusClosed = errors.New("event bus is closed")

// Bus carries job lifecycle events from the controller to the consumer. It is
// an ordered, buffered channel. Publish blocks while the buffer is full, so a
// slow consumer applies back-pressure instead of losing progress notifications.
type Bus struct {
	mu     sync.RWMutex
	closed bool
	ch     chan entity.JobEvent
}

func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}

	return &Bus{
		ch: make(chan entity.JobEvent, buffer),
	}
}

// Publish enqueues one job transition. The controller calls it for every state
// change of the current job, so events leave the bus in transition order. It
// returns ErrBusClosed after Close, or ctx.Err() if ctx ends while the buffer
// is full.
func (b *Bus) Publish(ctx context.Context, event entity.JobEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}

	select {
	case b.ch <- event:
		b.mu.RUnlock()
		return nil
	case <-ctx.Done():
		b.mu.RUnlock()
		return ctx.Err()
	}
}

// Subscribe returns the single stream of job events. It is meant for one
// consumer. Close closes the channel; events already buffered are still
// delivered before the range loop ends.
func (b *Bus) Subscribe() <-chan entity.JobEvent {
	return b.ch
}

// Close stops accepting events. Publish calls that are still blocked hold the
// read lock, so Close waits for them. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.ch)
}
