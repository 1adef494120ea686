package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

// DedupeWindow is how many recent event ids the consumer remembers.
const DedupeWindow = 256

type Handler interface {
	Handle(ctx context.Context, event entity.JobEvent) error
}

// Consumer drains the bus with a single worker so events reach the handler in
// publish order. Handler failures are logged and never retried. An event whose
// id is among the last DedupeWindow ids is skipped.
type Consumer struct {
	bus     *Bus
	handler Handler
	recent  *idWindow // touched by the worker only
	wg      sync.WaitGroup
}

func NewConsumer(bus *Bus, handler Handler) *Consumer {
	return &Consumer{
		bus:     bus,
		handler: handler,
		recent:  newIDWindow(DedupeWindow),
	}
}

func (c *Consumer) Start() {
	c.wg.Add(1)
	go c.worker()
}

func (c *Consumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *Consumer) processEvent(event entity.JobEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != "" {
		if c.recent.seen(event.EventID) {
			slog.Info("skip duplicate job event", "event_id", event.EventID, "job_id", event.State.JobID)
			return
		}
	}

	if err := c.handler.Handle(context.Background(), event); err != nil {
		slog.Error("failed to handle job event", "event_id", event.EventID, "job_id", event.State.JobID, "error", err)
	}
}

// idWindow is a fixed-size set of the most recently added ids; the oldest is
// evicted once it is full.
type idWindow struct {
	ids  map[string]struct{}
	ring []string
	next int
}

func newIDWindow(size int) *idWindow {
	if size < 1 {
		size = 1
	}
	return &idWindow{
		ids:  make(map[string]struct{}, size),
		ring: make([]string, size),
	}
}

// seen reports whether id is in the window and records it if not.
func (w *idWindow) seen(id string) bool {
	if _, ok := w.ids[id]; ok {
		return true
	}

	if old := w.ring[w.next]; old != "" {
		delete(w.ids, old)
	}
	w.ring[w.next] = id
	w.ids[id] = struct{}{}
	w.next = (w.next + 1) % len(w.ring)

	return false
}

func (w *idWindow) len() int {
	return len(w.ids)
}

// LogHandler writes the job lifecycle to the application log. Progress ticks
// are logged at debug level.
type LogHandler struct{}

func (LogHandler) Handle(ctx context.Context, event entity.JobEvent) error {
	st := event.State
	switch st.Status {
	case entity.JobStatusUploading:
		slog.DebugContext(ctx, "job progress", "job_id", st.JobID, "progress", st.Progress)
	case entity.JobStatusFailed:
		slog.WarnContext(ctx, "job failed", "job_id", st.JobID, "file", st.FileName, "error", st.Err)
	case entity.JobStatusCompleted:
		attrs := []any{"job_id", st.JobID, "file", st.FileName}
		if st.Result != nil {
			attrs = append(attrs, "record_id", st.Result.ID, "ratio", st.Result.CompressionRatio)
		}
		slog.InfoContext(ctx, "job completed", attrs...)
	default:
		slog.InfoContext(ctx, "job state changed", "job_id", st.JobID, "status", st.Status)
	}
	return nil
}
