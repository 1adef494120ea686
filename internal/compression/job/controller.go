// Package job drives a single compression submission from file selection to
// its terminal outcome, and the download of decompressed results.
package job

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/compression/remote"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkguid"
)

const (
	// GenericFailureMessage is shown when the service gave no usable reason.
	GenericFailureMessage = "Compression failed. Please try again."

	msgInProgress = "a submission is already in progress"
)

var errNoFile = errors.New("no file selected")

type Transport interface {
	Compress(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.JobEvent) error
}

// Sink receives every completed record so it is visible to readers right away.
type Sink interface {
	Add(rec entity.CompressionRecord)
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Transport Transport
	Events    EventPublisher
	Sink      Sink
	Clock     Clock
	JobID     pkguid.NumberID
	EventID   pkguid.StringID
}

// Controller owns exactly one submission at a time. Events are published while
// the controller lock is held, so publishers must not call back into it.
type Controller struct {
	transport Transport
	events    EventPublisher
	sink      Sink
	clock     Clock
	jobID     pkguid.NumberID
	eventID   pkguid.StringID

	mu    sync.Mutex
	state entity.JobState
	file  entity.File
}

func NewController(dep Dependency) *Controller {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	jobID := dep.JobID
	if jobID == nil {
		jobID = &sequence{}
	}

	return &Controller{
		transport: dep.Transport,
		events:    dep.Events,
		sink:      dep.Sink,
		clock:     clock,
		jobID:     jobID,
		eventID:   dep.EventID,
		state:     entity.JobState{Status: entity.JobStatusIdle},
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type sequence struct {
	n atomic.Int64
}

func (s *sequence) Generate() int64 {
	return s.n.Add(1)
}

// State returns a snapshot of the current job.
func (c *Controller) State() entity.JobState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return cloneState(c.state)
}

// SelectFile starts a new job for file. It is accepted while idle, after a
// terminal outcome, or to swap a file that has not been submitted yet.
func (c *Controller) SelectFile(ctx context.Context, file entity.File) (entity.JobState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.selectLocked(ctx, file); err != nil {
		return cloneState(c.state), err
	}
	return cloneState(c.state), nil
}

// Begin moves the selected file into Uploading and returns the transfer to
// run. Callers that do not need to detach the transfer use Submit.
func (c *Controller) Begin(ctx context.Context) (func(ctx context.Context) entity.JobState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.beginLocked(ctx)
}

// Start selects file and begins its transfer as one step, so a concurrent
// selection cannot swap the file between the two.
func (c *Controller) Start(ctx context.Context, file entity.File) (func(ctx context.Context) entity.JobState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.selectLocked(ctx, file); err != nil {
		return nil, err
	}
	return c.beginLocked(ctx)
}

func (c *Controller) selectLocked(ctx context.Context, file entity.File) error {
	if file.Name == "" || file.Open == nil {
		return pkgerror.NewInvalidInput(errNoFile)
	}

	switch c.state.Status {
	case entity.JobStatusUploading, entity.JobStatusAwaitingResult:
		return pkgerror.NewBusiness(msgInProgress, pkgerror.CodeConflict)
	}

	c.file = file
	c.state = entity.JobState{
		JobID:    c.jobID.Generate(),
		Status:   entity.JobStatusFileSelected,
		FileName: file.Name,
		FileSize: file.Size,
	}
	c.emit(ctx)

	return nil
}

func (c *Controller) beginLocked(ctx context.Context) (func(ctx context.Context) entity.JobState, error) {
	if c.transport == nil {
		return nil, pkgerror.NewServer(errors.New("missing transport"))
	}

	switch c.state.Status {
	case entity.JobStatusFileSelected:
	case entity.JobStatusUploading, entity.JobStatusAwaitingResult:
		return nil, pkgerror.NewBusiness(msgInProgress, pkgerror.CodeConflict)
	default:
		return nil, pkgerror.NewInvalidInput(errNoFile)
	}

	jobID := c.state.JobID
	file := c.file
	c.state.Status = entity.JobStatusUploading
	c.state.Progress = 0
	c.emit(ctx)

	return func(ctx context.Context) entity.JobState {
		return c.run(ctx, jobID, file)
	}, nil
}

// Submit uploads the selected file and blocks until the job is terminal. The
// returned error only reports a submission that could not start; transfer and
// service failures end in the Failed state instead.
func (c *Controller) Submit(ctx context.Context) (entity.JobState, error) {
	run, err := c.Begin(ctx)
	if err != nil {
		return c.State(), err
	}
	return run(ctx), nil
}

// Reset returns to Idle. An in-flight transfer keeps running but no longer
// changes the state; its record still reaches the sink.
func (c *Controller) Reset(ctx context.Context) entity.JobState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.file = entity.File{}
	c.state = entity.JobState{Status: entity.JobStatusIdle}
	c.emit(ctx)

	return cloneState(c.state)
}

func (c *Controller) run(ctx context.Context, jobID int64, file entity.File) entity.JobState {
	res, err := c.transport.Compress(ctx, file, func(sent, total int64) {
		c.onProgress(ctx, jobID, sent, total)
	})

	if err == nil {
		if res.Record.CreatedAt.IsZero() {
			res.Record.CreatedAt = c.clock.Now()
		}
		if c.sink != nil {
			c.sink.Add(res.Record)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.JobID != jobID {
		slog.InfoContext(ctx, "job finished after reset", "job_id", jobID, "error", err)
		return detachedOutcome(jobID, file, res, err)
	}

	if err != nil {
		c.state.Status = entity.JobStatusFailed
		c.state.Message = failureMessage(err)
		c.state.Err = err.Error()
		c.emit(ctx)
		return cloneState(c.state)
	}

	if c.state.Status == entity.JobStatusUploading {
		if c.state.Progress < 100 {
			c.state.Progress = 100
			c.emit(ctx)
		}
		c.state.Status = entity.JobStatusAwaitingResult
		c.emit(ctx)
	}

	rec := res.Record
	c.state.Status = entity.JobStatusCompleted
	c.state.Result = &rec
	c.state.Message = res.Message
	c.emit(ctx)

	return cloneState(c.state)
}

func (c *Controller) onProgress(ctx context.Context, jobID int64, sent, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.JobID != jobID || c.state.Status != entity.JobStatusUploading {
		return
	}

	p := Percent(sent, total)
	if p <= c.state.Progress {
		return
	}

	c.state.Progress = p
	c.emit(ctx)

	if p == 100 {
		c.state.Status = entity.JobStatusAwaitingResult
		c.emit(ctx)
	}
}

// Percent is round(sent*100/total) clamped to [0,100]. It stays at 99 until
// every byte is sent so that 100 always means the transfer finished.
func Percent(sent, total int64) int {
	if total <= 0 || sent >= total {
		return 100
	}
	if sent <= 0 {
		return 0
	}

	p := int(math.Round(float64(sent) * 100 / float64(total)))
	return max(0, min(p, 99))
}

func (c *Controller) emit(ctx context.Context) {
	if c.events == nil {
		return
	}

	event := entity.JobEvent{State: cloneState(c.state)}
	if c.eventID != nil {
		event.EventID = c.eventID.Generate()
	}

	if err := c.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish job event", "job_id", event.State.JobID, "status", event.State.Status, "error", err)
	}
}

func failureMessage(err error) string {
	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		return GenericFailureMessage
	}

	switch perr.Code() {
	case pkgerror.CodeUpstream:
		if perr.Msg() != "" {
			return perr.Msg()
		}
	case pkgerror.CodeInvalidInput:
		if inner := perr.Unwrap(); inner != nil {
			return inner.Error()
		}
	}

	return GenericFailureMessage
}

func detachedOutcome(jobID int64, file entity.File, res entity.CompressResult, err error) entity.JobState {
	st := entity.JobState{JobID: jobID, FileName: file.Name, FileSize: file.Size}
	if err != nil {
		st.Status = entity.JobStatusFailed
		st.Message = failureMessage(err)
		st.Err = err.Error()
		return st
	}

	rec := res.Record
	st.Status = entity.JobStatusCompleted
	st.Progress = 100
	st.Result = &rec
	st.Message = res.Message
	return st
}

func cloneState(st entity.JobState) entity.JobState {
	if st.Result != nil {
		rec := *st.Result
		st.Result = &rec
	}
	return st
}
