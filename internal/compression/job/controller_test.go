package job

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/compression/remote"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
)

type transportFunc func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error)

func (f transportFunc) Compress(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
	return f(ctx, file, progress)
}

type recorder struct {
	mu     sync.Mutex
	events []entity.JobEvent
}

func (r *recorder) Publish(_ context.Context, event entity.JobEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) states() []entity.JobState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.JobState, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.State)
	}
	return out
}

type sinkFunc func(rec entity.CompressionRecord)

func (f sinkFunc) Add(rec entity.CompressionRecord) { f(rec) }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleFile() entity.File {
	return entity.FileFromBytes("sales.csv", []byte("a,b\n1,2\n3,4\n"))
}

func sampleResult() entity.CompressResult {
	return entity.CompressResult{
		Record: entity.CompressionRecord{
			ID:                 "42",
			Filename:           "sales.csv.gz",
			OriginalSizeBits:   8000,
			CompressedSizeBits: 4000,
			CompressionRatio:   0.5,
		},
		Message: "File compressed successfully",
	}
}

func TestController_SubmitReportsMonotonicProgress(t *testing.T) {
	ev := &recorder{}
	var added []entity.CompressionRecord
	transport := transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
		for _, sent := range []int64{10, 40, 25, 73, 99, 100} {
			progress(sent, 100)
		}
		return sampleResult(), nil
	})

	c := NewController(Dependency{
		Transport: transport,
		Events:    ev,
		Sink:      sinkFunc(func(rec entity.CompressionRecord) { added = append(added, rec) }),
		Clock:     fixedClock{t: now},
	})

	_, err := c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)

	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, "42", st.Result.ID)
	assert.True(t, st.Result.CreatedAt.Equal(now))
	assert.Equal(t, "File compressed successfully", st.Message)

	require.Len(t, added, 1)
	assert.Equal(t, "42", added[0].ID)

	var progress []int
	var statuses []entity.JobStatus
	for _, s := range ev.states() {
		statuses = append(statuses, s.Status)
		if s.Status == entity.JobStatusUploading {
			progress = append(progress, s.Progress)
		}
	}

	assert.Equal(t, []int{0, 10, 40, 73, 99, 100}, progress)
	assert.Equal(t, entity.JobStatusAwaitingResult, statuses[len(statuses)-2])
	assert.Equal(t, entity.JobStatusCompleted, statuses[len(statuses)-1])

	// the last Uploading event before AwaitingResult carries 100
	for i, s := range statuses {
		if s == entity.JobStatusAwaitingResult {
			prev := ev.states()[i-1]
			assert.Equal(t, entity.JobStatusUploading, prev.Status)
			assert.Equal(t, 100, prev.Progress)
		}
	}
}

func TestController_ForcesCompletionWhenTransportIsSilent(t *testing.T) {
	ev := &recorder{}
	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
			progress(30, 100)
			return sampleResult(), nil
		}),
		Events: ev,
	})

	_, err := c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)
	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, st.Status)

	states := ev.states()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, entity.JobStatusUploading, states[len(states)-3].Status)
	assert.Equal(t, 100, states[len(states)-3].Progress)
	assert.Equal(t, entity.JobStatusAwaitingResult, states[len(states)-2].Status)
}

func TestController_ServiceErrorIsSurfacedVerbatim(t *testing.T) {
	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
			progress(100, 100)
			return entity.CompressResult{}, pkgerror.NewService("unsupported format")
		}),
		Sink: sinkFunc(func(rec entity.CompressionRecord) { t.Fatalf("sink must not be called on failure") }),
	})

	_, err := c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)
	st, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.JobStatusFailed, st.Status)
	assert.Equal(t, "unsupported format", st.Message)
	assert.Nil(t, st.Result)
}

func TestController_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "service without payload", err: pkgerror.NewService(""), want: GenericFailureMessage},
		{name: "transport", err: pkgerror.NewTransport(io.ErrUnexpectedEOF), want: GenericFailureMessage},
		{name: "plain error", err: errors.New("boom"), want: GenericFailureMessage},
		{name: "rejected locally", err: pkgerror.NewInvalidInput(errors.New("file exceeds 10 bytes")), want: "file exceeds 10 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureMessage(tt.err))
		})
	}
}

func TestController_ValidationNeverReachesTransport(t *testing.T) {
	called := false
	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
			called = true
			return entity.CompressResult{}, nil
		}),
	})

	_, err := c.Submit(context.Background())
	var perr *pkgerror.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkgerror.TypeValidation, perr.Type())

	_, err = c.SelectFile(context.Background(), entity.File{})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkgerror.TypeValidation, perr.Type())

	assert.False(t, called)
	assert.Equal(t, entity.JobStatusIdle, c.State().Status)
}

func TestController_RejectsSelectionWhileUploading(t *testing.T) {
	release := make(chan struct{})
	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
			<-release
			return sampleResult(), nil
		}),
	})

	_, err := c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)
	run, err := c.Begin(context.Background())
	require.NoError(t, err)

	done := make(chan entity.JobState)
	go func() { done <- run(context.Background()) }()

	_, err = c.SelectFile(context.Background(), sampleFile())
	var perr *pkgerror.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkgerror.CodeConflict, perr.Code())

	_, err = c.Begin(context.Background())
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkgerror.CodeConflict, perr.Code())

	close(release)
	assert.Equal(t, entity.JobStatusCompleted, (<-done).Status)

	// a terminal job accepts a new selection
	st, err := c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFileSelected, st.Status)
}

func TestController_ConcurrentStartUploadsTheWinnersFile(t *testing.T) {
	release := make(chan struct{})
	uploaded := make(chan string, 2)
	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
			uploaded <- file.Name
			<-release
			return sampleResult(), nil
		}),
	})

	type outcome struct {
		name string
		run  func(ctx context.Context) entity.JobState
		err  error
	}

	const callers = 8
	results := make(chan outcome, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		name := string(rune('a'+i)) + ".csv"
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := c.Start(context.Background(), entity.FileFromBytes(name, []byte("x,y\n")))
			results <- outcome{name: name, run: run, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var winner outcome
	wins := 0
	for res := range results {
		if res.err != nil {
			var perr *pkgerror.Error
			require.ErrorAs(t, res.err, &perr)
			assert.Equal(t, pkgerror.CodeConflict, perr.Code())
			continue
		}
		wins++
		winner = res
	}
	require.Equal(t, 1, wins)
	assert.Equal(t, winner.name, c.State().FileName)
	assert.Equal(t, entity.JobStatusUploading, c.State().Status)

	done := make(chan entity.JobState)
	go func() { done <- winner.run(context.Background()) }()

	assert.Equal(t, winner.name, <-uploaded)
	close(release)
	st := <-done
	assert.Equal(t, entity.JobStatusCompleted, st.Status)
	assert.Equal(t, winner.name, st.FileName)
}

func TestController_StartRejectsInvalidFileWithoutChangingState(t *testing.T) {
	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
			t.Fatal("transport must not be called")
			return entity.CompressResult{}, nil
		}),
	})

	_, err := c.Start(context.Background(), entity.File{})
	var perr *pkgerror.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkgerror.TypeValidation, perr.Type())
	assert.Equal(t, entity.JobStatusIdle, c.State().Status)
}

func TestController_ResetDetachesInFlightJob(t *testing.T) {
	ev := &recorder{}
	release := make(chan struct{})
	var progress remote.ProgressFunc
	var mu sync.Mutex
	var added []string

	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, p remote.ProgressFunc) (entity.CompressResult, error) {
			progress = p
			<-release
			p(100, 100)
			return sampleResult(), nil
		}),
		Events: ev,
		Sink: sinkFunc(func(rec entity.CompressionRecord) {
			mu.Lock()
			added = append(added, rec.ID)
			mu.Unlock()
		}),
	})

	_, err := c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)
	run, err := c.Begin(context.Background())
	require.NoError(t, err)

	done := make(chan entity.JobState)
	go func() { done <- run(context.Background()) }()

	st := c.Reset(context.Background())
	assert.Equal(t, entity.JobStatusIdle, st.Status)
	eventsAtReset := len(ev.states())

	close(release)
	detached := <-done
	assert.Equal(t, entity.JobStatusCompleted, detached.Status)
	assert.NotNil(t, progress)

	assert.Equal(t, entity.JobStatusIdle, c.State().Status)
	assert.Len(t, ev.states(), eventsAtReset, "stale job must not publish")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"42"}, added)
}

func TestController_ResubmitAfterFailure(t *testing.T) {
	attempts := 0
	c := NewController(Dependency{
		Transport: transportFunc(func(ctx context.Context, file entity.File, progress remote.ProgressFunc) (entity.CompressResult, error) {
			attempts++
			if attempts == 1 {
				return entity.CompressResult{}, pkgerror.NewTransport(errors.New("connection refused"))
			}
			return sampleResult(), nil
		}),
	})

	_, err := c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)
	st, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, st.Status)
	assert.Equal(t, 1, attempts)

	_, err = c.Submit(context.Background())
	require.Error(t, err, "failed job must be re-selected first")

	_, err = c.SelectFile(context.Background(), sampleFile())
	require.NoError(t, err)
	st, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, st.Status)
	assert.Equal(t, 2, attempts)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		sent, total int64
		want        int
	}{
		{sent: 0, total: 100, want: 0},
		{sent: -5, total: 100, want: 0},
		{sent: 1, total: 3, want: 33},
		{sent: 2, total: 3, want: 67},
		{sent: 999, total: 1000, want: 99},
		{sent: 1000, total: 1000, want: 100},
		{sent: 2000, total: 1000, want: 100},
		{sent: 0, total: 0, want: 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.sent, tt.total), "Percent(%d, %d)", tt.sent, tt.total)
	}
}
