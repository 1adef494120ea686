package pkgroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDefaultMax(t *testing.T) {
	assert.Equal(t, DefaultMaxGoroutine, cap(NewManager(0).sema))
	assert.Equal(t, 3, cap(NewManager(3).sema))
}

func TestManagerCollectsErrors(t *testing.T) {
	mgr := NewManager(2)
	errUpload := errors.New("upload failed")
	errList := errors.New("list failed")

	mgr.Go(context.Background(), func(context.Context) error { return errUpload })
	mgr.Go(context.Background(), func(context.Context) error { return nil })
	mgr.Go(context.Background(), func(context.Context) error { return errList })

	err := mgr.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, errUpload)
	assert.ErrorIs(t, err, errList)
}

func TestManagerTurnsPanicIntoError(t *testing.T) {
	mgr := NewManager(1)
	mgr.Go(context.Background(), func(context.Context) error { panic("boom") })

	err := mgr.Wait()
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 0, mgr.InFlight())
}

func TestManagerInFlight(t *testing.T) {
	mgr := NewManager(2)
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	for i := 0; i < 2; i++ {
		mgr.Go(context.Background(), func(context.Context) error {
			started <- struct{}{}
			<-release
			return nil
		})
	}
	<-started
	<-started

	assert.Equal(t, 2, mgr.InFlight())
	close(release)
	require.NoError(t, mgr.Wait())
	assert.Equal(t, 0, mgr.InFlight())
}

func TestManagerDropsTaskWhenContextDoneAtCapacity(t *testing.T) {
	mgr := NewManager(1)
	release := make(chan struct{})
	mgr.Go(context.Background(), func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	mgr.Go(ctx, func(context.Context) error {
		ran = true
		return nil
	})

	close(release)
	require.NoError(t, mgr.Wait())
	assert.False(t, ran)
}

func TestManagerSkipsCanceledContext(t *testing.T) {
	mgr := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	mgr.Go(ctx, func(context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, mgr.Wait())
	assert.False(t, ran)
}
