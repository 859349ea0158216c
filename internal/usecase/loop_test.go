package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test error")

func startLoop(t *testing.T) (context.Context, context.CancelFunc, *Loop) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := NewLoop(newLogger(), 4)
	go loop.Run(ctx)

	return ctx, cancel, loop
}

func TestLoop_Order(t *testing.T) {
	ctx, _, loop := startLoop(t)

	// Given: events posted from one goroutine
	var seen []int
	for i := range 10 {
		loop.Post(func() {
			seen = append(seen, i)
		})
	}

	// When: waiting behind them
	require.NoError(t, loop.Do(ctx, func() {}))

	// Then: they ran in posting order
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, seen)
}

func TestLoop_Panic(t *testing.T) {
	ctx, _, loop := startLoop(t)

	// When: one event panics
	err := loop.Do(ctx, func() {
		panic(errTest)
	})

	// Then: the caller gets an error and the loop keeps serving
	require.ErrorIs(t, err, ErrEventPanicked)
	assert.Contains(t, err.Error(), errTest.Error())

	loop.Post(func() {
		panic("posted")
	})

	ran := false
	require.NoError(t, loop.Do(ctx, func() {
		ran = true
	}))
	assert.True(t, ran)
}

func TestLoop_Stopped(t *testing.T) {
	_, cancel, loop := startLoop(t)

	// Given: the loop was stopped
	cancel()
	select {
	case <-loop.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}

	// When: more work arrives
	err := loop.Do(context.Background(), func() {})
	loop.Post(func() {})

	// Then: Do reports it and Post does not block
	require.ErrorIs(t, err, ErrLoopStopped)
}

func TestLoop_CallerContext(t *testing.T) {
	ctx, _, loop := startLoop(t)

	// Given: the loop is busy
	release := make(chan struct{})
	loop.Post(func() {
		<-release
	})
	t.Cleanup(func() {
		close(release)
	})

	// When: a caller gives up waiting
	callCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := loop.Do(callCtx, func() {})

	// Then
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
