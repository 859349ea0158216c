package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

const DefaultLoopBuffer = 256

var (
	ErrLoopStopped   = errors.New("event loop is stopped")
	ErrEventPanicked = errors.New("event panicked")
)

// Loop runs every room transition on one goroutine, in the order events were posted.
type Loop struct {
	logger *slog.Logger

	events chan func()
	done   chan struct{}
}

func NewLoop(logger *slog.Logger, buffer int) *Loop {
	if buffer <= 0 {
		buffer = DefaultLoopBuffer
	}

	return &Loop{
		logger: logger.With("component", "loop"),
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Run - processes events until ctx is canceled. It must be called exactly once.
func (that *Loop) Run(ctx context.Context) {
	defer close(that.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-that.events:
			_ = that.exec(event)
		}
	}
}

// Post - queues fn without waiting for it. Events posted after the loop stopped are dropped.
// Post must not be called from inside an event.
func (that *Loop) Post(fn func()) {
	select {
	case that.events <- fn:
	case <-that.done:
		that.logger.Debug("event dropped, loop is stopped")
	}
}

// Do - runs fn on the loop and waits for it to finish.
func (that *Loop) Do(ctx context.Context, fn func()) error {
	result := make(chan error, 1)
	event := func() {
		result <- that.exec(fn)
	}

	select {
	case that.events <- event:
	case <-ctx.Done():
		return fmt.Errorf("failed to post event: %w", ctx.Err())
	case <-that.done:
		return ErrLoopStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for event: %w", ctx.Err())
	case <-that.done:
		return ErrLoopStopped
	}
}

// Done - is closed once Run has returned.
func (that *Loop) Done() <-chan struct{} {
	return that.done
}

func (that *Loop) exec(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("recovered from panic in event", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrEventPanicked, r)
		}
	}()

	fn()

	return nil
}
