package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

const DefaultSinkTimeout = 5 * time.Second

// OutcomeSink stores or forwards a decided match somewhere outside the process.
type OutcomeSink interface {
	Record(ctx context.Context, outcome *entity.Outcome) error
}

// SinkFunc adapts a plain function to OutcomeSink.
type SinkFunc func(ctx context.Context, outcome *entity.Outcome) error

func (that SinkFunc) Record(ctx context.Context, outcome *entity.Outcome) error {
	return that(ctx, outcome)
}

type NamedSink struct {
	Name string
	Sink OutcomeSink
}

type OutcomeService interface {
	Notify(outcome entity.Outcome)
	Wait()
}

type outcomeService struct {
	logger  *slog.Logger
	timeout time.Duration
	sinks   []NamedSink

	inFlight sync.WaitGroup
}

func NewOutcomeService(logger *slog.Logger, timeout time.Duration, sinks ...NamedSink) OutcomeService {
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}

	return &outcomeService{
		logger:  logger.With("component", "outcome"),
		timeout: timeout,
		sinks:   sinks,
	}
}

// Notify - hands the outcome to every sink in the background. Sink failures are only logged.
func (that *outcomeService) Notify(outcome entity.Outcome) {
	if len(that.sinks) == 0 {
		return
	}

	that.inFlight.Add(1)
	go func() {
		defer that.inFlight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), that.timeout)
		defer cancel()

		that.deliver(ctx, &outcome)
	}()
}

// Wait - blocks until every pending notification has been delivered or given up on.
func (that *outcomeService) Wait() {
	that.inFlight.Wait()
}

func (that *outcomeService) deliver(ctx context.Context, outcome *entity.Outcome) {
	log := that.logger.With("method", "deliver", "roomCode", outcome.RoomCode, "reason", outcome.Reason)

	for _, sink := range that.sinks {
		if err := that.record(ctx, sink, outcome); err != nil {
			log.Error("failed to record outcome", "sink", sink.Name, "error", err)
			continue
		}

		log.Debug("outcome recorded", "sink", sink.Name)
	}
}

func (that *outcomeService) record(ctx context.Context, sink NamedSink, outcome *entity.Outcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()

	return sink.Sink.Record(ctx, outcome)
}
