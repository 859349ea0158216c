package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/arena-backend/internal/arena"
	"github.com/rocketscienceinc/arena-backend/internal/entity"
	"github.com/rocketscienceinc/arena-backend/internal/repository"
)

type sentEvent struct {
	Conn    entity.ConnID
	Event   string
	Payload string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (that *recordingNotifier) Notify(conn entity.ConnID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, sentEvent{Conn: conn, Event: event, Payload: string(data)})
}

func (that *recordingNotifier) To(conn entity.ConnID) []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []sentEvent
	for _, event := range that.events {
		if event.Conn == conn {
			out = append(out, event)
		}
	}
	return out
}

func (that *recordingNotifier) Named(name string) []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []sentEvent
	for _, event := range that.events {
		if event.Event == name {
			out = append(out, event)
		}
	}
	return out
}

func (that *recordingNotifier) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = nil
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (that *fakeTimer) Stop() bool {
	wasActive := !that.stopped
	that.stopped = true
	return wasActive
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (that *fakeScheduler) AfterFunc(delay time.Duration, fn func()) Timer {
	that.mu.Lock()
	defer that.mu.Unlock()

	timer := &fakeTimer{delay: delay, fn: fn}
	that.timers = append(that.timers, timer)
	return timer
}

func (that *fakeScheduler) Timers() []*fakeTimer {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]*fakeTimer(nil), that.timers...)
}

func (that *fakeScheduler) Active() []*fakeTimer {
	var out []*fakeTimer
	for _, timer := range that.Timers() {
		if !timer.stopped {
			out = append(out, timer)
		}
	}
	return out
}

type recordingOutcomes struct {
	mu       sync.Mutex
	outcomes []entity.Outcome
}

func (that *recordingOutcomes) Notify(outcome entity.Outcome) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.outcomes = append(that.outcomes, outcome)
}

func (that *recordingOutcomes) All() []entity.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]entity.Outcome(nil), that.outcomes...)
}

type harness struct {
	t   *testing.T
	ctx context.Context

	loop      *Loop
	scheduler *fakeScheduler
	rooms     repository.RoomRepository
	notifier  *recordingNotifier
	outcomes  *recordingOutcomes
	manager   *GameManager
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := newLogger()

	loop := NewLoop(logger, 0)
	go loop.Run(ctx)

	initialState, err := arena.LoadInitialState("")
	require.NoError(t, err)

	h := &harness{
		t:         t,
		ctx:       ctx,
		loop:      loop,
		scheduler: &fakeScheduler{},
		rooms:     repository.NewRoomRepository(repository.DefaultCodeLength),
		notifier:  &recordingNotifier{},
		outcomes:  &recordingOutcomes{},
	}

	h.manager = NewGameManager(logger, loop, h.scheduler, h.rooms, h.notifier, h.outcomes, Options{
		Goals:        arena.DefaultGoals,
		InitialState: initialState,
	})

	return h
}

// settle - waits until everything posted so far has been processed.
func (that *harness) settle() {
	that.t.Helper()
	require.NoError(that.t, that.loop.Do(that.ctx, func() {}))
}

// fire - runs a timer callback as the clock would, then waits for the loop.
func (that *harness) fire(timer *fakeTimer) {
	that.t.Helper()
	timer.fn()
	that.settle()
}

// room - returns a snapshot of the room, or nil when it is gone.
func (that *harness) room(code string) *entity.Room {
	that.t.Helper()

	var snapshot *entity.Room
	require.NoError(that.t, that.loop.Do(that.ctx, func() {
		room, err := that.rooms.GetByCode(code)
		if err != nil {
			return
		}
		snapshot = &entity.Room{
			Code:         room.Code,
			Participants: append([]entity.Participant(nil), room.Participants...),
			GameState:    room.GameState.Clone(),
		}
	}))

	return snapshot
}

// activeRoom - creates a room and binds c1 and c2 to it.
func (that *harness) activeRoom(identityOne, identityTwo json.RawMessage) string {
	that.t.Helper()

	code, err := that.manager.CreateRoom(that.ctx)
	require.NoError(that.t, err)

	_, err = that.manager.JoinRoom(that.ctx, "c1", code, identityOne)
	require.NoError(that.t, err)
	_, err = that.manager.JoinRoom(that.ctx, "c2", code, identityTwo)
	require.NoError(that.t, err)

	that.notifier.Reset()

	return code
}

// move - returns the room's current pieces with one piece moved.
func (that *harness) move(code string, slot entity.Slot, piece string, index int) entity.PlayerPieces {
	that.t.Helper()

	room := that.room(code)
	require.NotNil(that.t, room)

	pieces, err := room.GameState.PlayerPiecesData.WithIndex(slot, piece, index)
	require.NoError(that.t, err)

	return pieces
}

func indexOf(t *testing.T, pieces entity.PlayerPieces, slot entity.Slot, name string) int {
	t.Helper()

	index, ok := pieces.Of(slot)[name].Index()
	require.True(t, ok, "piece %s of slot %d has no index", name, slot)
	return index
}

func events(sent []sentEvent) []string {
	names := make([]string, 0, len(sent))
	for _, event := range sent {
		names = append(names, event.Event)
	}
	return names
}

func decode[T any](t *testing.T, event sentEvent) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal([]byte(event.Payload), &out))
	return out
}
