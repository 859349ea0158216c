package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/arena-backend/internal/apperror"
	"github.com/rocketscienceinc/arena-backend/internal/arena"
	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

const DefaultTeardownGrace = 30 * time.Second

// Notifier delivers one event to one connection. It must not block.
type Notifier interface {
	Notify(conn entity.ConnID, event string, payload any)
}

type roomRepo interface {
	Create(state entity.GameState) (*entity.Room, error)
	GetByCode(code string) (*entity.Room, error)
	Remove(code string)
}

type outcomeNotifier interface {
	Notify(outcome entity.Outcome)
}

type Options struct {
	TeardownGrace time.Duration
	Goals         arena.Goals
	InitialState  entity.GameState
}

type binding struct {
	roomCode string
	slot     entity.Slot
}

type teardown struct {
	timer Timer
	gen   uint64
}

// StartGame is the payload of the startGame event.
type StartGame struct {
	GameState entity.GameState `json:"gameState"`
}

// GameManager owns rooms, bindings and pending teardowns. Exported methods may be
// called from any goroutine; the state they touch is only read or written on the loop.
type GameManager struct {
	logger *slog.Logger

	loop      *Loop
	scheduler Scheduler
	rooms     roomRepo
	notifier  Notifier
	outcomes  outcomeNotifier
	now       func() time.Time

	grace        time.Duration
	goals        arena.Goals
	initialState entity.GameState

	bindings  map[entity.ConnID]binding
	teardowns map[string]teardown
	gen       uint64
}

func NewGameManager(
	logger *slog.Logger,
	loop *Loop,
	scheduler Scheduler,
	rooms roomRepo,
	notifier Notifier,
	outcomes outcomeNotifier,
	opts Options,
) *GameManager {
	if opts.TeardownGrace <= 0 {
		opts.TeardownGrace = DefaultTeardownGrace
	}

	return &GameManager{
		logger: logger.With("component", "gameManager"),

		loop:      loop,
		scheduler: scheduler,
		rooms:     rooms,
		notifier:  notifier,
		outcomes:  outcomes,
		now:       time.Now,

		grace:        opts.TeardownGrace,
		goals:        opts.Goals,
		initialState: opts.InitialState,

		bindings:  make(map[entity.ConnID]binding),
		teardowns: make(map[string]teardown),
	}
}

// CreateRoom - registers an empty room with a fresh copy of the initial state.
func (that *GameManager) CreateRoom(ctx context.Context) (string, error) {
	var code string
	var err error

	if loopErr := that.loop.Do(ctx, func() {
		code, err = that.createRoom()
	}); loopErr != nil {
		return "", loopErr
	}

	return code, err
}

// CheckJoin - reports whether a room could take another participant, without binding anything.
func (that *GameManager) CheckJoin(ctx context.Context, code string) error {
	var err error

	if loopErr := that.loop.Do(ctx, func() {
		err = that.checkJoin(code)
	}); loopErr != nil {
		return loopErr
	}

	return err
}

// JoinRoom - binds conn to the next free slot of the room.
func (that *GameManager) JoinRoom(ctx context.Context, conn entity.ConnID, code string, identity json.RawMessage) (entity.Slot, error) {
	var slot entity.Slot
	var err error

	if loopErr := that.loop.Do(ctx, func() {
		slot, err = that.joinRoom(conn, code, identity)
		if err != nil {
			that.reject(conn, err)
		}
	}); loopErr != nil {
		return entity.NoSlot, loopErr
	}

	return slot, err
}

// SubmitTurn - replaces the room's pieces with the mover's snapshot if it holds the turn.
func (that *GameManager) SubmitTurn(ctx context.Context, conn entity.ConnID, pieces entity.PlayerPieces) error {
	var err error

	if loopErr := that.loop.Do(ctx, func() {
		err = that.submitTurn(conn, pieces)
		if err != nil {
			that.reject(conn, err)
		}
	}); loopErr != nil {
		return loopErr
	}

	return err
}

// Forfeit - announces the other slot as winner of conn's room.
func (that *GameManager) Forfeit(ctx context.Context, conn entity.ConnID, claimed entity.Slot) error {
	var err error

	if loopErr := that.loop.Do(ctx, func() {
		err = that.forfeit(conn, claimed)
		if err != nil {
			that.reject(conn, err)
		}
	}); loopErr != nil {
		return loopErr
	}

	return err
}

// Disconnect - drops conn's binding and arms the room teardown when it falls below two participants.
func (that *GameManager) Disconnect(ctx context.Context, conn entity.ConnID) error {
	return that.loop.Do(ctx, func() {
		that.disconnect(conn)
	})
}

// ScheduleTeardown - arms the room's removal after delay, replacing any pending teardown.
func (that *GameManager) ScheduleTeardown(ctx context.Context, code string, delay time.Duration) error {
	var err error

	if loopErr := that.loop.Do(ctx, func() {
		if _, err = that.rooms.GetByCode(code); err != nil {
			return
		}
		that.scheduleTeardown(code, delay)
	}); loopErr != nil {
		return loopErr
	}

	return err
}

// Close - cancels every pending teardown.
func (that *GameManager) Close(ctx context.Context) error {
	return that.loop.Do(ctx, func() {
		for code := range that.teardowns {
			that.cancelTeardown(code)
		}
	})
}

func (that *GameManager) createRoom() (string, error) {
	room, err := that.rooms.Create(that.initialState)
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	that.logger.Info("room created", "roomCode", room.Code)

	return room.Code, nil
}

func (that *GameManager) checkJoin(code string) error {
	room, err := that.rooms.GetByCode(code)
	if err != nil {
		return err
	}

	if room.IsFull() {
		return apperror.ErrRoomFull
	}

	return nil
}

func (that *GameManager) joinRoom(conn entity.ConnID, code string, identity json.RawMessage) (entity.Slot, error) {
	log := that.logger.With("method", "joinRoom", "roomCode", code, "connID", conn)

	if _, ok := that.bindings[conn]; ok {
		return entity.NoSlot, apperror.ErrAlreadyInRoom
	}

	room, err := that.rooms.GetByCode(code)
	if err != nil {
		return entity.NoSlot, err
	}

	slot := room.NextSlot()
	if slot == entity.NoSlot {
		return entity.NoSlot, apperror.ErrRoomFull
	}

	if entity.IsSupplied(identity) {
		room.GameState.SetIdentity(slot, identity)
	}

	room.AddParticipant(conn, slot)
	that.bindings[conn] = binding{roomCode: code, slot: slot}

	that.notifier.Notify(conn, EventAssignPlayer, slot)
	log.Info("participant bound", "slot", slot)

	if room.IsFull() {
		that.broadcast(room, EventStartGame, StartGame{GameState: room.GameState.Clone()})
		log.Info("game started")
	}

	return slot, nil
}

// bound - resolves conn to its room and participant record.
func (that *GameManager) bound(conn entity.ConnID) (*entity.Room, entity.Participant, error) {
	bind, ok := that.bindings[conn]
	if !ok {
		return nil, entity.Participant{}, apperror.ErrNotInRoom
	}

	room, err := that.rooms.GetByCode(bind.roomCode)
	if err != nil {
		return nil, entity.Participant{}, apperror.ErrRoomMissing
	}

	participant, ok := room.Participant(conn)
	if !ok {
		return nil, entity.Participant{}, apperror.ErrPlayerNotFound
	}

	return room, participant, nil
}

func (that *GameManager) submitTurn(conn entity.ConnID, pieces entity.PlayerPieces) error {
	room, participant, err := that.bound(conn)
	if err != nil {
		return err
	}

	log := that.logger.With("method", "submitTurn", "roomCode", room.Code, "connID", conn)

	switch room.Status() {
	case entity.StatusDecided:
		return apperror.ErrGameFinished
	case entity.StatusWaiting:
		return apperror.ErrGameIsNotStarted
	}

	if participant.Slot != room.GameState.CurrentPlayer {
		log.Debug("turn rejected", "slot", participant.Slot, "currentPlayer", room.GameState.CurrentPlayer)
		return apperror.ErrNotYourTurn
	}

	room.GameState.PlayerPiecesData = pieces.Clone()

	if winner := arena.Evaluate(&room.GameState, that.goals); winner != entity.NoSlot {
		room.GameState.Winner = winner
		that.announceWin(room, winner, entity.ReasonGoal)
		that.scheduleTeardown(room.Code, that.grace)

		log.Info("game won", "winner", winner)
		return nil
	}

	room.GameState.PassTurn()
	that.broadcast(room, EventUpdateGameState, room.GameState.Clone())

	return nil
}

func (that *GameManager) forfeit(conn entity.ConnID, claimed entity.Slot) error {
	room, participant, err := that.bound(conn)
	if err != nil {
		return err
	}

	log := that.logger.With("method", "forfeit", "roomCode", room.Code, "connID", conn)

	if claimed != participant.Slot {
		log.Warn("forfeit claims another slot, using the bound one", "claimed", claimed, "slot", participant.Slot)
	}

	winner := participant.Slot.Opponent()
	that.announceWin(room, winner, entity.ReasonForfeit)

	log.Info("game forfeited", "winner", winner)

	return nil
}

func (that *GameManager) disconnect(conn entity.ConnID) {
	bind, ok := that.bindings[conn]
	if !ok {
		return
	}
	delete(that.bindings, conn)

	log := that.logger.With("method", "disconnect", "roomCode", bind.roomCode, "connID", conn)

	room, err := that.rooms.GetByCode(bind.roomCode)
	if err != nil {
		log.Debug("room already gone")
		return
	}

	room.RemoveParticipant(conn)

	if room.IsFull() {
		return
	}

	that.broadcast(room, EventResetGame, nil)
	that.scheduleTeardown(room.Code, that.grace)

	log.Info("participant left", "remaining", len(room.Participants))
}

// announceWin - tells the room who won. Only the room's first decision reaches the ledgers.
func (that *GameManager) announceWin(room *entity.Room, winner entity.Slot, reason string) {
	won := arena.NewGameWon(&room.GameState, winner)
	that.broadcast(room, EventGameWon, won)

	if that.outcomes == nil || room.OutcomeRecorded {
		return
	}
	room.OutcomeRecorded = true

	that.outcomes.Notify(entity.Outcome{
		GameWon:   arena.NewGameWon(&room.GameState, winner),
		RoomCode:  room.Code,
		Reason:    reason,
		DecidedAt: that.now().UTC(),
	})
}

func (that *GameManager) scheduleTeardown(code string, delay time.Duration) {
	that.cancelTeardown(code)

	that.gen++
	gen := that.gen

	timer := that.scheduler.AfterFunc(delay, func() {
		that.loop.Post(func() {
			that.fireTeardown(code, gen)
		})
	})

	that.teardowns[code] = teardown{timer: timer, gen: gen}
	that.logger.Debug("teardown armed", "roomCode", code, "delay", delay)
}

func (that *GameManager) cancelTeardown(code string) {
	pending, ok := that.teardowns[code]
	if !ok {
		return
	}

	pending.timer.Stop()
	delete(that.teardowns, code)
}

// fireTeardown - removes the room unless the firing was superseded or cancelled.
func (that *GameManager) fireTeardown(code string, gen uint64) {
	pending, ok := that.teardowns[code]
	if !ok || pending.gen != gen {
		return
	}
	delete(that.teardowns, code)

	room, err := that.rooms.GetByCode(code)
	if err != nil {
		return
	}

	that.broadcast(room, EventRoomClosed, nil)

	for _, conn := range room.ConnIDs() {
		delete(that.bindings, conn)
	}
	that.rooms.Remove(code)

	that.logger.Info("room closed", "roomCode", code)
}

func (that *GameManager) broadcast(room *entity.Room, event string, payload any) {
	for _, conn := range room.ConnIDs() {
		that.notifier.Notify(conn, event, payload)
	}
}

func (that *GameManager) reject(conn entity.ConnID, err error) {
	event, message := ClientError(err)
	that.notifier.Notify(conn, event, message)

	that.logger.Debug("request rejected", "connID", conn, "error", err)
}
