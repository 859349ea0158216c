package arena

import (
	"encoding/json"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

// Goals holds the position marker each slot has to reach to win.
type Goals struct {
	SlotOne int
	SlotTwo int
}

var DefaultGoals = Goals{SlotOne: 1, SlotTwo: 18}

func (that Goals) For(slot entity.Slot) int {
	if slot == entity.SlotTwo {
		return that.SlotTwo
	}
	return that.SlotOne
}

// Evaluate - returns the slot that reached its goal marker, or entity.NoSlot.
// Slot one is checked first, so a state where both reached their goals goes to slot one.
// Pieces without a whole numeric index never count as reaching a goal.
func Evaluate(state *entity.GameState, goals Goals) entity.Slot {
	for _, slot := range []entity.Slot{entity.SlotOne, entity.SlotTwo} {
		if reachedGoal(state.PlayerPiecesData.Of(slot), goals.For(slot)) {
			return slot
		}
	}

	return entity.NoSlot
}

// RegisterWin - returns the winner's external identity when both slots supplied one, nil otherwise.
func RegisterWin(state *entity.GameState, winner entity.Slot) json.RawMessage {
	if !entity.IsSupplied(state.WalletConnected1) || !entity.IsSupplied(state.WalletConnected2) {
		return nil
	}

	identity := state.Identity(winner)
	if identity == nil {
		return nil
	}

	return append(json.RawMessage(nil), identity...)
}

// NewGameWon - builds the broadcast payload announcing winner.
func NewGameWon(state *entity.GameState, winner entity.Slot) entity.GameWon {
	return entity.GameWon{
		RegisterWin:      RegisterWin(state, winner),
		Winner:           winner,
		PlayerPiecesData: state.PlayerPiecesData.Clone(),
	}
}

func reachedGoal(pieces map[string]entity.Piece, goal int) bool {
	for _, piece := range pieces {
		if index, ok := piece.Index(); ok && index == goal {
			return true
		}
	}
	return false
}
