package arena

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

//go:embed roster.json
var defaultRoster []byte

var ErrMissingSlotPieces = errors.New("initial state must define pieces for both slots")

// LoadInitialState - reads the initial game state from path, or the built-in roster when path is empty.
func LoadInitialState(path string) (entity.GameState, error) {
	raw := defaultRoster

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return entity.GameState{}, fmt.Errorf("failed to read initial state: %w", err)
		}
		raw = data
	}

	return ParseInitialState(raw)
}

// ParseInitialState - decodes an initial state blob and resets the fields the server owns.
func ParseInitialState(raw []byte) (entity.GameState, error) {
	var state entity.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return entity.GameState{}, fmt.Errorf("failed to unmarshal initial state: %w", err)
	}

	for _, slot := range []entity.Slot{entity.SlotOne, entity.SlotTwo} {
		if state.PlayerPiecesData.Of(slot) == nil {
			return entity.GameState{}, fmt.Errorf("%w: slot %d", ErrMissingSlotPieces, slot)
		}
	}

	if !state.CurrentPlayer.IsValid() {
		state.CurrentPlayer = entity.SlotOne
	}
	state.Winner = entity.NoSlot
	state.WalletConnected1 = nil
	state.WalletConnected2 = nil

	return state, nil
}
