package entity

import (
	"encoding/json"
	"time"
)

const (
	ReasonGoal    = "goal"
	ReasonForfeit = "forfeit"
)

// GameWon is the payload broadcast to a room when a match is decided.
type GameWon struct {
	RegisterWin      json.RawMessage `json:"registerWin"`
	Winner           Slot            `json:"winner"`
	PlayerPiecesData PlayerPieces    `json:"playerPiecesData"`
}

// Outcome is what gets handed to the result ledgers after a GameWon broadcast.
type Outcome struct {
	GameWon

	RoomCode  string    `json:"roomCode"`
	Reason    string    `json:"reason"`
	DecidedAt time.Time `json:"decidedAt"`
}

// IsRegistrable reports whether both sides opted in to recording the result.
func (that *Outcome) IsRegistrable() bool {
	return IsSupplied(that.RegisterWin)
}
