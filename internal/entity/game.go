package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Slot is a participant's fixed position in a room.
type Slot int

const (
	NoSlot  Slot = 0
	SlotOne Slot = 1
	SlotTwo Slot = 2
)

// OffBoard is the position marker of a piece that has not been placed yet.
const OffBoard = -1

const indexKey = "index"

var null = []byte("null")

var ErrPieceNotFound = errors.New("piece not found")

func (that Slot) IsValid() bool {
	return that == SlotOne || that == SlotTwo
}

// Opponent - returns the other slot of the room.
func (that Slot) Opponent() Slot {
	if that == SlotOne {
		return SlotTwo
	}
	return SlotOne
}

func (that Slot) key() string {
	return strconv.Itoa(int(that))
}

// Piece is one piece exactly as a client sent it. The server only ever reads its index.
type Piece json.RawMessage

func (that Piece) MarshalJSON() ([]byte, error) {
	return rawOrNull(that), nil
}

func (that *Piece) UnmarshalJSON(data []byte) error {
	*that = append((*that)[:0], data...)
	return nil
}

// Index - returns the piece's position marker. ok is false unless the index is a whole JSON number.
func (that Piece) Index() (int, bool) {
	raw := that.Attribute(indexKey)
	if raw == nil {
		return 0, false
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}

	number, ok := value.(float64)
	if !ok || number != math.Trunc(number) || math.Abs(number) > math.MaxInt32 {
		return 0, false
	}

	return int(number), true
}

// Attribute - returns one raw field of the piece, nil when the piece is not an object or lacks it.
func (that Piece) Attribute(name string) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(that, &fields); err != nil {
		return nil
	}
	return fields[name]
}

// PlayerPieces is the pieces snapshot of both slots, kept byte for byte as the last mover sent it.
type PlayerPieces json.RawMessage

// NewPlayerPieces - encodes pieces keyed by slot.
func NewPlayerPieces(pieces map[Slot]map[string]Piece) (PlayerPieces, error) {
	data, err := json.Marshal(pieces)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pieces: %w", err)
	}
	return data, nil
}

func (that PlayerPieces) MarshalJSON() ([]byte, error) {
	return rawOrNull(that), nil
}

func (that *PlayerPieces) UnmarshalJSON(data []byte) error {
	*that = append((*that)[:0], data...)
	return nil
}

func (that PlayerPieces) Clone() PlayerPieces {
	if that == nil {
		return nil
	}
	return append(PlayerPieces(nil), that...)
}

// Of - returns the pieces of slot keyed by name, nil when the snapshot holds no object for it.
func (that PlayerPieces) Of(slot Slot) map[string]Piece {
	var slots map[string]json.RawMessage
	if err := json.Unmarshal(that, &slots); err != nil {
		return nil
	}

	raw, ok := slots[slot.key()]
	if !ok {
		return nil
	}

	var pieces map[string]Piece
	if err := json.Unmarshal(raw, &pieces); err != nil {
		return nil
	}
	return pieces
}

// WithIndex - returns a copy of the snapshot with one piece moved to index.
func (that PlayerPieces) WithIndex(slot Slot, name string, index int) (PlayerPieces, error) {
	var slots map[string]map[string]map[string]json.RawMessage
	if err := json.Unmarshal(that, &slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pieces: %w", err)
	}

	piece := slots[slot.key()][name]
	if piece == nil {
		return nil, fmt.Errorf("%w: slot %d %s", ErrPieceNotFound, slot, name)
	}
	piece[indexKey] = json.RawMessage(strconv.Itoa(index))

	data, err := json.Marshal(slots)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pieces: %w", err)
	}
	return data, nil
}

// GameState is the authoritative snapshot shared by both participants of a room.
type GameState struct {
	PlayerPiecesData PlayerPieces    `json:"playerPiecesData"`
	CurrentPlayer    Slot            `json:"currentPlayer"`
	Winner           Slot            `json:"winner"`
	WalletConnected1 json.RawMessage `json:"walletConnected1"`
	WalletConnected2 json.RawMessage `json:"walletConnected2"`
}

func (that *GameState) Clone() GameState {
	return GameState{
		PlayerPiecesData: that.PlayerPiecesData.Clone(),
		CurrentPlayer:    that.CurrentPlayer,
		Winner:           that.Winner,
		WalletConnected1: cloneRaw(that.WalletConnected1),
		WalletConnected2: cloneRaw(that.WalletConnected2),
	}
}

func (that *GameState) IsDecided() bool {
	return that.Winner != NoSlot
}

// PassTurn - hands the turn to the other slot.
func (that *GameState) PassTurn() {
	that.CurrentPlayer = that.CurrentPlayer.Opponent()
}

// Identity - returns the external identity supplied by the slot at admission, if any.
func (that *GameState) Identity(slot Slot) json.RawMessage {
	switch slot {
	case SlotOne:
		return that.WalletConnected1
	case SlotTwo:
		return that.WalletConnected2
	default:
		return nil
	}
}

func (that *GameState) SetIdentity(slot Slot, identity json.RawMessage) {
	switch slot {
	case SlotOne:
		that.WalletConnected1 = cloneRaw(identity)
	case SlotTwo:
		that.WalletConnected2 = cloneRaw(identity)
	}
}

// IsSupplied reports whether a client sent a value other than null. Any JSON value counts,
// the empty string included.
func IsSupplied(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, null)
}

func rawOrNull(raw []byte) []byte {
	if len(raw) == 0 {
		return null
	}
	return raw
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
