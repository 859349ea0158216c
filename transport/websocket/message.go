package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

// Incoming actions.
const (
	ActionJoinRoom   = "joinRoom"
	ActionPlayerMove = "playerMove"
	ActionForfeit    = "forfeit"
)

const (
	errInvalidPayload = "Invalid payload."
	errUnknownAction  = "Unknown action."
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRoomPayload fields are read leniently: a room code that is not a string is looked up by its
// JSON text and the identity is kept exactly as sent.
type JoinRoomPayload struct {
	RoomCode        json.RawMessage `json:"roomCode"`
	WalletConnected json.RawMessage `json:"walletConnected"`
}

type PlayerMovePayload struct {
	PlayerPiecesData entity.PlayerPieces `json:"playerPiecesData"`
}

type ForfeitPayload struct {
	PlayerNumber json.RawMessage `json:"playerNumber"`
}

// text - returns a JSON string's value, or the raw JSON text of anything else.
func text(raw json.RawMessage) string {
	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}
	return string(raw)
}

// slotOf - reads a slot number, entity.NoSlot when raw is not a whole number.
func slotOf(raw json.RawMessage) entity.Slot {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return entity.NoSlot
	}

	number, ok := value.(float64)
	if !ok || number != float64(int(number)) {
		return entity.NoSlot
	}
	return entity.Slot(int(number))
}

func encode(action string, payload any) ([]byte, error) {
	message := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		message.Payload = raw
	}

	return json.Marshal(message)
}
