package entity

const (
	StatusWaiting = "waiting"
	StatusActive  = "active"
	StatusDecided = "decided"
)

const MaxParticipants = 2

// ConnID identifies one live connection.
type ConnID string

type Participant struct {
	ConnID ConnID `json:"id"`
	Slot   Slot   `json:"playerNumber"`
}

type Room struct {
	Code         string
	Participants []Participant
	GameState    GameState

	// OutcomeRecorded is set once the room's first decision went to the result ledgers.
	OutcomeRecorded bool
}

func NewRoom(code string, state GameState) *Room {
	return &Room{
		Code:      code,
		GameState: state,
	}
}

func (that *Room) IsFull() bool {
	return len(that.Participants) >= MaxParticipants
}

// Status - derives the room's position in the waiting -> active -> decided state machine.
func (that *Room) Status() string {
	switch {
	case that.GameState.IsDecided():
		return StatusDecided
	case that.IsFull():
		return StatusActive
	default:
		return StatusWaiting
	}
}

// NextSlot - returns the lowest slot nobody holds, or NoSlot when the room is full.
func (that *Room) NextSlot() Slot {
	if that.IsFull() {
		return NoSlot
	}

	for _, slot := range []Slot{SlotOne, SlotTwo} {
		taken := false
		for _, participant := range that.Participants {
			if participant.Slot == slot {
				taken = true
				break
			}
		}
		if !taken {
			return slot
		}
	}

	return NoSlot
}

func (that *Room) AddParticipant(conn ConnID, slot Slot) {
	that.Participants = append(that.Participants, Participant{ConnID: conn, Slot: slot})
}

func (that *Room) Participant(conn ConnID) (Participant, bool) {
	for _, participant := range that.Participants {
		if participant.ConnID == conn {
			return participant, true
		}
	}
	return Participant{}, false
}

// RemoveParticipant - drops the connection from the room, keeping admission order of the rest.
func (that *Room) RemoveParticipant(conn ConnID) bool {
	for i, participant := range that.Participants {
		if participant.ConnID == conn {
			that.Participants = append(that.Participants[:i], that.Participants[i+1:]...)
			return true
		}
	}
	return false
}

func (that *Room) ConnIDs() []ConnID {
	ids := make([]ConnID, 0, len(that.Participants))
	for _, participant := range that.Participants {
		ids = append(ids, participant.ConnID)
	}
	return ids
}
