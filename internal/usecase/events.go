package usecase

import (
	"errors"

	"github.com/rocketscienceinc/arena-backend/internal/apperror"
)

// Outgoing events.
const (
	EventAssignPlayer    = "assignPlayer"
	EventError           = "error"
	EventStartGame       = "startGame"
	EventUpdateGameState = "updateGameState"
	EventInvalidMove     = "invalidMove"
	EventGameWon         = "gameWon"
	EventResetGame       = "resetGame"
	EventRoomClosed      = "roomClosed"
)

const unknownErrorMessage = "Something went wrong."

type clientError struct {
	err     error
	event   string
	message string
}

var clientErrors = []clientError{
	{err: apperror.ErrRoomNotFound, event: EventError, message: "Room not found"},
	{err: apperror.ErrRoomFull, event: EventError, message: "Room is full"},
	{err: apperror.ErrAlreadyInRoom, event: EventError, message: "You are already in a room."},
	{err: apperror.ErrNotInRoom, event: EventError, message: "You are not part of a room."},
	{err: apperror.ErrRoomMissing, event: EventError, message: "Room not found."},
	{err: apperror.ErrPlayerNotFound, event: EventError, message: "Player not found."},
	{err: apperror.ErrNotYourTurn, event: EventInvalidMove, message: "It's not your turn."},
	{err: apperror.ErrGameFinished, event: EventInvalidMove, message: "The game is already over."},
	{err: apperror.ErrGameIsNotStarted, event: EventInvalidMove, message: "The game has not started yet."},
}

// ClientError - maps an error to the event and message the offending connection receives.
func ClientError(err error) (string, string) {
	for _, known := range clientErrors {
		if errors.Is(err, known.err) {
			return known.event, known.message
		}
	}

	return EventError, unknownErrorMessage
}
