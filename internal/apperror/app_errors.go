package apperror

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotInRoom        = errors.New("connection is not part of a room")
	ErrRoomMissing      = errors.New("bound room no longer exists")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrPlayerNotFound   = errors.New("player not found in room")
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrAlreadyInRoom    = errors.New("connection is already in a room")
)
