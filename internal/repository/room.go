package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/arena-backend/internal/apperror"
	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

const (
	DefaultCodeLength = 6
	maxCodeAttempts   = 16
)

var ErrNoFreeCode = errors.New("could not generate a free room code")

type RoomRepository interface {
	Create(state entity.GameState) (*entity.Room, error)
	GetByCode(code string) (*entity.Room, error)
	Remove(code string)
	Count() int
}

// CodeGenerator produces candidate room codes.
type CodeGenerator func() string

// memoryRoom keeps active rooms in process memory. It is not safe for concurrent use:
// the event loop is its only caller.
type memoryRoom struct {
	rooms    map[string]*entity.Room
	generate CodeGenerator
}

func NewRoomRepository(codeLength int) RoomRepository {
	return NewRoomRepositoryWithGenerator(UUIDCodeGenerator(codeLength))
}

func NewRoomRepositoryWithGenerator(generate CodeGenerator) RoomRepository {
	return &memoryRoom{
		rooms:    make(map[string]*entity.Room),
		generate: generate,
	}
}

// UUIDCodeGenerator - returns a generator taking the first length characters of a random UUID.
func UUIDCodeGenerator(length int) CodeGenerator {
	if length <= 0 || length > 32 {
		length = DefaultCodeLength
	}

	return func() string {
		return uuid.NewString()[:length]
	}
}

// Create - registers a new empty room holding its own copy of state.
func (that *memoryRoom) Create(state entity.GameState) (*entity.Room, error) {
	for range maxCodeAttempts {
		code := that.generate()
		if _, taken := that.rooms[code]; taken || code == "" {
			continue
		}

		room := entity.NewRoom(code, state.Clone())
		that.rooms[code] = room

		return room, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrNoFreeCode, maxCodeAttempts)
}

func (that *memoryRoom) GetByCode(code string) (*entity.Room, error) {
	room, ok := that.rooms[code]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

// Remove - deletes the room; removing an unknown code is a no-op.
func (that *memoryRoom) Remove(code string) {
	delete(that.rooms, code)
}

func (that *memoryRoom) Count() int {
	return len(that.rooms)
}
