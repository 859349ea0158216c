package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/arena-backend/internal/usecase"
)

var errBadPayload = errors.New("bad payload")

func (that *Server) handleJoinRoom(ctx context.Context, c *connection, msg *Message) error {
	var payload JoinRoomPayload
	if err := that.decode(c, msg, &payload); err != nil {
		return err
	}

	code := text(payload.RoomCode)

	slot, err := that.game.JoinRoom(ctx, c.id, code, payload.WalletConnected)
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.logger.Debug("joined room", "connID", c.id, "roomCode", code, "slot", slot)

	return nil
}

func (that *Server) handlePlayerMove(ctx context.Context, c *connection, msg *Message) error {
	var payload PlayerMovePayload
	if err := that.decode(c, msg, &payload); err != nil {
		return err
	}

	if err := that.game.SubmitTurn(ctx, c.id, payload.PlayerPiecesData); err != nil {
		return fmt.Errorf("failed to submit turn: %w", err)
	}

	return nil
}

func (that *Server) handleForfeit(ctx context.Context, c *connection, msg *Message) error {
	var payload ForfeitPayload
	if err := that.decode(c, msg, &payload); err != nil {
		return err
	}

	if err := that.game.Forfeit(ctx, c.id, slotOf(payload.PlayerNumber)); err != nil {
		return fmt.Errorf("failed to forfeit: %w", err)
	}

	return nil
}

// decode - unmarshals the payload, telling the client when it is not a JSON object.
func (that *Server) decode(c *connection, msg *Message, out any) error {
	if len(msg.Payload) == 0 {
		msg.Payload = json.RawMessage("{}")
	}

	if err := json.Unmarshal(msg.Payload, out); err != nil {
		that.hub.Notify(c.id, usecase.EventError, errInvalidPayload)
		return fmt.Errorf("%w: %w", errBadPayload, err)
	}

	return nil
}
