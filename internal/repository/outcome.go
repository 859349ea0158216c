package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

const (
	outcomePrefix    = "outcome:"
	recentOutcomeKey = "outcomes:recent"
	maxRecent        = 100
)

var ErrOutcomeNotFound = errors.New("outcome not found")

type OutcomeRepository interface {
	Record(ctx context.Context, outcome *entity.Outcome) error
	ListByRoom(ctx context.Context, roomCode string) ([]entity.Outcome, error)
	Recent(ctx context.Context, limit int64) ([]entity.Outcome, error)
}

type dbOutcome struct {
	client *redis.Client
}

func NewOutcomeRepository(client *redis.Client) OutcomeRepository {
	return &dbOutcome{
		client: client,
	}
}

// Record - appends the outcome to its room's history and to the capped recent list.
func (that *dbOutcome) Record(ctx context.Context, outcome *entity.Outcome) error {
	outcomeJSON, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("could not marshal outcome: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.RPush(ctx, outcomePrefix+outcome.RoomCode, outcomeJSON)
	pipe.LPush(ctx, recentOutcomeKey, outcomeJSON)
	pipe.LTrim(ctx, recentOutcomeKey, 0, maxRecent-1)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	return nil
}

// ListByRoom - returns a room's outcomes in the order they were recorded.
func (that *dbOutcome) ListByRoom(ctx context.Context, roomCode string) ([]entity.Outcome, error) {
	response, err := that.client.LRange(ctx, outcomePrefix+roomCode, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get outcomes by room: %w", err)
	}

	if len(response) == 0 {
		return nil, ErrOutcomeNotFound
	}

	return decodeOutcomes(response)
}

// Recent - returns up to limit outcomes, newest first.
func (that *dbOutcome) Recent(ctx context.Context, limit int64) ([]entity.Outcome, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	response, err := that.client.LRange(ctx, recentOutcomeKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent outcomes: %w", err)
	}

	return decodeOutcomes(response)
}

func decodeOutcomes(raw []string) ([]entity.Outcome, error) {
	outcomes := make([]entity.Outcome, 0, len(raw))
	for _, item := range raw {
		var outcome entity.Outcome
		if err := json.Unmarshal([]byte(item), &outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
