package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

type ResultRepository interface {
	Record(ctx context.Context, outcome *entity.Outcome) error
	CountWins(ctx context.Context, identity string) (int, error)
}

type resultRepository struct {
	conn *sql.DB
}

func NewResultRepository(conn *sql.DB) ResultRepository {
	return &resultRepository{
		conn: conn,
	}
}

func (that *resultRepository) Record(ctx context.Context, outcome *entity.Outcome) error {
	pieces, err := json.Marshal(outcome.PlayerPiecesData)
	if err != nil {
		return fmt.Errorf("could not marshal pieces: %w", err)
	}

	query := `INSERT INTO arena_results (room_code, reason, winner, register_win, pieces, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	var registerWin any
	if outcome.IsRegistrable() {
		registerWin = string(outcome.RegisterWin)
	}

	_, err = that.conn.ExecContext(ctx, query,
		outcome.RoomCode,
		outcome.Reason,
		int(outcome.Winner),
		registerWin,
		string(pieces),
		outcome.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}

	return nil
}

// CountWins - counts registrable wins credited to an external identity sent as a JSON string.
func (that *resultRepository) CountWins(ctx context.Context, identity string) (int, error) {
	query := `SELECT COUNT(*) FROM arena_results WHERE register_win = to_jsonb($1::text)`

	var count int
	if err := that.conn.QueryRowContext(ctx, query, identity).Scan(&count); err != nil {
		return 0, fmt.Errorf("can't count wins: %w", err)
	}

	return count, nil
}
