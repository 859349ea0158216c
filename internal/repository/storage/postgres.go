package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// register the postgres driver with database/sql.
	_ "github.com/lib/pq"
)

const resultsTable = `CREATE TABLE IF NOT EXISTS arena_results (
	id            BIGSERIAL PRIMARY KEY,
	room_code     TEXT        NOT NULL,
	reason        TEXT        NOT NULL,
	winner        SMALLINT    NOT NULL,
	register_win  JSONB,
	pieces        JSONB       NOT NULL,
	decided_at    TIMESTAMPTZ NOT NULL
)`

const (
	resultsIndex         = `CREATE INDEX IF NOT EXISTS arena_results_room_code_idx ON arena_results (room_code)`
	resultsRegisterIndex = `CREATE INDEX IF NOT EXISTS arena_results_register_win_idx ON arena_results (register_win)`
)

type Postgres struct {
	Connection *sql.DB
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Postgres{Connection: conn}, nil
}

// Init - creates the results table when it does not exist yet.
func (that *Postgres) Init(ctx context.Context) error {
	for _, query := range []string{resultsTable, resultsIndex, resultsRegisterIndex} {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *Postgres) Close() error {
	return that.Connection.Close()
}
