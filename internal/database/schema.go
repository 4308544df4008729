package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          UUID PRIMARY KEY,
	room_id     BIGINT NOT NULL,
	game        TEXT NOT NULL,
	user_id     BIGINT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	start_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS session_events (
	session_id  UUID NOT NULL REFERENCES sessions(id),
	event_index INT NOT NULL,
	direction   TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	payload     JSONB,
	recorded_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, event_index)
);

CREATE TABLE IF NOT EXISTS game_results (
	room_id     BIGINT NOT NULL,
	game        TEXT NOT NULL,
	user_id     BIGINT NOT NULL,
	score       INT NOT NULL,
	coin        INT NOT NULL DEFAULT 0,
	did_win     BOOLEAN NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game, room_id, user_id)
);
`

// Migrate creates the archive tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
