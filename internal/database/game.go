package database

import (
	"context"
	"fmt"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/api"
	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Archive persists finished results and recorded session events.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// RecordResult stores the server's result for a finished room.
func (a *Archive) RecordResult(ctx context.Context, game string, res *api.Result) error {
	err := pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, u := range res.Users {
			q := `
				INSERT INTO game_results (room_id, game, user_id, score, coin, did_win)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (game, room_id, user_id)
				DO UPDATE SET score=$4, coin=$5, did_win=$6
			`
			if _, err := tx.Exec(ctx, q, res.RoomID, game, u.UserID, u.Score, u.Coin, u.IsWinner); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert results for room %d: %w", res.RoomID, err)
	}
	return nil
}

// InsertEvents writes a batch of session events in one transaction, creating
// session rows as needed and closing sessions whose final event is in the batch.
func (a *Archive) InsertEvents(ctx context.Context, batch []cache.SessionEventRecord) error {
	return pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := insertEventTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertEventTx: %w", err)
			}
		}
		return nil
	})
}

// MarkAbandoned closes a session that stopped producing events.
func (a *Archive) MarkAbandoned(ctx context.Context, sessionID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE sessions
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, err := tx.Exec(ctx, q, sessionID)
		return err
	})
}

// Terminal reports whether an event ends its session.
func Terminal(eventType string) bool {
	switch eventType {
	case "GAME_OVER", "GAME_CLEAR", "DISCONNECT", "MATCH_CANCEL":
		return true
	}
	return false
}

func insertEventTx(ctx context.Context, tx pgx.Tx, rec cache.SessionEventRecord) error {
	upsertSessionQ := `
		INSERT INTO sessions (id, room_id, game, user_id, status)
		VALUES ($1, $2, $3, $4, 'in_progress')
		ON CONFLICT (id)
		DO UPDATE SET room_id = GREATEST(sessions.room_id, EXCLUDED.room_id)
	`
	if _, err := tx.Exec(ctx, upsertSessionQ, rec.SessionID, rec.RoomID, rec.Game, rec.UserID); err != nil {
		return err
	}

	eventQ := `
		INSERT INTO session_events (session_id, event_index, direction, event_type, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, event_index) DO NOTHING
	`
	var payload []byte
	if len(rec.Payload) > 0 {
		payload = rec.Payload
	}
	recorded := time.UnixMilli(rec.Timestamp)
	if _, err := tx.Exec(ctx, eventQ, rec.SessionID, rec.EventIndex, rec.Direction, rec.EventType, payload, recorded); err != nil {
		return err
	}

	if Terminal(rec.EventType) {
		finalizeQ := `
			UPDATE sessions
			SET status = 'completed', end_time = $2
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.SessionID, recorded); err != nil {
			return err
		}
	}
	return nil
}
