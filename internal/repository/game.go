package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

// GameRepository persists observed games and their packet logs so past
// games can be replayed after a restart.
type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(db *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{db: db, logger: logger}
}

type RecordedGame struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	UpdatedAt   string `json:"updated_at"`
	PacketCount int    `json:"packet_count"`
	RecordedAt  string `json:"recorded_at"`
}

// Upsert replaces a game's metadata and full packet log in one
// transaction. The feed delivers whole logs, so partial packet diffs are
// never written.
func (r *GameRepository) Upsert(ctx context.Context, item protocol.GameItem, packets []protocol.RealtimePacket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, filename, updated_at, packet_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			updated_at = excluded.updated_at,
			packet_count = excluded.packet_count`,
		item.ID, item.Filename, item.UpdatedAt, len(packets))
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", item.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM packets WHERE game_id = ?`, item.ID); err != nil {
		return fmt.Errorf("clear packets for %s: %w", item.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO packets (id, game_id, position, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare packet insert: %w", err)
	}
	defer stmt.Close()

	for i, packet := range packets {
		payload, err := json.Marshal(packet)
		if err != nil {
			return fmt.Errorf("encode packet %d of %s: %w", i, item.ID, err)
		}
		rowID, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rowID, item.ID, i, string(payload)); err != nil {
			return fmt.Errorf("insert packet %d of %s: %w", i, item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Debug().Str("game_id", item.ID).Int("packets", len(packets)).Msg("game recorded")
	return nil
}

// List returns recorded game metadata, most recently updated first.
func (r *GameRepository) List(ctx context.Context) ([]RecordedGame, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, updated_at, packet_count, recorded_at
		FROM games ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := []RecordedGame{}
	for rows.Next() {
		var game RecordedGame
		if err := rows.Scan(&game.ID, &game.Filename, &game.UpdatedAt, &game.PacketCount, &game.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// Packets loads a recorded game's packet log in its stored order.
func (r *GameRepository) Packets(ctx context.Context, gameID string) ([]protocol.RealtimePacket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM packets WHERE game_id = ? ORDER BY position ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load packets for %s: %w", gameID, err)
	}
	defer rows.Close()

	var packets []protocol.RealtimePacket
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan packet: %w", err)
		}
		var packet protocol.RealtimePacket
		if err := json.Unmarshal([]byte(payload), &packet); err != nil {
			return nil, fmt.Errorf("decode packet for %s: %w", gameID, err)
		}
		packets = append(packets, packet)
	}
	return packets, rows.Err()
}
