package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteTranscriptRepository implements TranscriptRepository for SQLite.
type SQLiteTranscriptRepository struct {
	db *sql.DB
}

func NewSQLiteTranscriptRepository(db *sql.DB) *SQLiteTranscriptRepository {
	return &SQLiteTranscriptRepository{db: db}
}

func (r *SQLiteTranscriptRepository) SaveGame(ctx context.Context, game ArchivedGame) error {
	query := `
		INSERT INTO games (id, created_at, winner, win_reason)
		VALUES (?, ?, '', '')
		ON CONFLICT(id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, game.ID, game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

func (r *SQLiteTranscriptRepository) AppendMessage(ctx context.Context, msg ArchivedMessage) error {
	query := `
		INSERT INTO transcript (message_id, game_id, team, seat_id, kind, content, phase, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.MessageID, msg.GameID, msg.Team, msg.SeatID, msg.Kind,
		msg.Content, msg.Phase, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *SQLiteTranscriptRepository) UpdateResult(ctx context.Context, gameID, winner, reason string) error {
	query := `UPDATE games SET winner = ?, win_reason = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, winner, reason, gameID)
	return err
}

func (r *SQLiteTranscriptRepository) GameByID(ctx context.Context, gameID string) (*ArchivedGame, error) {
	query := `SELECT id, created_at, winner, win_reason FROM games WHERE id = ?`
	var g ArchivedGame
	err := r.db.QueryRowContext(ctx, query, gameID).Scan(&g.ID, &g.CreatedAt, &g.Winner, &g.WinReason)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *SQLiteTranscriptRepository) MessagesByGame(ctx context.Context, gameID string, last int) ([]ArchivedMessage, error) {
	if last > 0 {
		query := `SELECT message_id, game_id, team, seat_id, kind, content, phase, created_at
			FROM transcript WHERE game_id = ? ORDER BY created_at DESC LIMIT ?`
		msgs, err := r.getMany(ctx, query, gameID, last)
		if err != nil {
			return nil, err
		}
		reverseMessages(msgs)
		return msgs, nil
	}

	query := `SELECT message_id, game_id, team, seat_id, kind, content, phase, created_at
		FROM transcript WHERE game_id = ? ORDER BY created_at ASC`
	return r.getMany(ctx, query, gameID)
}

func (r *SQLiteTranscriptRepository) MessageByID(ctx context.Context, messageID string) (*ArchivedMessage, error) {
	query := `SELECT message_id, game_id, team, seat_id, kind, content, phase, created_at
		FROM transcript WHERE message_id = ?`
	var m ArchivedMessage
	err := r.db.QueryRowContext(ctx, query, messageID).Scan(
		&m.MessageID, &m.GameID, &m.Team, &m.SeatID, &m.Kind, &m.Content, &m.Phase, &m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *SQLiteTranscriptRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]ArchivedMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		err := rows.Scan(
			&m.MessageID, &m.GameID, &m.Team, &m.SeatID, &m.Kind, &m.Content, &m.Phase, &m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func reverseMessages(msgs []ArchivedMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

// Ensure SQLiteTranscriptRepository implements TranscriptRepository
var _ TranscriptRepository = (*SQLiteTranscriptRepository)(nil)
