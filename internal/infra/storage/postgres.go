// Package storage - postgres.go
// PostgreSQL implementation of TranscriptRepository, for deployments
// where the archive has to outlive a single host.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// InitPostgres connects to PostgreSQL and creates the archive schema.
func InitPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			winner TEXT NOT NULL DEFAULT '',
			win_reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS transcript (
			message_id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(id),
			team TEXT NOT NULL DEFAULT '',
			seat_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			phase TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_game_id ON transcript(game_id);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return nil, fmt.Errorf("failed to create schemas: %w", err)
		}
	}

	return db, nil
}

// PostgresTranscriptRepository implements TranscriptRepository using PostgreSQL.
type PostgresTranscriptRepository struct {
	db *sql.DB
}

// NewPostgresTranscriptRepository creates a new PostgreSQL transcript repository.
func NewPostgresTranscriptRepository(db *sql.DB) *PostgresTranscriptRepository {
	return &PostgresTranscriptRepository{db: db}
}

func (r *PostgresTranscriptRepository) SaveGame(ctx context.Context, game ArchivedGame) error {
	query := `
		INSERT INTO games (id, created_at, winner, win_reason)
		VALUES ($1, $2, '', '')
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, game.ID, game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

func (r *PostgresTranscriptRepository) AppendMessage(ctx context.Context, msg ArchivedMessage) error {
	query := `
		INSERT INTO transcript (message_id, game_id, team, seat_id, kind, content, phase, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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

func (r *PostgresTranscriptRepository) UpdateResult(ctx context.Context, gameID, winner, reason string) error {
	query := `UPDATE games SET winner = $1, win_reason = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, winner, reason, gameID)
	return err
}

func (r *PostgresTranscriptRepository) GameByID(ctx context.Context, gameID string) (*ArchivedGame, error) {
	query := `SELECT id, created_at, winner, win_reason FROM games WHERE id = $1`
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

func (r *PostgresTranscriptRepository) MessagesByGame(ctx context.Context, gameID string, last int) ([]ArchivedMessage, error) {
	if last > 0 {
		query := `SELECT message_id, game_id, team, seat_id, kind, content, phase, created_at
			FROM transcript WHERE game_id = $1 ORDER BY created_at DESC LIMIT $2`
		msgs, err := r.queryMessages(ctx, query, gameID, last)
		if err != nil {
			return nil, err
		}
		reverseMessages(msgs)
		return msgs, nil
	}

	query := `SELECT message_id, game_id, team, seat_id, kind, content, phase, created_at
		FROM transcript WHERE game_id = $1 ORDER BY created_at ASC`
	return r.queryMessages(ctx, query, gameID)
}

func (r *PostgresTranscriptRepository) MessageByID(ctx context.Context, messageID string) (*ArchivedMessage, error) {
	query := `SELECT message_id, game_id, team, seat_id, kind, content, phase, created_at
		FROM transcript WHERE message_id = $1`
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

// queryMessages is a helper to execute queries and scan results.
func (r *PostgresTranscriptRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]ArchivedMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		err := rows.Scan(
			&m.MessageID, &m.GameID, &m.Team, &m.SeatID, &m.Kind, &m.Content, &m.Phase, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Ensure PostgresTranscriptRepository implements TranscriptRepository
var _ TranscriptRepository = (*PostgresTranscriptRepository)(nil)
