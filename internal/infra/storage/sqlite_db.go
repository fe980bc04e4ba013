// Package storage - sqlite_db.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite opens the local SQLite database and creates the transcript
// archive schema.
func InitSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			winner TEXT NOT NULL DEFAULT '',
			win_reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS transcript (
			message_id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			team TEXT NOT NULL DEFAULT '',
			seat_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			phase TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (game_id) REFERENCES games(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_game_id ON transcript(game_id);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
