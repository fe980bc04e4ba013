// Package storage archives game transcripts. The engine writes through
// it as play happens; the replay endpoints read it back. Nothing here
// ever feeds a live game.
package storage

import (
	"context"
	"time"
)

// ArchivedGame is one games table row.
type ArchivedGame struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Winner    string    `json:"winner,omitempty"`
	WinReason string    `json:"win_reason,omitempty"`
}

// ArchivedMessage mirrors domain.Message for persistence, tagged with
// the game it belongs to. The domain package does NOT import this;
// conversion happens at the persister adapter.
type ArchivedMessage struct {
	MessageID string    `json:"message_id"`
	GameID    string    `json:"game_id"`
	Team      string    `json:"team,omitempty"`
	SeatID    string    `json:"seat_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptRepository defines the archive contract. Append-only except
// for the one result update when a game is decided.
type TranscriptRepository interface {
	// SaveGame registers a game when it enters the registry.
	SaveGame(ctx context.Context, game ArchivedGame) error

	// AppendMessage adds one transcript entry.
	AppendMessage(ctx context.Context, msg ArchivedMessage) error

	// UpdateResult records the winner once the game is decided.
	UpdateResult(ctx context.Context, gameID, winner, reason string) error

	// GameByID retrieves one archived game header, nil if unknown.
	GameByID(ctx context.Context, gameID string) (*ArchivedGame, error)

	// MessagesByGame retrieves a game's transcript in append order.
	// A positive last bounds the result to the newest entries.
	MessagesByGame(ctx context.Context, gameID string, last int) ([]ArchivedMessage, error)

	// MessageByID retrieves a single entry, nil if unknown.
	MessageByID(ctx context.Context, messageID string) (*ArchivedMessage, error)
}
