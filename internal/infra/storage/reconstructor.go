// Package storage - reconstructor.go
// Builds replay views back out of the transcript archive.
package storage

import (
	"context"
	"fmt"
)

// Replayer assembles archived games for the replay endpoints.
type Replayer struct {
	repo TranscriptRepository
}

// NewReplayer creates a new replay assembler.
func NewReplayer(repo TranscriptRepository) *Replayer {
	return &Replayer{repo: repo}
}

// Replay is one game as the archive remembers it.
type Replay struct {
	Game     ArchivedGame      `json:"game"`
	Messages []ArchivedMessage `json:"messages"`
	Summary  ReplaySummary     `json:"summary"`
}

// ReplaySummary condenses the returned transcript for list views.
type ReplaySummary struct {
	TotalMessages int    `json:"total_messages"`
	ChatMessages  int    `json:"chat_messages"`
	Proposals     int    `json:"proposals"`
	SystemEvents  int    `json:"system_events"`
	Finished      bool   `json:"finished"`
	Winner        string `json:"winner,omitempty"`
	WinReason     string `json:"win_reason,omitempty"`
}

// ReplayedMessage is one archived message with its game context.
type ReplayedMessage struct {
	Game    ArchivedGame    `json:"game"`
	Message ArchivedMessage `json:"message"`
}

// GameReplay loads a game header plus its transcript. A positive last
// bounds the transcript to the newest entries. Returns nil for games
// the archive has never seen.
func (r *Replayer) GameReplay(ctx context.Context, gameID string, last int) (*Replay, error) {
	game, err := r.repo.GameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load archived game: %w", err)
	}
	if game == nil {
		return nil, nil
	}

	msgs, err := r.repo.MessagesByGame(ctx, gameID, last)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	return &Replay{
		Game:     *game,
		Messages: msgs,
		Summary:  summarize(*game, msgs),
	}, nil
}

// MessageDetail loads one archived message together with its game
// header. Returns nil when the message is unknown.
func (r *Replayer) MessageDetail(ctx context.Context, messageID string) (*ReplayedMessage, error) {
	msg, err := r.repo.MessageByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load archived message: %w", err)
	}
	if msg == nil {
		return nil, nil
	}

	game, err := r.repo.GameByID(ctx, msg.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load archived game: %w", err)
	}

	detail := &ReplayedMessage{Message: *msg}
	if game != nil {
		detail.Game = *game
	}
	return detail, nil
}

// summarize classifies the transcript by message kind. The kind strings
// mirror domain.MessageKind; the archive stays domain-free on purpose.
func summarize(game ArchivedGame, msgs []ArchivedMessage) ReplaySummary {
	s := ReplaySummary{
		TotalMessages: len(msgs),
		Finished:      game.Winner != "",
		Winner:        game.Winner,
		WinReason:     game.WinReason,
	}

	for _, m := range msgs {
		switch m.Kind {
		case "chat":
			s.ChatMessages++
		case "proposal":
			s.Proposals++
		case "system":
			s.SystemEvents++
		}
	}

	return s
}
