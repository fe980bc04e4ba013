// Package domain - message.go
package domain

import "time"

// MessageKind classifies transcript entries.
type MessageKind string

const (
	// MessageChat: free-form table talk from a seat.
	MessageChat MessageKind = "chat"
	// MessageProposal: the announcement accompanying a new proposal.
	MessageProposal MessageKind = "proposal"
	// MessageSystem: reveals, turn changes, wins, forfeits.
	MessageSystem MessageKind = "system"
)

// SystemPlayerID marks messages emitted by the game itself.
const SystemPlayerID = "system"

// Message is one append-only transcript entry. Phase records the turn
// phase the message was posted in, which is what lets banter talk cross
// team boundaries later.
type Message struct {
	ID        string      `json:"id"`
	Team      Team        `json:"team,omitempty"`
	PlayerID  string      `json:"player_id"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content"`
	Phase     Phase       `json:"phase"`
	CreatedAt time.Time   `json:"created_at"`
}
