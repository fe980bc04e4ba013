// Package scheduler drives the agent-held seats of a game: spymaster
// hint retries, operative conversation rounds with proposal voting,
// cross-team banter and the autoplay loop that keeps all-agent games
// moving. Agents themselves live behind the ResponsePort interface;
// the scheduler owns when they are asked and what happens to their
// answers.
package scheduler

import (
	"context"

	"github.com/and1mon/clueless/internal/domain"
)

// Purpose tells the port what the scheduler wants from the seat.
type Purpose string

const (
	// PurposeHint asks a spymaster for this turn's hint.
	PurposeHint Purpose = "hint"
	// PurposeDeliberate asks an operative to discuss and optionally act.
	PurposeDeliberate Purpose = "deliberate"
	// PurposeVote asks an operative to settle a pending proposal.
	PurposeVote Purpose = "vote"
	// PurposeBanter asks for between-turn trash talk, no actions.
	PurposeBanter Purpose = "banter"
	// PurposeReaction asks for a short comment on a fresh reveal.
	PurposeReaction Purpose = "reaction"
	// PurposeFarewell asks for a closing remark after the game ends.
	PurposeFarewell Purpose = "farewell"
)

// CardView is one board card as a seat is allowed to see it. Owner is
// empty for unrevealed cards unless the seat is a spymaster.
type CardView struct {
	Word     string `json:"word"`
	Owner    string `json:"owner,omitempty"`
	Revealed bool   `json:"revealed"`
}

// TranscriptEntry is one visible message, tagged with who said it.
type TranscriptEntry struct {
	Speaker string `json:"speaker"`
	Team    string `json:"team,omitempty"`
	Role    string `json:"role,omitempty"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// Situation is the masked view of a game handed to the port on behalf
// of one seat. It carries everything an agent may know and nothing it
// may not: card ownership is stripped for operatives, the transcript
// is filtered to the seat's own team plus banter and system messages.
type Situation struct {
	GameID        string
	Seat          domain.Seat
	Purpose       Purpose
	Turn          domain.TurnState
	Board         []CardView
	Seats         []domain.Seat
	Remaining     map[string]int
	Pending       *domain.Proposal
	Transcript    []TranscriptEntry
	RejectedHints []string
	TeamFailures  int
	Notes         []string
}

// ActionKind discriminates the one action an agent response carries.
type ActionKind string

const (
	ActionNone           ActionKind = "none"
	ActionHint           ActionKind = "hint"
	ActionProposeGuess   ActionKind = "propose_guess"
	ActionProposeEndTurn ActionKind = "propose_end_turn"
	ActionVote           ActionKind = "vote"
)

// Action is a structured agent response: a free-text message plus at
// most one game action. Which fields matter depends on Kind.
type Action struct {
	Say        string
	Kind       ActionKind
	Word       string
	Count      int
	Targets    []string
	ProposalID string
	Decision   domain.VoteDecision
}

// ResponsePort turns a situation into an action on behalf of a seat.
// Implementations may fail (timeouts, unparseable model output); the
// scheduler classifies such errors, the port just reports them.
type ResponsePort interface {
	Decide(ctx context.Context, sit Situation) (Action, error)
}
