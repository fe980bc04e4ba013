// Package domain - proposal.go
package domain

import "time"

// ProposalKind is what a team is collectively deciding on.
type ProposalKind string

const (
	ProposalGuess   ProposalKind = "guess"
	ProposalEndTurn ProposalKind = "end_turn"
)

// ProposalStatus is the lifecycle of a proposal. A team holds at most
// one pending proposal at a time.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// VoteDecision is a single operative's stance on a pending proposal.
type VoteDecision string

const (
	VoteAccept VoteDecision = "accept"
	VoteReject VoteDecision = "reject"
)

// Proposal is a team's candidate action during the guess phase. Votes
// is keyed by seat ID; the proposer never appears in it. Last write
// wins when a seat changes its mind.
type Proposal struct {
	ID        string                  `json:"id"`
	Team      Team                    `json:"team"`
	Kind      ProposalKind            `json:"kind"`
	Word      string                  `json:"word,omitempty"`
	Status    ProposalStatus          `json:"status"`
	CreatedBy string                  `json:"created_by"`
	Votes     map[string]VoteDecision `json:"votes"`
	CreatedAt time.Time               `json:"created_at"`
}

// Tally counts the current accept and reject votes.
func (p *Proposal) Tally() (accepts, rejects int) {
	for _, v := range p.Votes {
		switch v {
		case VoteAccept:
			accepts++
		case VoteReject:
			rejects++
		}
	}
	return accepts, rejects
}
