// Package engine - proposals.go
// The proposal and voting protocol. One pending proposal per team;
// voterCount is the team's operatives minus the proposer, the accept
// threshold is ceil(voterCount/2), and a strict reject majority kills
// a proposal without ending the discussion.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/and1mon/clueless/internal/domain"
)

// CreateProposal opens a guess or end_turn proposal for the seat's
// team. A guess for the word already pending, coming from a different
// seat, folds into an accept vote on the existing proposal instead of
// failing. With no eligible voters the proposal accepts immediately.
func (g *Game) CreateProposal(seatID string, kind domain.ProposalKind, word string) (domain.Proposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.winner != "" {
		return domain.Proposal{}, ErrGameEnded
	}
	seat, ok := g.seatLocked(seatID)
	if !ok {
		return domain.Proposal{}, fmt.Errorf("unknown seat %q", seatID)
	}
	if seat.Role != domain.RoleOperative {
		return domain.Proposal{}, errors.New("only operatives may propose")
	}
	if seat.Team != g.turn.ActiveTeam {
		return domain.Proposal{}, fmt.Errorf("it is the %s team's turn", g.turn.ActiveTeam)
	}
	if g.turn.Phase != domain.PhaseGuess {
		return domain.Proposal{}, fmt.Errorf("proposals are only accepted during the guess phase, not %s", g.turn.Phase)
	}

	switch kind {
	case domain.ProposalGuess:
		word = strings.TrimSpace(word)
		idx := g.cardIndexLocked(word)
		if idx < 0 {
			return domain.Proposal{}, fmt.Errorf("%q is not on the board", word)
		}
		if g.board[idx].Revealed {
			return domain.Proposal{}, fmt.Errorf("%q is already revealed", g.board[idx].Word)
		}
		word = g.board[idx].Word
	case domain.ProposalEndTurn:
		word = ""
	default:
		return domain.Proposal{}, fmt.Errorf("invalid proposal kind %q", kind)
	}

	if pending := g.pendingLocked(seat.Team); pending != nil {
		if kind == domain.ProposalGuess && pending.Kind == domain.ProposalGuess &&
			strings.EqualFold(pending.Word, word) && pending.CreatedBy != seat.ID {
			// Same word, different seat: that's agreement, not a conflict.
			g.castVoteLocked(seat, pending, domain.VoteAccept)
			g.clearPauseIfHumanLocked(seat)
			return copyProposal(pending), nil
		}
		return domain.Proposal{}, fmt.Errorf("a proposal is already pending for the %s team", seat.Team)
	}

	p := &domain.Proposal{
		ID:        uuid.NewString(),
		Team:      seat.Team,
		Kind:      kind,
		Word:      word,
		Status:    domain.ProposalPending,
		CreatedBy: seat.ID,
		Votes:     map[string]domain.VoteDecision{},
		CreatedAt: time.Now(),
	}
	g.proposals[seat.Team] = append(g.proposals[seat.Team], p)

	if kind == domain.ProposalGuess {
		g.appendMessageLocked(seat.Team, seat.ID, domain.MessageProposal,
			fmt.Sprintf("%s proposes guessing %q.", seat.Name, word))
	} else {
		g.appendMessageLocked(seat.Team, seat.ID, domain.MessageProposal,
			fmt.Sprintf("%s proposes ending the turn.", seat.Name))
	}
	g.clearPauseIfHumanLocked(seat)

	if g.voterCountLocked(seat.Team) == 0 {
		// Lone operative: nobody to convince.
		g.acceptProposalLocked(p)
	}
	return copyProposal(p), nil
}

// VoteOnProposal records an operative's decision and resolves the
// proposal the moment a threshold is crossed. Accept is checked before
// reject; a seat voting twice overwrites its earlier decision.
func (g *Game) VoteOnProposal(seatID, proposalID string, decision domain.VoteDecision) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.winner != "" {
		return ErrGameEnded
	}
	seat, ok := g.seatLocked(seatID)
	if !ok {
		return fmt.Errorf("unknown seat %q", seatID)
	}
	if decision != domain.VoteAccept && decision != domain.VoteReject {
		return fmt.Errorf("invalid decision %q", decision)
	}

	p := g.proposalByIDLocked(proposalID)
	if p == nil {
		return fmt.Errorf("proposal %q not found", proposalID)
	}
	if p.Status != domain.ProposalPending {
		return ErrProposalResolved
	}
	if p.CreatedBy == seat.ID {
		return errors.New("the proposer cannot vote on their own proposal")
	}
	if seat.Team != p.Team || seat.Role != domain.RoleOperative {
		return fmt.Errorf("only %s operatives may vote on this proposal", p.Team)
	}

	g.castVoteLocked(seat, p, decision)
	g.clearPauseIfHumanLocked(seat)
	return nil
}

// castVoteLocked applies one vote and re-tallies.
func (g *Game) castVoteLocked(seat domain.Seat, p *domain.Proposal, decision domain.VoteDecision) {
	p.Votes[seat.ID] = decision

	accepts, rejects := p.Tally()
	voterCount := g.voterCountLocked(p.Team)
	threshold := (voterCount + 1) / 2

	if accepts >= threshold {
		g.acceptProposalLocked(p)
		return
	}
	if rejects*2 > voterCount {
		p.Status = domain.ProposalRejected
		g.appendSystemLocked(p.Team, fmt.Sprintf("The proposal %s was voted down.", describeProposal(p)))
	}
}

// acceptProposalLocked resolves an accepted proposal against the turn
// machine.
func (g *Game) acceptProposalLocked(p *domain.Proposal) {
	p.Status = domain.ProposalAccepted
	if p.Kind == domain.ProposalEndTurn {
		g.appendSystemLocked(p.Team, fmt.Sprintf("The %s team ends their turn.", p.Team))
		g.enterBanterLocked()
		return
	}
	if err := g.resolveGuessLocked(p.Team, p.Word); err != nil && g.logger != nil {
		g.logger.Errorf("guess resolution failed for game %s: %v", g.id, err)
	}
}

// voterCountLocked counts the operatives eligible to vote: everyone on
// the team with the operative role except the proposer.
func (g *Game) voterCountLocked(team domain.Team) int {
	n := 0
	for _, s := range g.seats {
		if s.Team == team && s.Role == domain.RoleOperative {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

func (g *Game) pendingLocked(team domain.Team) *domain.Proposal {
	history := g.proposals[team]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == domain.ProposalPending {
			return history[i]
		}
	}
	return nil
}

func (g *Game) proposalByIDLocked(id string) *domain.Proposal {
	for _, history := range g.proposals {
		for _, p := range history {
			if p.ID == id {
				return p
			}
		}
	}
	return nil
}

func copyProposal(p *domain.Proposal) domain.Proposal {
	cp := *p
	cp.Votes = make(map[string]domain.VoteDecision, len(p.Votes))
	for seatID, v := range p.Votes {
		cp.Votes[seatID] = v
	}
	return cp
}

func describeProposal(p *domain.Proposal) string {
	if p.Kind == domain.ProposalEndTurn {
		return "to end the turn"
	}
	return fmt.Sprintf("to guess %q", p.Word)
}
