// Package domain - state.go
package domain

import "time"

// GameState is a point-in-time copy of a full game. The engine hands
// these out freely; holders must treat them as already stale. Ownership
// is NOT masked here. Masking for agent eyes happens in the scheduler's
// situation builder, never in the store.
type GameState struct {
	ID           string              `json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	Board        []Card              `json:"board"`
	Seats        []Seat              `json:"seats"`
	Turn         TurnState           `json:"turn"`
	Proposals    map[Team][]Proposal `json:"proposals"`
	Messages     []Message           `json:"messages"`
	Winner       Team                `json:"winner,omitempty"`
	WinReason    string              `json:"win_reason,omitempty"`
	Paused       map[Team]bool       `json:"paused"`
	Deliberating map[Team]bool       `json:"deliberating"`
	LastAgentError string            `json:"last_agent_error,omitempty"`
}

// Ended reports whether a winner has been decided.
func (s *GameState) Ended() bool {
	return s.Winner != ""
}

// SeatByID looks a seat up by its ID.
func (s *GameState) SeatByID(id string) (Seat, bool) {
	for _, seat := range s.Seats {
		if seat.ID == id {
			return seat, true
		}
	}
	return Seat{}, false
}

// SeatsOn returns every seat on the given team, in creation order.
func (s *GameState) SeatsOn(team Team) []Seat {
	var out []Seat
	for _, seat := range s.Seats {
		if seat.Team == team {
			out = append(out, seat)
		}
	}
	return out
}

// Spymaster returns the team's spymaster seat.
func (s *GameState) Spymaster(team Team) (Seat, bool) {
	for _, seat := range s.Seats {
		if seat.Team == team && seat.Role == RoleSpymaster {
			return seat, true
		}
	}
	return Seat{}, false
}

// AgentOperatives returns the team's agent-driven operatives.
func (s *GameState) AgentOperatives(team Team) []Seat {
	var out []Seat
	for _, seat := range s.Seats {
		if seat.Team == team && seat.Role == RoleOperative && seat.IsAgent() {
			out = append(out, seat)
		}
	}
	return out
}

// Operatives returns every operative on the team, human or agent.
func (s *GameState) Operatives(team Team) []Seat {
	var out []Seat
	for _, seat := range s.Seats {
		if seat.Team == team && seat.Role == RoleOperative {
			out = append(out, seat)
		}
	}
	return out
}

// HasHumanSeat reports whether any seat on the team is a person.
func (s *GameState) HasHumanSeat(team Team) bool {
	for _, seat := range s.Seats {
		if seat.Team == team && seat.IsHuman() {
			return true
		}
	}
	return false
}

// PendingProposal returns the team's open proposal, if any.
func (s *GameState) PendingProposal(team Team) *Proposal {
	history := s.Proposals[team]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == ProposalPending {
			p := history[i]
			return &p
		}
	}
	return nil
}

// CardByWord finds the board card for a word, case-insensitively.
func (s *GameState) CardByWord(word string) (Card, bool) {
	for _, c := range s.Board {
		if c.Matches(word) {
			return c, true
		}
	}
	return Card{}, false
}

// RemainingFor counts the owner's unrevealed cards.
func (s *GameState) RemainingFor(owner CardOwner) int {
	n := 0
	for _, c := range s.Board {
		if c.Owner == owner && !c.Revealed {
			n++
		}
	}
	return n
}

// RevealedCount counts revealed cards across the whole board.
func (s *GameState) RevealedCount() int {
	n := 0
	for _, c := range s.Board {
		if c.Revealed {
			n++
		}
	}
	return n
}
