// Package engine - turns.go
// The turn machine: hint -> guess -> banter -> hint on the other side,
// until a winner is decided.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/platform/metrics"
)

// SubmitHint records the active spymaster's hint and opens the guess
// phase with count+1 allowed guesses.
func (g *Game) SubmitHint(seatID, word string, count int, targets []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.winner != "" {
		return ErrGameEnded
	}
	seat, ok := g.seatLocked(seatID)
	if !ok {
		return fmt.Errorf("unknown seat %q", seatID)
	}
	if seat.Role != domain.RoleSpymaster {
		return errors.New("only the spymaster may give hints")
	}
	if seat.Team != g.turn.ActiveTeam {
		return fmt.Errorf("it is the %s team's turn", g.turn.ActiveTeam)
	}
	if g.turn.Phase != domain.PhaseHint {
		return fmt.Errorf("hints are only accepted during the hint phase, not %s", g.turn.Phase)
	}
	word = strings.TrimSpace(word)
	if word == "" || len(strings.Fields(word)) != 1 {
		return errors.New("the hint must be a single word")
	}
	if count < 1 {
		return errors.New("the hint count must be at least 1")
	}
	if g.cardIndexLocked(word) >= 0 {
		return fmt.Errorf("the hint %q matches a board word", word)
	}

	g.turn.HintWord = word
	g.turn.HintCount = count
	g.turn.HintTargets = append([]string(nil), targets...)
	g.turn.Phase = domain.PhaseGuess
	g.turn.GuessesMade = 0
	g.turn.MaxGuesses = count + 1

	g.appendMessageLocked(seat.Team, seat.ID, domain.MessageSystem,
		fmt.Sprintf("%s hints %q for %d.", seat.Name, word, count))
	g.clearPauseIfHumanLocked(seat)
	return nil
}

// resolveGuessLocked reveals the guessed card and applies the outcome.
// The word was validated unrevealed when the proposal was created; by
// resolution time only this team can have touched the board, so a miss
// here means a bug, not a race.
func (g *Game) resolveGuessLocked(team domain.Team, word string) error {
	idx := g.cardIndexLocked(word)
	if idx < 0 {
		return fmt.Errorf("%q is not on the board", word)
	}
	card := &g.board[idx]
	if card.Revealed {
		return fmt.Errorf("%q is already revealed", card.Word)
	}

	card.Revealed = true
	g.appendSystemLocked(team, fmt.Sprintf("%q was %s.", card.Word, ownerLabel(card.Owner)))

	switch {
	case card.Owner == domain.OwnerAssassin:
		g.finishGameLocked(team.Other(), fmt.Sprintf("the %s team hit the assassin", team))
	case g.remainingLocked(domain.OwnerForTeam(team)) == 0:
		g.finishGameLocked(team, fmt.Sprintf("the %s team found all their words", team))
	case g.remainingLocked(domain.OwnerForTeam(team.Other())) == 0:
		g.finishGameLocked(team.Other(), fmt.Sprintf("every %s word is revealed", team.Other()))
	case card.Owner != domain.OwnerForTeam(team):
		g.enterBanterLocked()
	default:
		g.turn.GuessesMade++
		if g.turn.GuessesMade >= g.turn.MaxGuesses {
			g.enterBanterLocked()
		}
	}
	return nil
}

// enterBanterLocked ends the active team's turn without handing over
// control yet. ActiveTeam stays put until EndBanter.
func (g *Game) enterBanterLocked() {
	g.turn.PreviousTeam = g.turn.ActiveTeam
	g.turn.Phase = domain.PhaseBanter
}

// EndBanter closes the banter window, hands the turn to the other team
// and announces it.
func (g *Game) EndBanter() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.winner != "" {
		return ErrGameEnded
	}
	if g.turn.Phase != domain.PhaseBanter {
		return fmt.Errorf("no banter to end during the %s phase", g.turn.Phase)
	}

	next := g.turn.ActiveTeam.Other()
	g.turn = domain.TurnState{
		ActiveTeam:   next,
		Phase:        domain.PhaseHint,
		PreviousTeam: g.turn.PreviousTeam,
	}
	g.appendSystemLocked(next, fmt.Sprintf("It's the %s team's turn.", next))
	metrics.Get().RecordTurn()
	return nil
}

// Forfeit gives up the team's turn: a system message naming the reason,
// then the same transition as an accepted end_turn. Never decides a
// winner.
func (g *Game) Forfeit(team domain.Team, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.winner != "" {
		return ErrGameEnded
	}
	if team != g.turn.ActiveTeam {
		return fmt.Errorf("the %s team is not active", team)
	}
	if g.turn.Phase == domain.PhaseBanter {
		return errors.New("the turn is already over")
	}

	g.appendSystemLocked(team, fmt.Sprintf("The %s team forfeits the turn: %s.", team, reason))
	g.enterBanterLocked()
	metrics.Get().RecordForfeit()
	if g.logger != nil {
		g.logger.Event("TEAM_FORFEIT", string(team), reason)
	}
	return nil
}

func (g *Game) finishGameLocked(winner domain.Team, reason string) {
	g.winner = winner
	g.winReason = reason
	g.appendSystemLocked(winner, fmt.Sprintf("The %s team wins: %s.", winner, reason))
	metrics.Get().RecordGameFinished()
	if g.logger != nil {
		g.logger.Event("GAME_OVER", g.id, fmt.Sprintf("winner=%s reason=%s", winner, reason))
	}
	if g.persister != nil {
		p, id, log := g.persister, g.id, g.logger
		go func() {
			if err := p.SaveResult(id, winner, reason); err != nil && log != nil {
				log.Errorf("archive result write failed for game %s: %v", id, err)
			}
		}()
	}
}

func ownerLabel(owner domain.CardOwner) string {
	switch owner {
	case domain.OwnerRed:
		return "a red card"
	case domain.OwnerBlue:
		return "a blue card"
	case domain.OwnerAssassin:
		return "the assassin"
	default:
		return "a neutral card"
	}
}
