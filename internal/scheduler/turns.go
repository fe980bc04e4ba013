package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/platform/metrics"
)

// AutoHintIfNeeded runs the spymaster hint step for one team under its
// advisory lock. The autoplay loop uses it for human-containing teams
// whose spymaster seat is an agent.
func (s *Scheduler) AutoHintIfNeeded(ctx context.Context, gameID string, team domain.Team) {
	game, ok := s.registry.Get(gameID)
	if !ok {
		return
	}
	ts := s.teamFor(gameID, team)
	if !ts.mu.TryLock() {
		return
	}
	defer ts.mu.Unlock()
	s.autoHintLocked(ctx, game, team, ts)
}

// autoHintLocked asks the agent spymaster for a hint, feeding rejected
// words back into the next attempt. Five misses forfeit the turn.
// Returns true once the team is in the guess phase with a hint on the
// board.
func (s *Scheduler) autoHintLocked(ctx context.Context, game *engine.Game, team domain.Team, ts *teamState) bool {
	var rejected []string
	for attempt := 1; attempt <= maxHintAttempts; attempt++ {
		state := game.Snapshot()
		if state.Ended() || state.Turn.ActiveTeam != team {
			return false
		}
		if state.Turn.Phase == domain.PhaseGuess {
			return true
		}
		if state.Turn.Phase != domain.PhaseHint {
			return false
		}
		spy, ok := state.Spymaster(team)
		if !ok || !spy.IsAgent() {
			return false
		}

		var notes []string
		if len(rejected) > 0 {
			notes = append(notes, "Rejected hint words so far: "+strings.Join(rejected, ", ")+". Choose a different word.")
		}
		if attempt >= 3 {
			notes = append(notes, fmt.Sprintf("This is attempt %d of %d. The turn is forfeited when attempts run out.", attempt, maxHintAttempts))
		}

		act, err := s.port.Decide(ctx, buildSituation(state, spy, PurposeHint, rejected, ts.failures, notes))
		if err != nil {
			s.reportPortError(game, spy, err)
			continue
		}
		if act.Kind != ActionHint || strings.TrimSpace(act.Word) == "" || act.Count < 1 {
			metrics.Get().RecordAgentAction(true)
			s.logger.Warnf("game %s: spymaster %s gave no usable hint on attempt %d", game.ID(), spy.Name, attempt)
			continue
		}

		word := strings.TrimSpace(act.Word)
		_, onBoard := state.CardByWord(word)
		if len(strings.Fields(word)) != 1 || onBoard {
			rejected = append(rejected, word)
			metrics.Get().RecordAgentAction(true)
			s.logger.Warnf("game %s: hint %q rejected on attempt %d", game.ID(), word, attempt)
			continue
		}

		if say := strings.TrimSpace(act.Say); say != "" {
			if _, err := game.PostChat(spy.ID, say); err != nil {
				s.logger.Warnf("game %s: spymaster chat dropped: %v", game.ID(), err)
			}
		}
		if err := game.SubmitHint(spy.ID, word, act.Count, act.Targets); err != nil {
			rejected = append(rejected, word)
			metrics.Get().RecordAgentAction(true)
			s.logger.Warnf("game %s: hint %q refused by the board on attempt %d: %v", game.ID(), word, attempt, err)
			continue
		}
		metrics.Get().RecordAgentAction(false)
		ts.syncTurn(game.Snapshot().Turn)
		s.gates.For(game.ID()).Wait(ctx)
		return true
	}

	s.forfeitTurn(game, team, fmt.Sprintf("could not produce a valid hint after %d attempts", maxHintAttempts))
	return false
}

// RunAgentTurn drives one full turn for a team: banter resolution, the
// spymaster hint, then conversation rounds until the turn resolves or
// a liveness cap forfeits it. Returns false when the team's advisory
// lock was already held by another run.
func (s *Scheduler) RunAgentTurn(ctx context.Context, game *engine.Game, team domain.Team) bool {
	ts := s.teamFor(game.ID(), team)
	if !ts.mu.TryLock() {
		s.logger.Infof("game %s: %s team already deliberating, skipping", game.ID(), team)
		return false
	}
	defer ts.mu.Unlock()

	game.SetDeliberating(team, true)
	defer game.SetDeliberating(team, false)

	s.runTurnLocked(ctx, game, team, ts)
	return true
}

func (s *Scheduler) runTurnLocked(ctx context.Context, game *engine.Game, team domain.Team, ts *teamState) {
	state := game.Snapshot()
	if state.Ended() {
		return
	}
	if state.Turn.Phase == domain.PhaseBanter {
		s.runBanterRound(ctx, game)
		return
	}
	if state.Turn.ActiveTeam != team {
		return
	}
	ts.syncTurn(state.Turn)

	if state.Turn.Phase == domain.PhaseHint {
		if !s.autoHintLocked(ctx, game, team, ts) {
			return
		}
	}

	stale := 0
	for round := 1; round <= maxRounds; round++ {
		if ctx.Err() != nil {
			return
		}
		pre := game.Snapshot()
		if pre.Ended() || pre.Turn.ActiveTeam != team || pre.Turn.Phase != domain.PhaseGuess {
			return
		}
		if game.IsPaused(team) {
			return
		}

		if !s.runConversationRound(ctx, game, team, ts) {
			return
		}

		post := game.Snapshot()
		if post.Ended() {
			return
		}
		if post.RevealedCount() > pre.RevealedCount() {
			s.revealReaction(ctx, game, team)
		}
		if post.Turn.ActiveTeam != team || post.Turn.Phase != domain.PhaseGuess {
			return
		}

		if post.Turn.GuessesMade == pre.Turn.GuessesMade && post.RevealedCount() == pre.RevealedCount() {
			stale++
		} else {
			stale = 0
		}
		if stale >= maxStaleRounds {
			s.forfeitTurn(game, team, "no progress after repeated deliberation")
			return
		}
	}

	final := game.Snapshot()
	if !final.Ended() && final.Turn.ActiveTeam == team && final.Turn.Phase == domain.PhaseGuess {
		s.forfeitTurn(game, team, "deliberation rounds exhausted")
	}
}

// Autoplay keeps a game moving without human input. Kicked off in a
// goroutine after game creation and after every human action; stops at
// a winner, a human-driven team, a pause, or a busy team lock (the
// in-flight run finishes the job).
func (s *Scheduler) Autoplay(ctx context.Context, gameID string) {
	game, ok := s.registry.Get(gameID)
	if !ok {
		s.logger.Warnf("autoplay: game %s not found", gameID)
		return
	}

	for i := 0; i < maxAutoplayLoops; i++ {
		if ctx.Err() != nil {
			return
		}
		if _, _, over := game.Winner(); over {
			s.endGameBanter(ctx, game)
			return
		}

		state := game.Snapshot()
		active := state.Turn.ActiveTeam

		if state.Turn.Phase == domain.PhaseBanter {
			if !s.RunAgentTurn(ctx, game, active) {
				return
			}
			continue
		}
		if game.IsPaused(active) {
			return
		}
		if state.HasHumanSeat(active) {
			if spy, ok := state.Spymaster(active); ok && spy.IsAgent() && state.Turn.Phase == domain.PhaseHint {
				s.AutoHintIfNeeded(ctx, gameID, active)
			}
			return
		}
		if !s.RunAgentTurn(ctx, game, active) {
			return
		}
	}
	s.logger.Warnf("autoplay: game %s hit the iteration cap", gameID)
}

// NudgeTeam is the human "deliberate now" button: run the hint step if
// the team still owes one, then a single conversation round, then let
// autoplay pick up whatever follows.
func (s *Scheduler) NudgeTeam(ctx context.Context, gameID string, team domain.Team) {
	game, ok := s.registry.Get(gameID)
	if !ok {
		s.logger.Warnf("nudge: game %s not found", gameID)
		return
	}

	ts := s.teamFor(gameID, team)
	if ts.mu.TryLock() {
		func() {
			defer ts.mu.Unlock()
			state := game.Snapshot()
			if state.Ended() {
				return
			}
			ts.syncTurn(state.Turn)
			if state.Turn.Phase == domain.PhaseHint && state.Turn.ActiveTeam == team {
				spy, ok := state.Spymaster(team)
				if !ok || !spy.IsAgent() {
					return
				}
				if !s.autoHintLocked(ctx, game, team, ts) {
					return
				}
			}
			s.runConversationRound(ctx, game, team, ts)
		}()
	}

	s.Autoplay(ctx, gameID)
}
