package scheduler

import (
	"context"
	"strings"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
)

// runConversationRound runs one pass over the team's agent operatives
// in a freshly shuffled order. Each seat speaks at most once; a fresh
// proposal pulls the remaining seats into an immediate vote pass so it
// resolves inside the round. Returns false only when the round ended
// in a forfeiture.
func (s *Scheduler) runConversationRound(ctx context.Context, game *engine.Game, team domain.Team, ts *teamState) bool {
	state := game.Snapshot()
	if state.Ended() || state.Turn.ActiveTeam != team || state.Turn.Phase != domain.PhaseGuess {
		return true
	}
	ts.syncTurn(state.Turn)

	order := s.shuffled(state.AgentOperatives(team))
	spoken := make(map[string]bool, len(order))

	for idx, seat := range order {
		if spoken[seat.ID] || ctx.Err() != nil {
			continue
		}
		before := game.Snapshot()
		if before.Ended() || before.Turn.ActiveTeam != team || before.Turn.Phase != domain.PhaseGuess {
			return true
		}
		pendingBefore := before.PendingProposal(team)

		s.runSeat(ctx, game, ts, seat.ID, PurposeDeliberate)
		spoken[seat.ID] = true

		if s.forfeitIfOverBudget(game, team, ts) {
			return false
		}
		after := game.Snapshot()
		if after.Ended() || after.Turn.ActiveTeam != team || after.Turn.Phase != domain.PhaseGuess {
			return true
		}

		if p := after.PendingProposal(team); p != nil && (pendingBefore == nil || pendingBefore.ID != p.ID) {
			if !s.votePass(ctx, game, team, ts, order[idx+1:], spoken, p.ID) {
				return false
			}
		}
	}
	return true
}

// votePass walks the not-yet-spoken seats through a vote on the fresh
// proposal. Stops early once the proposal resolves or the turn moves.
func (s *Scheduler) votePass(ctx context.Context, game *engine.Game, team domain.Team, ts *teamState, rest []domain.Seat, spoken map[string]bool, proposalID string) bool {
	for _, voter := range rest {
		if spoken[voter.ID] || ctx.Err() != nil {
			continue
		}
		state := game.Snapshot()
		if state.Ended() || state.Turn.ActiveTeam != team || state.Turn.Phase != domain.PhaseGuess {
			return true
		}
		if p := state.PendingProposal(team); p == nil || p.ID != proposalID {
			return true
		}
		s.runSeat(ctx, game, ts, voter.ID, PurposeVote)
		spoken[voter.ID] = true

		if s.forfeitIfOverBudget(game, team, ts) {
			return false
		}
	}
	return true
}

func (s *Scheduler) forfeitIfOverBudget(game *engine.Game, team domain.Team, ts *teamState) bool {
	if ts.failures < maxTeamFailures {
		return false
	}
	s.forfeitTurn(game, team, "too many invalid actions")
	return true
}

func (s *Scheduler) forfeitTurn(game *engine.Game, team domain.Team, reason string) {
	if err := game.Forfeit(team, reason); err != nil {
		s.logger.Warnf("game %s: forfeit (%s) not applied: %v", game.ID(), reason, err)
	}
}

// revealReaction lets one random operative comment on a fresh reveal.
// Pure flavor: any action in the response is ignored.
func (s *Scheduler) revealReaction(ctx context.Context, game *engine.Game, team domain.Team) {
	state := game.Snapshot()
	seat, ok := s.pickOne(state.AgentOperatives(team))
	if !ok {
		return
	}
	act, err := s.port.Decide(ctx, buildSituation(state, seat, PurposeReaction, nil, 0, nil))
	if err != nil {
		s.reportPortError(game, seat, err)
		return
	}
	s.sayAndGate(ctx, game, seat.ID, act.Say)
}

// runBanterRound plays the fixed three-exchange intermission: the team
// whose turn just ended speaks, the incoming team answers, the
// outgoing team gets the last word. Teams without agent operatives are
// skipped silently. Closing the phase flips the active team. Returns
// false when a winner appeared mid-banter.
func (s *Scheduler) runBanterRound(ctx context.Context, game *engine.Game) bool {
	state := game.Snapshot()
	if state.Ended() {
		return false
	}
	if state.Turn.Phase != domain.PhaseBanter {
		return true
	}
	outgoing := state.Turn.PreviousTeam

	for _, team := range []domain.Team{outgoing, outgoing.Other(), outgoing} {
		st := game.Snapshot()
		if st.Ended() {
			return false
		}
		if st.Turn.Phase != domain.PhaseBanter {
			return true
		}
		seat, ok := s.pickOne(st.AgentOperatives(team))
		if !ok {
			continue
		}
		act, err := s.port.Decide(ctx, buildSituation(st, seat, PurposeBanter, nil, 0, nil))
		if err != nil {
			s.reportPortError(game, seat, err)
			continue
		}
		s.sayAndGate(ctx, game, seat.ID, act.Say)
	}

	if err := game.EndBanter(); err != nil {
		s.logger.Warnf("game %s: could not close banter: %v", game.ID(), err)
		return false
	}
	return true
}

// endGameBanter runs the once-per-game closing exchange, winner first,
// loser second, winner last. Failures are logged and swallowed; the
// game is already decided.
func (s *Scheduler) endGameBanter(ctx context.Context, game *engine.Game) {
	winner, _, over := game.Winner()
	if !over || !game.BeginFarewell() {
		return
	}
	state := game.Snapshot()
	for _, team := range []domain.Team{winner, winner.Other(), winner} {
		seat, ok := s.pickOne(state.AgentOperatives(team))
		if !ok {
			continue
		}
		act, err := s.port.Decide(ctx, buildSituation(state, seat, PurposeFarewell, nil, 0, nil))
		if err != nil {
			s.logger.Warnf("game %s: farewell from %s failed: %v", game.ID(), seat.Name, err)
			continue
		}
		s.sayAndGate(ctx, game, seat.ID, act.Say)
	}
}

// sayAndGate posts a flavor message and paces on the delivery gate.
func (s *Scheduler) sayAndGate(ctx context.Context, game *engine.Game, seatID, say string) {
	say = strings.TrimSpace(say)
	if say == "" {
		return
	}
	if _, err := game.PostChat(seatID, say); err != nil {
		return
	}
	s.gates.For(game.ID()).Wait(ctx)
}
