package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/narrate"
	"github.com/and1mon/clueless/internal/platform/logger"
	"github.com/and1mon/clueless/internal/platform/metrics"
)

const (
	// maxHintAttempts bounds the spymaster retry loop before a forfeit.
	maxHintAttempts = 5
	// maxTeamFailures is the invalid-action budget per turn.
	maxTeamFailures = 6
	// maxRounds caps conversation rounds in one agent turn.
	maxRounds = 20
	// maxStaleRounds caps consecutive rounds that move nothing.
	maxStaleRounds = 25
	// maxAutoplayLoops is the safety cap on the autoplay driver.
	maxAutoplayLoops = 60
)

// teamState is the per-(game, team) bookkeeping. The mutex doubles as
// the advisory deliberation lock: TryLock failing means another run
// already drives this team and the caller simply gives up. The other
// fields are only touched while the lock is held.
type teamState struct {
	mu            sync.Mutex
	failures      int
	proposedWords map[string]bool
	turnKey       string
}

func (ts *teamState) resetTurn(key string) {
	ts.failures = 0
	ts.proposedWords = make(map[string]bool)
	ts.turnKey = key
}

// syncTurn resets the counters when the hint on the board no longer
// matches the one the counters were accumulated under. Human-driven
// teams never pass through RunAgentTurn, so this is how their state
// rolls over between turns.
func (ts *teamState) syncTurn(turn domain.TurnState) {
	key := turn.HintWord + "/" + strconv.Itoa(turn.HintCount)
	if ts.turnKey != key {
		ts.resetTurn(key)
	}
}

// Scheduler drives agent seats against the shared game state. All
// entry points are safe to call concurrently; the per-team advisory
// locks keep two drivers from double-acting on one team.
type Scheduler struct {
	registry *engine.Registry
	port     ResponsePort
	gates    *narrate.GateSet
	logger   *logger.Logger

	mu    sync.Mutex
	teams map[string]*teamState

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a scheduler over the registry, asking port for agent
// responses and pacing delivery through gates.
func New(registry *engine.Registry, port ResponsePort, gates *narrate.GateSet, log *logger.Logger) *Scheduler {
	return &Scheduler{
		registry: registry,
		port:     port,
		gates:    gates,
		logger:   log,
		teams:    make(map[string]*teamState),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed fixes the speaking-order RNG, for tests and the simulator.
func (s *Scheduler) Seed(seed int64) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

func (s *Scheduler) teamFor(gameID string, team domain.Team) *teamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := gameID + "/" + string(team)
	ts, ok := s.teams[key]
	if !ok {
		ts = &teamState{proposedWords: make(map[string]bool)}
		s.teams[key] = ts
	}
	return ts
}

func (s *Scheduler) shuffled(seats []domain.Seat) []domain.Seat {
	out := append([]domain.Seat(nil), seats...)
	s.rngMu.Lock()
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.rngMu.Unlock()
	return out
}

func (s *Scheduler) pickOne(seats []domain.Seat) (domain.Seat, bool) {
	if len(seats) == 0 {
		return domain.Seat{}, false
	}
	s.rngMu.Lock()
	i := s.rng.Intn(len(seats))
	s.rngMu.Unlock()
	return seats[i], true
}

// runSeat asks one agent seat for a response and applies it. Returns
// true when the seat contributed or legitimately had nothing to do,
// false on an infrastructure failure or a rejected action. Must be
// called with the seat's team lock held.
func (s *Scheduler) runSeat(ctx context.Context, game *engine.Game, ts *teamState, seatID string, purpose Purpose) bool {
	state := game.Snapshot()
	if state.Ended() {
		return true
	}
	seat, ok := state.SeatByID(seatID)
	if !ok || !seat.IsAgent() {
		return true
	}
	if seat.Role == domain.RoleSpymaster &&
		(state.Turn.Phase == domain.PhaseGuess || state.Turn.Phase == domain.PhaseBanter) {
		return true
	}
	if state.Turn.Phase != domain.PhaseBanter && state.Turn.ActiveTeam != seat.Team {
		return true
	}

	sit := buildSituation(state, seat, purpose, nil, ts.failures, warningNotes(ts))
	act, err := s.port.Decide(ctx, sit)
	if err != nil {
		s.reportPortError(game, seat, err)
		return false
	}

	spoke := false
	if say := strings.TrimSpace(act.Say); say != "" {
		if _, err := game.PostChat(seat.ID, say); err == nil {
			spoke = true
		}
	}
	ok = s.applyAction(game, ts, seat, act, &spoke)
	if spoke {
		s.gates.For(game.ID()).Wait(ctx)
	}
	return ok
}

// applyAction executes the game action carried by an agent response.
// Invalid actions burn one team failure and leave a system note in the
// transcript so spectators see why nothing happened.
func (s *Scheduler) applyAction(game *engine.Game, ts *teamState, seat domain.Seat, act Action, spoke *bool) bool {
	switch act.Kind {
	case ActionNone, "":
		return true

	case ActionHint:
		// Hints only flow through the spymaster step, never here.
		return s.flagViolation(game, ts, seat, spoke, "a hint is not allowed right now")

	case ActionProposeGuess:
		if _, err := game.CreateProposal(seat.ID, domain.ProposalGuess, act.Word); err != nil {
			return s.flagViolation(game, ts, seat, spoke, err.Error())
		}
		*spoke = true
		word := strings.ToUpper(strings.TrimSpace(act.Word))
		if !ts.proposedWords[word] {
			ts.proposedWords[word] = true
			ts.failures = 0
		}
		metrics.Get().RecordAgentAction(false)
		return true

	case ActionProposeEndTurn:
		if _, err := game.CreateProposal(seat.ID, domain.ProposalEndTurn, ""); err != nil {
			return s.flagViolation(game, ts, seat, spoke, err.Error())
		}
		*spoke = true
		metrics.Get().RecordAgentAction(false)
		return true

	case ActionVote:
		err := game.VoteOnProposal(seat.ID, act.ProposalID, act.Decision)
		if err != nil && !errors.Is(err, engine.ErrProposalResolved) {
			return s.flagViolation(game, ts, seat, spoke, err.Error())
		}
		*spoke = true
		metrics.Get().RecordAgentAction(false)
		return true

	default:
		return s.flagViolation(game, ts, seat, spoke, fmt.Sprintf("unknown action %q", act.Kind))
	}
}

func (s *Scheduler) flagViolation(game *engine.Game, ts *teamState, seat domain.Seat, spoke *bool, why string) bool {
	ts.failures++
	metrics.Get().RecordAgentAction(true)
	game.PostSystemNote(seat.Team, fmt.Sprintf("%s's action was rejected: %s.", seat.Name, why))
	*spoke = true
	s.logger.Warnf("game %s: rejected action from %s (%d/%d failures): %s",
		game.ID(), seat.Name, ts.failures, maxTeamFailures, why)
	return false
}

// reportPortError records an infrastructure fault. It is sticky on the
// game for host visibility but does not count as a bad move, so the
// failure counter stays put.
func (s *Scheduler) reportPortError(game *engine.Game, seat domain.Seat, err error) {
	metrics.Get().RecordAgentAction(true)
	game.SetAgentError(fmt.Sprintf("agent %s: %v", seat.Name, err))
	s.logger.Errorf("game %s: response port failed for %s: %v", game.ID(), seat.Name, err)
}
