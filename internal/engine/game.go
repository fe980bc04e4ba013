// Package engine is the game state store. A Game owns every mutable
// piece of one match behind a single mutex; all exported mutations
// validate first and reject with a descriptive error and no state
// change. Snapshots are deep copies and must be treated as stale the
// moment they are returned.
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/platform/logger"
)

var (
	// ErrGameEnded rejects play mutations after a winner is decided.
	ErrGameEnded = errors.New("game has ended")
	// ErrProposalResolved marks votes that arrive after a proposal was
	// accepted or rejected. Callers usually treat it as harmless.
	ErrProposalResolved = errors.New("proposal already resolved")
	// ErrGameNotFound is returned by the registry for unknown IDs.
	ErrGameNotFound = errors.New("game not found")
)

// SeatConfig describes one requested seat at game creation.
type SeatConfig struct {
	Name        string          `json:"name"`
	Kind        domain.SeatKind `json:"kind"`
	Team        domain.Team     `json:"team"`
	Spymaster   bool            `json:"spymaster,omitempty"`
	Personality string          `json:"personality,omitempty"`
	Model       string          `json:"model,omitempty"`
	Voice       string          `json:"voice,omitempty"`
}

// GameConfig is everything needed to create a game. Words and Seed are
// optional: Words defaults to the built-in pool, Seed to the clock.
type GameConfig struct {
	Seats []SeatConfig `json:"seats"`
	Words []string     `json:"words,omitempty"`
	Seed  int64        `json:"seed,omitempty"`
}

// Game holds the full state of one match.
type Game struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	board []domain.Card
	seats []domain.Seat
	turn  domain.TurnState

	proposals map[domain.Team][]*domain.Proposal
	messages  []domain.Message

	winner    domain.Team
	winReason string

	paused       map[domain.Team]bool
	deliberating map[domain.Team]bool

	lastAgentError string
	farewellDone   bool

	persister MessagePersister
	logger    *logger.Logger
}

// NewGame deals a board, seats the players and opens the first turn.
func NewGame(cfg GameConfig, persister MessagePersister, log *logger.Logger) (*Game, error) {
	seats, err := buildSeats(cfg.Seats)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	words := cfg.Words
	if len(words) == 0 {
		words = DefaultWords
	}
	board, err := dealBoard(words, rng)
	if err != nil {
		return nil, err
	}

	start := domain.TeamRed
	if rng.Intn(2) == 1 {
		start = domain.TeamBlue
	}

	g := &Game{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		board:     board,
		seats:     seats,
		turn: domain.TurnState{
			ActiveTeam: start,
			Phase:      domain.PhaseHint,
		},
		proposals: map[domain.Team][]*domain.Proposal{
			domain.TeamRed:  nil,
			domain.TeamBlue: nil,
		},
		paused:       map[domain.Team]bool{},
		deliberating: map[domain.Team]bool{},
		persister:    persister,
		logger:       log,
	}
	g.appendSystemLocked(start, fmt.Sprintf("A new game begins. The %s team goes first.", start))
	return g, nil
}

// buildSeats validates seat requests and assigns exactly one spymaster
// per team: an explicit human request wins, otherwise the first agent
// seat, otherwise the first seat on the team.
func buildSeats(configs []SeatConfig) ([]domain.Seat, error) {
	if len(configs) == 0 {
		return nil, errors.New("a game needs seats")
	}
	seats := make([]domain.Seat, 0, len(configs))
	for i, sc := range configs {
		if sc.Name == "" {
			return nil, fmt.Errorf("seat %d has no name", i)
		}
		if sc.Kind != domain.SeatHuman && sc.Kind != domain.SeatAgent {
			return nil, fmt.Errorf("seat %q has invalid kind %q", sc.Name, sc.Kind)
		}
		if !sc.Team.Valid() {
			return nil, fmt.Errorf("seat %q has invalid team %q", sc.Name, sc.Team)
		}
		seats = append(seats, domain.Seat{
			ID:          uuid.NewString(),
			Name:        sc.Name,
			Kind:        sc.Kind,
			Role:        domain.RoleOperative,
			Team:        sc.Team,
			Personality: sc.Personality,
			Model:       sc.Model,
			Voice:       sc.Voice,
		})
	}

	for _, team := range []domain.Team{domain.TeamRed, domain.TeamBlue} {
		idx := -1
		for i, sc := range configs {
			if sc.Team == team && sc.Spymaster && sc.Kind == domain.SeatHuman {
				idx = i
				break
			}
		}
		if idx < 0 {
			for i, sc := range configs {
				if sc.Team == team && sc.Kind == domain.SeatAgent {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			for i, sc := range configs {
				if sc.Team == team {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("the %s team has no seats", team)
		}
		seats[idx].Role = domain.RoleSpymaster
	}
	return seats, nil
}

// ID returns the game's identifier.
func (g *Game) ID() string {
	return g.id
}

// Winner returns the winning team and reason, if decided.
func (g *Game) Winner() (domain.Team, string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner, g.winReason, g.winner != ""
}

// Snapshot returns a deep copy of the full game state. Ownership is not
// masked here; see the scheduler's situation builder for agent views.
func (g *Game) Snapshot() domain.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := domain.GameState{
		ID:             g.id,
		CreatedAt:      g.createdAt,
		Board:          make([]domain.Card, len(g.board)),
		Seats:          make([]domain.Seat, len(g.seats)),
		Turn:           g.turn,
		Proposals:      make(map[domain.Team][]domain.Proposal, len(g.proposals)),
		Messages:       make([]domain.Message, len(g.messages)),
		Winner:         g.winner,
		WinReason:      g.winReason,
		Paused:         make(map[domain.Team]bool, len(g.paused)),
		Deliberating:   make(map[domain.Team]bool, len(g.deliberating)),
		LastAgentError: g.lastAgentError,
	}
	copy(state.Board, g.board)
	copy(state.Seats, g.seats)
	copy(state.Messages, g.messages)
	state.Turn.HintTargets = append([]string(nil), g.turn.HintTargets...)
	for team, history := range g.proposals {
		copies := make([]domain.Proposal, 0, len(history))
		for _, p := range history {
			cp := *p
			cp.Votes = make(map[string]domain.VoteDecision, len(p.Votes))
			for seatID, v := range p.Votes {
				cp.Votes[seatID] = v
			}
			copies = append(copies, cp)
		}
		state.Proposals[team] = copies
	}
	for team, v := range g.paused {
		state.Paused[team] = v
	}
	for team, v := range g.deliberating {
		state.Deliberating[team] = v
	}
	return state
}

// PostChat appends a chat message from a seat. Chat is the one action
// still accepted after the game ends; the end-game banter flows
// through it.
func (g *Game) PostChat(seatID, content string) (domain.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, ok := g.seatLocked(seatID)
	if !ok {
		return domain.Message{}, fmt.Errorf("unknown seat %q", seatID)
	}
	content = trimContent(content)
	if content == "" {
		return domain.Message{}, errors.New("empty message")
	}
	msg := g.appendMessageLocked(seat.Team, seat.ID, domain.MessageChat, content)
	g.clearPauseIfHumanLocked(seat)
	return msg, nil
}

// Pause suspends automatic deliberation for a team. The flag clears on
// Resume or on the team's next human action.
func (g *Game) Pause(team domain.Team) error {
	if !team.Valid() {
		return fmt.Errorf("invalid team %q", team)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused[team] = true
	return nil
}

// Resume lifts a team's pause.
func (g *Game) Resume(team domain.Team) error {
	if !team.Valid() {
		return fmt.Errorf("invalid team %q", team)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused[team] = false
	return nil
}

// IsPaused reports whether a team's automatic deliberation is paused.
func (g *Game) IsPaused(team domain.Team) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused[team]
}

// SetDeliberating flags a team as currently driven by the scheduler.
// Purely informational for spectators.
func (g *Game) SetDeliberating(team domain.Team, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deliberating[team] = on
}

// SetAgentError records the latest agent infrastructure error. Sticky:
// each new error overwrites the previous one.
func (g *Game) SetAgentError(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastAgentError = msg
}

// BeginFarewell claims the one-shot end-game banter. The first caller
// after a winner is decided gets true, everyone else false.
func (g *Game) BeginFarewell() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.winner == "" || g.farewellDone {
		return false
	}
	g.farewellDone = true
	return true
}

func (g *Game) seatLocked(seatID string) (domain.Seat, bool) {
	for _, s := range g.seats {
		if s.ID == seatID {
			return s, true
		}
	}
	return domain.Seat{}, false
}

func (g *Game) clearPauseIfHumanLocked(seat domain.Seat) {
	if seat.IsHuman() {
		g.paused[seat.Team] = false
	}
}

func (g *Game) cardIndexLocked(word string) int {
	for i := range g.board {
		if g.board[i].Matches(word) {
			return i
		}
	}
	return -1
}

func (g *Game) remainingLocked(owner domain.CardOwner) int {
	n := 0
	for _, c := range g.board {
		if c.Owner == owner && !c.Revealed {
			n++
		}
	}
	return n
}
