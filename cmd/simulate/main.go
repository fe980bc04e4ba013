// Package main runs one full scripted game end to end without any
// model calls: a deterministic port plays all six seats, autoplay
// drives the match to a winner, and the transcript is printed. Useful
// as a smoke run for the whole pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/narrate"
	"github.com/and1mon/clueless/internal/platform/logger"
	"github.com/and1mon/clueless/internal/scheduler"
)

var banterLines = []string{
	"You will not keep that lead for long.",
	"We are just warming up.",
	"Bold words for a team that guesses like that.",
	"Watch and learn.",
}

// scriptedPort plays every seat with full knowledge of the board. It
// reads ownership straight from raw snapshots, which a real agent
// never sees; the point is a deterministic run that exercises hints,
// proposals, votes and banter, not a fair game.
type scriptedPort struct {
	registry *engine.Registry

	mu      sync.Mutex
	hintSeq int
	lineSeq int
}

func (p *scriptedPort) Decide(_ context.Context, sit scheduler.Situation) (scheduler.Action, error) {
	game, ok := p.registry.Get(sit.GameID)
	if !ok {
		return scheduler.Action{Kind: scheduler.ActionNone}, fmt.Errorf("unknown game %s", sit.GameID)
	}
	state := game.Snapshot()

	switch sit.Purpose {
	case scheduler.PurposeHint:
		return p.giveHint(state, sit), nil
	case scheduler.PurposeDeliberate:
		return p.deliberate(state, sit), nil
	case scheduler.PurposeVote:
		if sit.Pending == nil {
			return scheduler.Action{Kind: scheduler.ActionNone}, nil
		}
		return scheduler.Action{
			Say:        "Agreed, let's do it.",
			Kind:       scheduler.ActionVote,
			ProposalID: sit.Pending.ID,
			Decision:   domain.VoteAccept,
		}, nil
	default:
		return scheduler.Action{Say: p.nextLine(), Kind: scheduler.ActionNone}, nil
	}
}

// giveHint targets up to two of the team's own unrevealed words. The
// hint word carries a sequence digit so it can never collide with a
// board word.
func (p *scriptedPort) giveHint(state domain.GameState, sit scheduler.Situation) scheduler.Action {
	targets := p.ownWords(state, sit.Seat.Team, 2)
	p.mu.Lock()
	p.hintSeq++
	word := fmt.Sprintf("cue%d", p.hintSeq)
	p.mu.Unlock()
	return scheduler.Action{
		Say:     fmt.Sprintf("Think about %q, team.", word),
		Kind:    scheduler.ActionHint,
		Word:    word,
		Count:   len(targets),
		Targets: targets,
	}
}

func (p *scriptedPort) deliberate(state domain.GameState, sit scheduler.Situation) scheduler.Action {
	if sit.Pending != nil {
		if sit.Pending.CreatedBy == sit.Seat.ID {
			return scheduler.Action{Say: "Waiting on your votes.", Kind: scheduler.ActionNone}
		}
		return scheduler.Action{
			Say:        "Looks right to me.",
			Kind:       scheduler.ActionVote,
			ProposalID: sit.Pending.ID,
			Decision:   domain.VoteAccept,
		}
	}

	words := p.ownWords(state, sit.Seat.Team, 1)
	if len(words) == 0 {
		return scheduler.Action{Say: "Nothing left for us, wrap it up.", Kind: scheduler.ActionProposeEndTurn}
	}
	return scheduler.Action{
		Say:  fmt.Sprintf("%s has to be ours.", words[0]),
		Kind: scheduler.ActionProposeGuess,
		Word: words[0],
	}
}

// ownWords lists up to limit unrevealed words owned by the team, in
// board order.
func (p *scriptedPort) ownWords(state domain.GameState, team domain.Team, limit int) []string {
	owner := domain.OwnerForTeam(team)
	var words []string
	for _, card := range state.Board {
		if card.Owner == owner && !card.Revealed {
			words = append(words, card.Word)
			if len(words) == limit {
				break
			}
		}
	}
	return words
}

func (p *scriptedPort) nextLine() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := banterLines[p.lineSeq%len(banterLines)]
	p.lineSeq++
	return line
}

func main() {
	seed := flag.Int64("seed", 42, "seed for the deal and speaking order")
	flag.Parse()

	fmt.Println("CLUELESS - SCRIPTED GAME SIMULATION")
	fmt.Println("===================================")
	fmt.Printf("Seed: %d\n\n", *seed)

	appLogger := logger.NewLogger()
	registry := engine.NewRegistry(nil, appLogger)
	gates := narrate.NewGateSet()
	port := &scriptedPort{registry: registry}
	sched := scheduler.New(registry, port, gates, appLogger)
	sched.Seed(*seed)

	cfg := engine.GameConfig{
		Seats: []engine.SeatConfig{
			{Name: "Scarlet", Kind: domain.SeatAgent, Team: domain.TeamRed},
			{Name: "Ruby", Kind: domain.SeatAgent, Team: domain.TeamRed},
			{Name: "Coral", Kind: domain.SeatAgent, Team: domain.TeamRed},
			{Name: "Azure", Kind: domain.SeatAgent, Team: domain.TeamBlue},
			{Name: "Indigo", Kind: domain.SeatAgent, Team: domain.TeamBlue},
			{Name: "Teal", Kind: domain.SeatAgent, Team: domain.TeamBlue},
		},
		Seed: *seed,
	}
	game, err := registry.Create(cfg)
	if err != nil {
		fmt.Printf("Failed to create game: %v\n", err)
		os.Exit(1)
	}

	// Autoplay is synchronous: it returns once the game has a winner
	// and the farewell exchange is done.
	sched.Autoplay(context.Background(), game.ID())

	snap := game.Snapshot()

	fmt.Println("\nTRANSCRIPT")
	fmt.Println("----------")
	for _, msg := range snap.Messages {
		speaker := "*"
		if msg.PlayerID != domain.SystemPlayerID {
			if seat, ok := snap.SeatByID(msg.PlayerID); ok {
				speaker = seat.Name
			}
		}
		fmt.Printf("[%-6s] %-8s %s\n", msg.Phase, speaker, msg.Content)
	}

	fmt.Println("\nRESULT")
	fmt.Println("------")
	fmt.Printf("Messages: %d\n", len(snap.Messages))
	if !snap.Ended() {
		fmt.Println("No winner: the simulation stalled.")
		os.Exit(1)
	}
	fmt.Printf("Winner: %s (%s)\n", snap.Winner, snap.WinReason)
}
