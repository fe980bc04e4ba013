package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/narrate"
	"github.com/and1mon/clueless/internal/platform/logger"
)

type fakePort struct {
	mu     sync.Mutex
	script func(sit Situation) (Action, error)
	calls  []Situation
}

func (f *fakePort) Decide(_ context.Context, sit Situation) (Action, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sit)
	script := f.script
	f.mu.Unlock()
	if script == nil {
		return Action{Kind: ActionNone}, nil
	}
	return script(sit)
}

func (f *fakePort) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePort) purposeCalls(p Purpose) []Situation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Situation
	for _, sit := range f.calls {
		if sit.Purpose == p {
			out = append(out, sit)
		}
	}
	return out
}

func newTestScheduler(port ResponsePort) (*Scheduler, *engine.Registry) {
	log := logger.NewLogger()
	reg := engine.NewRegistry(nil, log)
	s := New(reg, port, narrate.NewGateSet(), log)
	s.Seed(7)
	return s, reg
}

func agentGame(t *testing.T, reg *engine.Registry, redOps, blueOps int) *engine.Game {
	t.Helper()
	cfgs := []engine.SeatConfig{
		{Name: "red-spy", Kind: domain.SeatAgent, Team: domain.TeamRed},
		{Name: "blue-spy", Kind: domain.SeatAgent, Team: domain.TeamBlue},
	}
	for i := 1; i <= redOps; i++ {
		cfgs = append(cfgs, engine.SeatConfig{Name: fmt.Sprintf("red-op%d", i), Kind: domain.SeatAgent, Team: domain.TeamRed})
	}
	for i := 1; i <= blueOps; i++ {
		cfgs = append(cfgs, engine.SeatConfig{Name: fmt.Sprintf("blue-op%d", i), Kind: domain.SeatAgent, Team: domain.TeamBlue})
	}
	g, err := reg.Create(engine.GameConfig{Seats: cfgs, Seed: 42})
	if err != nil {
		t.Fatalf("Expected game creation to succeed, got %v", err)
	}
	return g
}

func mixedGame(t *testing.T, reg *engine.Registry) *engine.Game {
	t.Helper()
	g, err := reg.Create(engine.GameConfig{Seats: []engine.SeatConfig{
		{Name: "red-spy", Kind: domain.SeatAgent, Team: domain.TeamRed},
		{Name: "blue-spy", Kind: domain.SeatAgent, Team: domain.TeamBlue},
		{Name: "red-human", Kind: domain.SeatHuman, Team: domain.TeamRed},
		{Name: "red-op", Kind: domain.SeatAgent, Team: domain.TeamRed},
		{Name: "blue-human", Kind: domain.SeatHuman, Team: domain.TeamBlue},
		{Name: "blue-op", Kind: domain.SeatAgent, Team: domain.TeamBlue},
	}, Seed: 42})
	if err != nil {
		t.Fatalf("Expected game creation to succeed, got %v", err)
	}
	return g
}

func seatID(t *testing.T, g *engine.Game, name string) string {
	t.Helper()
	for _, seat := range g.Snapshot().Seats {
		if seat.Name == name {
			return seat.ID
		}
	}
	t.Fatalf("Expected a seat named %s", name)
	return ""
}

func unrevealedWordOwned(g *engine.Game, owner domain.CardOwner) string {
	for _, c := range g.Snapshot().Board {
		if c.Owner == owner && !c.Revealed {
			return c.Word
		}
	}
	return ""
}

func transcriptContains(g *engine.Game, substr string) bool {
	for _, m := range g.Snapshot().Messages {
		if strings.Contains(m.Content, substr) {
			return true
		}
	}
	return false
}

// sweepScript plays competent agents: a fixed off-board hint, then
// guess proposals for the team's own cards, accepting every vote.
func sweepScript(gameRef **engine.Game, hintCount int) func(Situation) (Action, error) {
	return func(sit Situation) (Action, error) {
		switch sit.Purpose {
		case PurposeHint:
			return Action{Kind: ActionHint, Word: "PYRAMID", Count: hintCount, Say: "Trust me on this one."}, nil
		case PurposeDeliberate:
			if sit.Pending != nil {
				if sit.Pending.CreatedBy == sit.Seat.ID {
					return Action{Kind: ActionNone, Say: "Waiting on votes."}, nil
				}
				return Action{Kind: ActionVote, ProposalID: sit.Pending.ID, Decision: domain.VoteAccept, Say: "Agreed."}, nil
			}
			word := unrevealedWordOwned(*gameRef, domain.OwnerForTeam(sit.Seat.Team))
			if word == "" {
				return Action{Kind: ActionProposeEndTurn, Say: "Nothing left for us."}, nil
			}
			return Action{Kind: ActionProposeGuess, Word: word, Say: "Going with " + word + "."}, nil
		case PurposeVote:
			if sit.Pending == nil {
				return Action{Kind: ActionNone}, nil
			}
			return Action{Kind: ActionVote, ProposalID: sit.Pending.ID, Decision: domain.VoteAccept, Say: "Yes."}, nil
		default:
			return Action{Kind: ActionNone, Say: "What a play."}, nil
		}
	}
}

func TestAutoHintRetriesRejectedWords(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	game := agentGame(t, reg, 1, 1)
	team := game.Snapshot().Turn.ActiveTeam
	boardWord := game.Snapshot().Board[0].Word

	attempt := 0
	port.script = func(sit Situation) (Action, error) {
		attempt++
		if attempt == 1 {
			return Action{Kind: ActionHint, Word: boardWord, Count: 2}, nil
		}
		return Action{Kind: ActionHint, Word: "PYRAMID", Count: 2, Say: "Two cards, one idea."}, nil
	}

	ts := s.teamFor(game.ID(), team)
	ts.mu.Lock()
	ok := s.autoHintLocked(context.Background(), game, team, ts)
	ts.mu.Unlock()

	if !ok {
		t.Fatal("Expected the hint step to succeed on retry")
	}
	got := game.Snapshot()
	if got.Turn.Phase != domain.PhaseGuess {
		t.Errorf("Expected guess phase, got %s", got.Turn.Phase)
	}
	if got.Turn.HintWord != "PYRAMID" || got.Turn.MaxGuesses != 3 {
		t.Errorf("Expected hint PYRAMID with 3 guesses allowed, got %s/%d", got.Turn.HintWord, got.Turn.MaxGuesses)
	}
	hints := port.purposeCalls(PurposeHint)
	if len(hints) != 2 {
		t.Fatalf("Expected 2 hint attempts, got %d", len(hints))
	}
	if len(hints[1].RejectedHints) != 1 || hints[1].RejectedHints[0] != boardWord {
		t.Errorf("Expected the retry to carry rejected word %s, got %v", boardWord, hints[1].RejectedHints)
	}
}

func TestAutoHintForfeitsAfterFiveAttempts(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	game := agentGame(t, reg, 1, 1)
	team := game.Snapshot().Turn.ActiveTeam
	boardWord := game.Snapshot().Board[0].Word

	port.script = func(sit Situation) (Action, error) {
		return Action{Kind: ActionHint, Word: boardWord, Count: 1}, nil
	}

	ts := s.teamFor(game.ID(), team)
	ts.mu.Lock()
	ok := s.autoHintLocked(context.Background(), game, team, ts)
	ts.mu.Unlock()

	if ok {
		t.Fatal("Expected the hint step to give up")
	}
	got := game.Snapshot()
	if got.Turn.Phase != domain.PhaseBanter {
		t.Errorf("Expected a forfeited turn in banter, got %s", got.Turn.Phase)
	}
	if got.Ended() {
		t.Error("Expected no winner from a forfeit")
	}
	if !transcriptContains(game, "could not produce a valid hint after 5 attempts") {
		t.Error("Expected the forfeit reason in the transcript")
	}
	hints := port.purposeCalls(PurposeHint)
	if len(hints) != 5 {
		t.Fatalf("Expected exactly 5 attempts, got %d", len(hints))
	}
	if len(hints[4].RejectedHints) != 4 {
		t.Errorf("Expected 4 accumulated rejections on the last attempt, got %v", hints[4].RejectedHints)
	}
}

func TestRunAgentTurnPlaysHintAndGuesses(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	var game *engine.Game
	port.script = sweepScript(&game, 1)
	game = agentGame(t, reg, 2, 2)
	team := game.Snapshot().Turn.ActiveTeam

	if !s.RunAgentTurn(context.Background(), game, team) {
		t.Fatal("Expected the turn to run")
	}

	got := game.Snapshot()
	if got.Turn.Phase != domain.PhaseBanter {
		t.Fatalf("Expected the turn to end in banter, got %s", got.Turn.Phase)
	}
	if got.RevealedCount() != 2 {
		t.Errorf("Expected count+1 reveals, got %d", got.RevealedCount())
	}
	if got.Turn.ActiveTeam != team {
		t.Errorf("Expected %s to hold the turn until banter ends, got %s", team, got.Turn.ActiveTeam)
	}
	if got.Ended() {
		t.Error("Expected no winner from two guesses")
	}
	if n := len(port.purposeCalls(PurposeReaction)); n != 2 {
		t.Errorf("Expected one reaction per revealed card, got %d", n)
	}
}

func TestAutoplayPlaysWholeGame(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	var game *engine.Game
	port.script = sweepScript(&game, domain.CardsPerTeam)
	game = agentGame(t, reg, 2, 2)
	start := game.Snapshot().Turn.ActiveTeam

	s.Autoplay(context.Background(), game.ID())

	winner, reason, over := game.Winner()
	if !over {
		t.Fatal("Expected autoplay to finish the game")
	}
	if winner != start {
		t.Errorf("Expected the starting team %s to sweep, got %s", start, winner)
	}
	if !strings.Contains(reason, "found all their words") {
		t.Errorf("Expected a sweep win, got %q", reason)
	}
	if n := len(port.purposeCalls(PurposeFarewell)); n != 3 {
		t.Errorf("Expected winner-loser-winner farewells, got %d", n)
	}
	if game.BeginFarewell() {
		t.Error("Expected the farewell latch to be spent")
	}
}

func TestViolationsForfeitTheTurn(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	game := agentGame(t, reg, 2, 2)
	team := game.Snapshot().Turn.ActiveTeam

	port.script = func(sit Situation) (Action, error) {
		if sit.Purpose == PurposeHint {
			return Action{Kind: ActionHint, Word: "PYRAMID", Count: 2}, nil
		}
		return Action{Kind: ActionProposeGuess, Word: "XYLOPHONE", Say: "It has to be XYLOPHONE."}, nil
	}

	s.RunAgentTurn(context.Background(), game, team)

	got := game.Snapshot()
	if got.Turn.Phase != domain.PhaseBanter {
		t.Fatalf("Expected a forfeited turn in banter, got %s", got.Turn.Phase)
	}
	if got.Ended() {
		t.Error("Expected no winner from a forfeit")
	}
	if !transcriptContains(game, "too many invalid actions") {
		t.Error("Expected the forfeit reason in the transcript")
	}
	if !transcriptContains(game, "action was rejected") {
		t.Error("Expected rejection notes in the transcript")
	}
	ts := s.teamFor(game.ID(), team)
	if ts.failures != maxTeamFailures {
		t.Errorf("Expected %d recorded failures, got %d", maxTeamFailures, ts.failures)
	}
	if n := len(port.purposeCalls(PurposeDeliberate)); n != maxTeamFailures {
		t.Errorf("Expected %d deliberation calls before the forfeit, got %d", maxTeamFailures, n)
	}
}

func TestPortErrorsAreStickyNotFailures(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	game := agentGame(t, reg, 2, 2)
	team := game.Snapshot().Turn.ActiveTeam

	if err := game.SubmitHint(seatID(t, game, string(team)+"-spy"), "PYRAMID", 2, nil); err != nil {
		t.Fatalf("Expected the hint to land, got %v", err)
	}

	port.script = func(sit Situation) (Action, error) {
		return Action{}, errors.New("model meltdown")
	}

	ts := s.teamFor(game.ID(), team)
	ts.mu.Lock()
	cont := s.runConversationRound(context.Background(), game, team, ts)
	ts.mu.Unlock()

	if !cont {
		t.Error("Expected infrastructure errors not to forfeit the round")
	}
	if ts.failures != 0 {
		t.Errorf("Expected the failure counter untouched, got %d", ts.failures)
	}
	got := game.Snapshot()
	if !strings.Contains(got.LastAgentError, "model meltdown") {
		t.Errorf("Expected a sticky agent error, got %q", got.LastAgentError)
	}
	if n := port.callCount(); n != 2 {
		t.Errorf("Expected both operatives to be asked, got %d calls", n)
	}
}

func TestVoteOnResolvedProposalIsSwallowed(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	game := agentGame(t, reg, 3, 3)
	team := game.Snapshot().Turn.ActiveTeam
	prefix := string(team)

	if err := game.SubmitHint(seatID(t, game, prefix+"-spy"), "PYRAMID", 3, nil); err != nil {
		t.Fatalf("Expected the hint to land, got %v", err)
	}
	word := unrevealedWordOwned(game, domain.OwnerForTeam(team))
	p, err := game.CreateProposal(seatID(t, game, prefix+"-op1"), domain.ProposalGuess, word)
	if err != nil {
		t.Fatalf("Expected the proposal to open, got %v", err)
	}
	if err := game.VoteOnProposal(seatID(t, game, prefix+"-op2"), p.ID, domain.VoteAccept); err != nil {
		t.Fatalf("Expected the accepting vote to land, got %v", err)
	}

	port.script = func(sit Situation) (Action, error) {
		return Action{Kind: ActionVote, ProposalID: p.ID, Decision: domain.VoteAccept, Say: "Me too."}, nil
	}

	ts := s.teamFor(game.ID(), team)
	ts.mu.Lock()
	ok := s.runSeat(context.Background(), game, ts, seatID(t, game, prefix+"-op3"), PurposeVote)
	ts.mu.Unlock()

	if !ok {
		t.Error("Expected a vote on a resolved proposal to be swallowed")
	}
	if ts.failures != 0 {
		t.Errorf("Expected no failure from a late vote, got %d", ts.failures)
	}
}

func TestAutoplayStopsAtHumanTeam(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	var game *engine.Game
	port.script = sweepScript(&game, 2)
	game = mixedGame(t, reg)
	team := game.Snapshot().Turn.ActiveTeam

	s.Autoplay(context.Background(), game.ID())

	got := game.Snapshot()
	if got.Turn.Phase != domain.PhaseGuess {
		t.Fatalf("Expected autoplay to leave the human team with a hint, got phase %s", got.Turn.Phase)
	}
	if got.Turn.HintWord != "PYRAMID" {
		t.Errorf("Expected the agent spymaster's hint, got %q", got.Turn.HintWord)
	}
	if got.Turn.ActiveTeam != team {
		t.Errorf("Expected the turn to stay with %s, got %s", team, got.Turn.ActiveTeam)
	}
	if n := len(port.purposeCalls(PurposeDeliberate)); n != 0 {
		t.Errorf("Expected no agent deliberation on a human team, got %d calls", n)
	}
}

func TestAutoplayHonorsPause(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	game := agentGame(t, reg, 1, 1)
	team := game.Snapshot().Turn.ActiveTeam

	if err := game.Pause(team); err != nil {
		t.Fatalf("Expected pause to apply, got %v", err)
	}
	s.Autoplay(context.Background(), game.ID())

	if n := port.callCount(); n != 0 {
		t.Errorf("Expected a paused team to stay silent, got %d port calls", n)
	}
	if got := game.Snapshot(); got.Turn.Phase != domain.PhaseHint {
		t.Errorf("Expected the game untouched, got phase %s", got.Turn.Phase)
	}
}

func TestAdvisoryLockSkipsConcurrentRun(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	game := agentGame(t, reg, 1, 1)
	team := game.Snapshot().Turn.ActiveTeam

	ts := s.teamFor(game.ID(), team)
	ts.mu.Lock()
	ran := s.RunAgentTurn(context.Background(), game, team)
	ts.mu.Unlock()

	if ran {
		t.Error("Expected a held team lock to skip the run")
	}
	if n := port.callCount(); n != 0 {
		t.Errorf("Expected no port calls under a held lock, got %d", n)
	}
}

func TestBanterRoundExchangesAndHandsOver(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	var game *engine.Game
	port.script = func(sit Situation) (Action, error) {
		switch sit.Purpose {
		case PurposeHint:
			return Action{Kind: ActionHint, Word: "PYRAMID", Count: 1}, nil
		case PurposeDeliberate:
			if sit.Pending != nil && sit.Pending.CreatedBy != sit.Seat.ID {
				return Action{Kind: ActionVote, ProposalID: sit.Pending.ID, Decision: domain.VoteAccept}, nil
			}
			if sit.Pending != nil {
				return Action{Kind: ActionNone}, nil
			}
			enemy := unrevealedWordOwned(game, domain.OwnerForTeam(sit.Seat.Team.Other()))
			return Action{Kind: ActionProposeGuess, Word: enemy, Say: "I like " + enemy + "."}, nil
		case PurposeVote:
			return Action{Kind: ActionVote, ProposalID: sit.Pending.ID, Decision: domain.VoteAccept}, nil
		case PurposeBanter:
			return Action{Kind: ActionNone, Say: "Enjoy it while it lasts."}, nil
		default:
			return Action{Kind: ActionNone, Say: "Ouch."}, nil
		}
	}
	game = agentGame(t, reg, 2, 2)
	team := game.Snapshot().Turn.ActiveTeam

	s.RunAgentTurn(context.Background(), game, team)
	if got := game.Snapshot(); got.Turn.Phase != domain.PhaseBanter {
		t.Fatalf("Expected a wrong guess to enter banter, got %s", got.Turn.Phase)
	}

	if !s.runBanterRound(context.Background(), game) {
		t.Fatal("Expected the banter round to complete")
	}

	got := game.Snapshot()
	if got.Turn.Phase != domain.PhaseHint {
		t.Errorf("Expected banter to end in the hint phase, got %s", got.Turn.Phase)
	}
	if got.Turn.ActiveTeam != team.Other() {
		t.Errorf("Expected the turn to flip to %s, got %s", team.Other(), got.Turn.ActiveTeam)
	}
	if n := len(port.purposeCalls(PurposeBanter)); n != 3 {
		t.Errorf("Expected the outgoing-incoming-outgoing exchange, got %d banter calls", n)
	}
	if !transcriptContains(game, "Enjoy it while it lasts.") {
		t.Error("Expected banter chat in the transcript")
	}
}

func TestNudgeRunsHintAndOneRound(t *testing.T) {
	port := &fakePort{}
	s, reg := newTestScheduler(port)
	var game *engine.Game
	port.script = sweepScript(&game, 2)
	game = mixedGame(t, reg)
	team := game.Snapshot().Turn.ActiveTeam

	s.NudgeTeam(context.Background(), game.ID(), team)

	got := game.Snapshot()
	if got.Turn.HintWord != "PYRAMID" {
		t.Fatalf("Expected the nudge to produce a hint, got %q", got.Turn.HintWord)
	}
	if got.PendingProposal(team) == nil {
		t.Error("Expected the agent operative to open a proposal")
	}
	if n := len(port.purposeCalls(PurposeDeliberate)); n != 1 {
		t.Errorf("Expected a single deliberation call, got %d", n)
	}
}

func TestSituationMasksBoardAndFiltersTranscript(t *testing.T) {
	state := domain.GameState{
		ID: "g1",
		Board: []domain.Card{
			{Word: "ALPHA", Owner: domain.OwnerRed},
			{Word: "BRAVO", Owner: domain.OwnerBlue, Revealed: true},
			{Word: "CHARLIE", Owner: domain.OwnerAssassin},
		},
		Turn: domain.TurnState{
			ActiveTeam:  domain.TeamRed,
			Phase:       domain.PhaseGuess,
			HintWord:    "stone",
			HintTargets: []string{"ALPHA"},
		},
		Seats: []domain.Seat{
			{ID: "s1", Name: "Ada", Kind: domain.SeatAgent, Role: domain.RoleSpymaster, Team: domain.TeamRed},
			{ID: "o1", Name: "Bob", Kind: domain.SeatAgent, Role: domain.RoleOperative, Team: domain.TeamRed},
			{ID: "o2", Name: "Eve", Kind: domain.SeatAgent, Role: domain.RoleOperative, Team: domain.TeamBlue},
		},
		Messages: []domain.Message{
			{ID: "m1", Team: domain.TeamRed, PlayerID: "o1", Kind: domain.MessageChat, Content: "our plan", Phase: domain.PhaseGuess},
			{ID: "m2", Team: domain.TeamBlue, PlayerID: "o2", Kind: domain.MessageChat, Content: "their secret", Phase: domain.PhaseGuess},
			{ID: "m3", Team: domain.TeamBlue, PlayerID: "o2", Kind: domain.MessageChat, Content: "trash talk", Phase: domain.PhaseBanter},
			{ID: "m4", Team: domain.TeamRed, PlayerID: domain.SystemPlayerID, Kind: domain.MessageSystem, Content: "announcement", Phase: domain.PhaseGuess},
		},
	}
	operative := state.Seats[1]
	spymaster := state.Seats[0]

	opSit := buildSituation(state, operative, PurposeDeliberate, nil, 0, nil)
	if opSit.Board[0].Owner != "" || opSit.Board[2].Owner != "" {
		t.Error("Expected unrevealed owners hidden from an operative")
	}
	if opSit.Turn.HintTargets != nil {
		t.Errorf("Expected hint targets hidden from an operative, got %v", opSit.Turn.HintTargets)
	}
	if opSit.Turn.HintWord != "stone" {
		t.Errorf("Expected the hint word itself kept, got %q", opSit.Turn.HintWord)
	}
	if opSit.Board[1].Owner != string(domain.OwnerBlue) {
		t.Errorf("Expected the revealed card's owner visible, got %q", opSit.Board[1].Owner)
	}

	var contents []string
	for _, e := range opSit.Transcript {
		contents = append(contents, e.Content)
	}
	joined := strings.Join(contents, "|")
	if strings.Contains(joined, "their secret") {
		t.Error("Expected the other team's guess-phase chat filtered out")
	}
	for _, want := range []string{"our plan", "trash talk", "announcement"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected %q in the transcript, got %q", want, joined)
		}
	}
	for _, e := range opSit.Transcript {
		if e.Content == "trash talk" && e.Speaker != "Eve" {
			t.Errorf("Expected banter attributed to Eve, got %q", e.Speaker)
		}
		if e.Content == "announcement" && e.Speaker != domain.SystemPlayerID {
			t.Errorf("Expected system messages attributed to the system, got %q", e.Speaker)
		}
	}

	spySit := buildSituation(state, spymaster, PurposeHint, nil, 0, nil)
	if spySit.Board[0].Owner != string(domain.OwnerRed) || spySit.Board[2].Owner != string(domain.OwnerAssassin) {
		t.Error("Expected the spymaster to see every owner")
	}
	if len(spySit.Turn.HintTargets) != 1 {
		t.Errorf("Expected the spymaster to keep their own targets, got %v", spySit.Turn.HintTargets)
	}
}

func TestTranscriptIsBounded(t *testing.T) {
	state := domain.GameState{
		Seats: []domain.Seat{
			{ID: "o1", Name: "Bob", Kind: domain.SeatAgent, Role: domain.RoleOperative, Team: domain.TeamRed},
		},
	}
	for i := 0; i < maxTranscriptEntries+10; i++ {
		state.Messages = append(state.Messages, domain.Message{
			ID:       fmt.Sprintf("m%d", i),
			Team:     domain.TeamRed,
			PlayerID: "o1",
			Kind:     domain.MessageChat,
			Content:  fmt.Sprintf("line %d", i),
			Phase:    domain.PhaseGuess,
		})
	}
	sit := buildSituation(state, state.Seats[0], PurposeDeliberate, nil, 0, nil)
	if len(sit.Transcript) != maxTranscriptEntries {
		t.Fatalf("Expected the transcript capped at %d, got %d", maxTranscriptEntries, len(sit.Transcript))
	}
	if sit.Transcript[len(sit.Transcript)-1].Content != fmt.Sprintf("line %d", maxTranscriptEntries+9) {
		t.Error("Expected the newest messages kept when truncating")
	}
}
