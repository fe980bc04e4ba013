package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/and1mon/clueless/internal/domain"
)

// propose runs a guess proposal for the team's lone operative. With a
// single operative there is nobody to convince, so the proposal
// resolves on creation.
func proposeGuess(t *testing.T, g *Game, team domain.Team, word string) {
	t.Helper()
	op := seatByName(t, g, string(team)+"-op1")
	if _, err := g.CreateProposal(op.ID, domain.ProposalGuess, word); err != nil {
		t.Fatalf("CreateProposal(%q) failed: %v", word, err)
	}
}

func TestHintValidation(t *testing.T) {
	g := newTestGame(t, 1, 1)
	setTurn(g, domain.TeamRed, domain.PhaseHint)
	spy := seatByName(t, g, "red-spy")
	op := seatByName(t, g, "red-op1")
	blueSpy := seatByName(t, g, "blue-spy")
	boardWord := unrevealedOf(g, domain.OwnerNeutral)[0]

	cases := []struct {
		name   string
		seatID string
		word   string
		count  int
	}{
		{"multi-word hint", spy.ID, "two words", 2},
		{"empty hint", spy.ID, "   ", 1},
		{"zero count", spy.ID, "PYRAMID", 0},
		{"board word", spy.ID, boardWord, 2},
		{"board word lowercased", spy.ID, strings.ToLower(boardWord), 2},
		{"operative hinting", op.ID, "PYRAMID", 2},
		{"inactive team", blueSpy.ID, "PYRAMID", 2},
		{"unknown seat", "ghost", "PYRAMID", 2},
	}
	for _, tc := range cases {
		if err := g.SubmitHint(tc.seatID, tc.word, tc.count, nil); err == nil {
			t.Errorf("Expected %s to be rejected", tc.name)
		}
	}

	// Nothing above should have moved the phase.
	if snap := g.Snapshot(); snap.Turn.Phase != domain.PhaseHint {
		t.Fatalf("Rejected hints must not change state, phase is %s", snap.Turn.Phase)
	}

	if err := g.SubmitHint(spy.ID, "PYRAMID", 2, []string{"hunch"}); err != nil {
		t.Fatalf("Valid hint rejected: %v", err)
	}
	snap := g.Snapshot()
	if snap.Turn.Phase != domain.PhaseGuess {
		t.Errorf("Expected guess phase after a hint, got %s", snap.Turn.Phase)
	}
	if snap.Turn.MaxGuesses != 3 || snap.Turn.GuessesMade != 0 {
		t.Errorf("Expected 0/%d guesses for count 2, got %d/%d", 3, snap.Turn.GuessesMade, snap.Turn.MaxGuesses)
	}
	if snap.Turn.HintWord != "PYRAMID" || snap.Turn.HintCount != 2 {
		t.Errorf("Hint not recorded: %+v", snap.Turn)
	}

	// Guess phase rejects a second hint.
	if err := g.SubmitHint(spy.ID, "JUPITER", 1, nil); err == nil {
		t.Error("Expected a hint during the guess phase to be rejected")
	}
}

func TestOwnCardKeepsTurn(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 2)

	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerRed)[0])

	snap := g.Snapshot()
	if snap.Turn.Phase != domain.PhaseGuess {
		t.Errorf("Own card should keep the guess phase, got %s", snap.Turn.Phase)
	}
	if snap.Turn.GuessesMade != 1 {
		t.Errorf("Expected 1 guess made, got %d", snap.Turn.GuessesMade)
	}
	if snap.RevealedCount() != 1 {
		t.Errorf("Expected exactly one revealed card, got %d", snap.RevealedCount())
	}
	last := snap.Messages[len(snap.Messages)-1]
	if last.Kind != domain.MessageSystem || !strings.Contains(last.Content, "red card") {
		t.Errorf("Expected a reveal announcement, got %q", last.Content)
	}
}

func TestGuessAllowanceIsCountPlusOne(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 1)

	reds := unrevealedOf(g, domain.OwnerRed)
	proposeGuess(t, g, domain.TeamRed, reds[0])
	if snap := g.Snapshot(); snap.Turn.Phase != domain.PhaseGuess {
		t.Fatalf("First guess should not end the turn, phase %s", snap.Turn.Phase)
	}

	// Second correct guess exhausts count+1 and ends the turn.
	proposeGuess(t, g, domain.TeamRed, reds[1])
	snap := g.Snapshot()
	if snap.Turn.Phase != domain.PhaseBanter {
		t.Errorf("Expected banter after %d guesses, got %s", 2, snap.Turn.Phase)
	}
	if snap.Turn.ActiveTeam != domain.TeamRed {
		t.Errorf("ActiveTeam must not change entering banter, got %s", snap.Turn.ActiveTeam)
	}
	if snap.Turn.PreviousTeam != domain.TeamRed {
		t.Errorf("PreviousTeam should record the outgoing team, got %s", snap.Turn.PreviousTeam)
	}
}

func TestWrongOwnerEndsTurn(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 3)

	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerNeutral)[0])

	snap := g.Snapshot()
	if snap.Turn.Phase != domain.PhaseBanter {
		t.Errorf("A neutral reveal should end the turn, phase %s", snap.Turn.Phase)
	}
	if snap.Ended() {
		t.Error("A neutral reveal must not decide the game")
	}
	if snap.Turn.GuessesMade != 0 {
		t.Errorf("Wrong-owner reveals do not consume the allowance, got %d", snap.Turn.GuessesMade)
	}
}

func TestAssassinLosesImmediately(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 2)

	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerAssassin)[0])

	winner, reason, decided := g.Winner()
	if !decided || winner != domain.TeamBlue {
		t.Fatalf("Expected blue to win off the assassin, got %q decided=%v", winner, decided)
	}
	if !strings.Contains(reason, "assassin") {
		t.Errorf("Expected the reason to mention the assassin, got %q", reason)
	}
}

func TestOwnSweepWins(t *testing.T) {
	g := newTestGame(t, 1, 1)
	revealAllBut(g, domain.OwnerRed, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 1)

	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerRed)[0])

	winner, reason, decided := g.Winner()
	if !decided || winner != domain.TeamRed {
		t.Fatalf("Expected red to win by sweep, got %q decided=%v", winner, decided)
	}
	if !strings.Contains(reason, "found all their words") {
		t.Errorf("Unexpected sweep reason %q", reason)
	}
}

func TestEnemySweepWinsForThem(t *testing.T) {
	g := newTestGame(t, 1, 1)
	revealAllBut(g, domain.OwnerBlue, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 1)

	// Red reveals the last blue word: blue wins on the spot.
	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerBlue)[0])

	winner, _, decided := g.Winner()
	if !decided || winner != domain.TeamBlue {
		t.Fatalf("Expected blue to win off red's reveal, got %q decided=%v", winner, decided)
	}
	if snap := g.Snapshot(); snap.Turn.Phase == domain.PhaseBanter {
		t.Error("A game-deciding reveal should not enter banter")
	}
}

func TestAssassinBeatsEverySweep(t *testing.T) {
	g := newTestGame(t, 1, 1)
	revealAllBut(g, domain.OwnerBlue, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 1)

	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerAssassin)[0])

	winner, reason, decided := g.Winner()
	if !decided || winner != domain.TeamBlue {
		t.Fatalf("Expected blue to win, got %q", winner)
	}
	if !strings.Contains(reason, "assassin") {
		t.Errorf("Assassin must take priority in the reason, got %q", reason)
	}
}

func TestEndBanterHandsOver(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 1)
	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerNeutral)[0])

	if err := g.EndBanter(); err != nil {
		t.Fatalf("EndBanter failed: %v", err)
	}
	snap := g.Snapshot()
	if snap.Turn.ActiveTeam != domain.TeamBlue || snap.Turn.Phase != domain.PhaseHint {
		t.Errorf("Expected blue/hint after banter, got %s/%s", snap.Turn.ActiveTeam, snap.Turn.Phase)
	}
	if snap.Turn.HintWord != "" || snap.Turn.MaxGuesses != 0 {
		t.Errorf("Hint state should reset on handover: %+v", snap.Turn)
	}
	last := snap.Messages[len(snap.Messages)-1]
	if !strings.Contains(last.Content, "blue team's turn") {
		t.Errorf("Expected a turn announcement, got %q", last.Content)
	}

	// No banter to end now.
	if err := g.EndBanter(); err == nil {
		t.Error("Expected EndBanter outside banter to be rejected")
	}
}

func TestForfeitEndsTurnWithoutWinner(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 2)

	if err := g.Forfeit(domain.TeamBlue, "anything"); err == nil {
		t.Error("Expected a forfeit by the inactive team to be rejected")
	}
	if err := g.Forfeit(domain.TeamRed, "no usable hint after 5 attempts"); err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}

	snap := g.Snapshot()
	if snap.Ended() {
		t.Fatal("Forfeiture must never decide a winner")
	}
	if snap.Turn.Phase != domain.PhaseBanter {
		t.Errorf("Expected banter after a forfeit, got %s", snap.Turn.Phase)
	}
	if snap.Turn.ActiveTeam != domain.TeamRed {
		t.Errorf("ActiveTeam must stay put in banter, got %s", snap.Turn.ActiveTeam)
	}
	last := snap.Messages[len(snap.Messages)-1]
	if !strings.Contains(last.Content, "forfeits") || !strings.Contains(last.Content, "5 attempts") {
		t.Errorf("Expected a forfeit announcement with the reason, got %q", last.Content)
	}

	// The turn is already over.
	if err := g.Forfeit(domain.TeamRed, "again"); err == nil {
		t.Error("Expected a second forfeit to be rejected")
	}
}

func TestEndedGameRejectsPlay(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 1)
	proposeGuess(t, g, domain.TeamRed, unrevealedOf(g, domain.OwnerAssassin)[0])

	if _, _, decided := g.Winner(); !decided {
		t.Fatal("Setup: game should be over")
	}

	spy := seatByName(t, g, "blue-spy")
	op := seatByName(t, g, "blue-op1")

	if err := g.SubmitHint(spy.ID, "PYRAMID", 1, nil); !errors.Is(err, ErrGameEnded) {
		t.Errorf("Expected ErrGameEnded for hints, got %v", err)
	}
	if _, err := g.CreateProposal(op.ID, domain.ProposalEndTurn, ""); !errors.Is(err, ErrGameEnded) {
		t.Errorf("Expected ErrGameEnded for proposals, got %v", err)
	}
	if err := g.VoteOnProposal(op.ID, "any", domain.VoteAccept); !errors.Is(err, ErrGameEnded) {
		t.Errorf("Expected ErrGameEnded for votes, got %v", err)
	}
	if err := g.EndBanter(); !errors.Is(err, ErrGameEnded) {
		t.Errorf("Expected ErrGameEnded for EndBanter, got %v", err)
	}

	// Chat stays open: the farewell flows through it.
	if _, err := g.PostChat(op.ID, "good game"); err != nil {
		t.Errorf("Chat after the game should be allowed, got %v", err)
	}
}

func TestRevealsAreMonotonic(t *testing.T) {
	g := newTestGame(t, 1, 1)
	giveHint(t, g, domain.TeamRed, "PYRAMID", 3)

	reds := unrevealedOf(g, domain.OwnerRed)
	proposeGuess(t, g, domain.TeamRed, reds[0])

	// Re-proposing a revealed word is rejected outright.
	op := seatByName(t, g, "red-op1")
	if _, err := g.CreateProposal(op.ID, domain.ProposalGuess, reds[0]); err == nil {
		t.Error("Expected a revealed word to be rejected")
	}
	if got := g.Snapshot().RevealedCount(); got != 1 {
		t.Errorf("Expected the reveal count to stay at 1, got %d", got)
	}
}
