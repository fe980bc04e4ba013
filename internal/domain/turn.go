// Package domain - turn.go
package domain

// Phase is the stage the active team's turn is in.
type Phase string

const (
	// PhaseHint: waiting for the active team's spymaster.
	PhaseHint Phase = "hint"
	// PhaseGuess: operatives deliberate, propose and vote.
	PhaseGuess Phase = "guess"
	// PhaseBanter: the turn is over, teams trade table talk before
	// control passes to the other side.
	PhaseBanter Phase = "banter"
)

// TurnState tracks whose turn it is and how far into it they are.
//
// During banter ActiveTeam still names the team whose turn just ended;
// PreviousTeam records the same value when banter is entered so the
// scheduler can tell outgoing from incoming without guessing.
type TurnState struct {
	ActiveTeam   Team     `json:"active_team"`
	Phase        Phase    `json:"phase"`
	HintWord     string   `json:"hint_word,omitempty"`
	HintCount    int      `json:"hint_count,omitempty"`
	HintTargets  []string `json:"hint_targets,omitempty"`
	GuessesMade  int      `json:"guesses_made"`
	MaxGuesses   int      `json:"max_guesses"`
	PreviousTeam Team     `json:"previous_team,omitempty"`
}
