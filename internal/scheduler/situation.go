package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/and1mon/clueless/internal/domain"
)

// maxTranscriptEntries bounds the history handed to the port so a long
// game never overruns a model's context.
const maxTranscriptEntries = 40

// buildSituation assembles the masked view of state for one seat.
// Masking happens here and nowhere else: snapshots elsewhere in the
// codebase keep ownership visible, this is the last stop before a
// model sees the board.
func buildSituation(state domain.GameState, seat domain.Seat, purpose Purpose, rejected []string, failures int, notes []string) Situation {
	turn := state.Turn
	if seat.Role != domain.RoleSpymaster {
		// Hint targets name the spymaster's intended words and would
		// leak ownership.
		turn.HintTargets = nil
	}
	return Situation{
		GameID:  state.ID,
		Seat:    seat,
		Purpose: purpose,
		Turn:    turn,
		Board:   boardViewFor(state, seat),
		Seats:   append([]domain.Seat(nil), state.Seats...),
		Remaining: map[string]int{
			string(domain.TeamRed):  state.RemainingFor(domain.OwnerRed),
			string(domain.TeamBlue): state.RemainingFor(domain.OwnerBlue),
		},
		Pending:       pendingCopy(state, seat.Team),
		Transcript:    transcriptFor(state, seat),
		RejectedHints: append([]string(nil), rejected...),
		TeamFailures:  failures,
		Notes:         notes,
	}
}

// boardViewFor shows ownership only to spymasters and on revealed
// cards. Operatives see words and reveal state, nothing more.
func boardViewFor(state domain.GameState, seat domain.Seat) []CardView {
	views := make([]CardView, len(state.Board))
	for i, card := range state.Board {
		view := CardView{Word: card.Word, Revealed: card.Revealed}
		if seat.Role == domain.RoleSpymaster || card.Revealed {
			view.Owner = string(card.Owner)
		}
		views[i] = view
	}
	return views
}

// transcriptFor filters the log to what the seat may read: its own
// team's messages, banter-phase messages from either team, and system
// announcements. Bounded to the most recent entries.
func transcriptFor(state domain.GameState, seat domain.Seat) []TranscriptEntry {
	var entries []TranscriptEntry
	for _, msg := range state.Messages {
		if msg.PlayerID != domain.SystemPlayerID &&
			msg.Team != seat.Team &&
			msg.Phase != domain.PhaseBanter {
			continue
		}
		entries = append(entries, transcriptEntry(state, msg))
	}
	if len(entries) > maxTranscriptEntries {
		entries = entries[len(entries)-maxTranscriptEntries:]
	}
	return entries
}

func transcriptEntry(state domain.GameState, msg domain.Message) TranscriptEntry {
	entry := TranscriptEntry{
		Team:    string(msg.Team),
		Kind:    string(msg.Kind),
		Content: msg.Content,
	}
	if msg.PlayerID == domain.SystemPlayerID {
		entry.Speaker = domain.SystemPlayerID
		entry.Team = ""
		return entry
	}
	if speaker, ok := state.SeatByID(msg.PlayerID); ok {
		entry.Speaker = speaker.Name
		entry.Role = string(speaker.Role)
	} else {
		entry.Speaker = msg.PlayerID
	}
	return entry
}

func pendingCopy(state domain.GameState, team domain.Team) *domain.Proposal {
	p := state.PendingProposal(team)
	if p == nil {
		return nil
	}
	cp := *p
	cp.Votes = make(map[string]domain.VoteDecision, len(p.Votes))
	for id, d := range p.Votes {
		cp.Votes[id] = d
	}
	return &cp
}

// warningNotes escalates as a team burns through its failure budget
// and reminds agents which words were already proposed this turn.
func warningNotes(ts *teamState) []string {
	var notes []string
	if ts.failures >= 3 {
		notes = append(notes, fmt.Sprintf(
			"Your team has made %d invalid moves this turn. At %d the turn is forfeited.",
			ts.failures, maxTeamFailures))
	}
	if len(ts.proposedWords) > 0 {
		words := make([]string, 0, len(ts.proposedWords))
		for w := range ts.proposedWords {
			words = append(words, w)
		}
		sort.Strings(words)
		notes = append(notes, "Words already proposed this turn: "+strings.Join(words, ", ")+".")
	}
	return notes
}
