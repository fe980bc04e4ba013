// Package ai - prompts.go
// Prompt construction and response parsing for agent seats. Every seat
// gets the same JSON contract; identity, rules and task vary by role
// and by what the scheduler currently wants.
package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/scheduler"
)

// responseContract is the JSON format block shared by every seat prompt.
const responseContract = `## RESPONSE FORMAT

Always respond with JSON in this EXACT format:

{
  "message": "what you say out loud to the table",
  "action": {
    "type": "none|hint|propose_guess|propose_end_turn|vote",
    "word": "HINT OR GUESS WORD",
    "count": 2,
    "targets": ["WORDS", "YOU", "MEAN"],
    "proposal_id": "id of the proposal you vote on",
    "decision": "accept|reject"
  }
}

Use exactly one action type and omit the fields it does not need.
Type "none" means you only talk. Keep "message" short, two sentences at most.
`

// BuildSystemPrompt assembles the per-seat system prompt: identity, the
// game rules as seen from the seat's role, the optional personality and
// the response contract.
func BuildSystemPrompt(sit scheduler.Situation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# IDENTITY\n\nYou are %s, playing a word-association party game on the %s team as %s.\n\n",
		sit.Seat.Name, sit.Seat.Team, describeSeatRole(sit.Seat.Role))

	sb.WriteString("## GAME RULES\n\n")
	sb.WriteString("Two teams race to find all of their own words on a shared board of face-down words. ")
	sb.WriteString("Each turn the active team's spymaster gives a one-word hint plus a number, then the operatives guess board words one at a time. ")
	sb.WriteString("Revealing a neutral word or an enemy word ends the turn; revealing the assassin loses the game on the spot. ")
	sb.WriteString("Operatives commit to a guess by majority vote on a proposal.\n\n")

	if sit.Seat.Role == domain.RoleSpymaster {
		sb.WriteString("As spymaster you see who owns every card. Your hint must be a single word that does not appear on the board. ")
		sb.WriteString("The hint is your only channel: never name or describe board words directly.\n\n")
	} else {
		sb.WriteString("As an operative you only learn owners when cards are revealed. Think out loud with your team, propose guesses you believe in and vote on pending proposals. ")
		sb.WriteString("A careless guess can hand the turn, or the whole game, to the enemy.\n\n")
	}

	if sit.Seat.Personality != "" {
		fmt.Fprintf(&sb, "## PERSONALITY\n\nStay in character at all times: %s\n\n", sit.Seat.Personality)
	}

	sb.WriteString(responseContract)

	return sb.String()
}

// BuildSituationPrompt renders the visible game state plus the task the
// scheduler wants done. It becomes the final user turn of the chat.
func BuildSituationPrompt(sit scheduler.Situation) string {
	var sb strings.Builder

	sb.WriteString("## BOARD\n\n")
	for _, c := range sit.Board {
		switch {
		case c.Revealed:
			fmt.Fprintf(&sb, "- %s [revealed: %s]\n", c.Word, c.Owner)
		case c.Owner != "":
			fmt.Fprintf(&sb, "- %s (%s)\n", c.Word, c.Owner)
		default:
			fmt.Fprintf(&sb, "- %s\n", c.Word)
		}
	}
	fmt.Fprintf(&sb, "\nUnrevealed words left: red %d, blue %d.\n",
		sit.Remaining[string(domain.TeamRed)], sit.Remaining[string(domain.TeamBlue)])

	sb.WriteString("\n## TURN\n\n")
	fmt.Fprintf(&sb, "Active team: %s. Phase: %s.\n", sit.Turn.ActiveTeam, sit.Turn.Phase)
	if sit.Turn.HintWord != "" {
		fmt.Fprintf(&sb, "Current hint: %q for %d. Guesses used: %d of %d.\n",
			sit.Turn.HintWord, sit.Turn.HintCount, sit.Turn.GuessesMade, sit.Turn.MaxGuesses)
	}

	if sit.Pending != nil {
		accepts, rejects := sit.Pending.Tally()
		sb.WriteString("\n## PENDING PROPOSAL\n\n")
		if sit.Pending.Kind == domain.ProposalEndTurn {
			fmt.Fprintf(&sb, "%s proposes ending the turn (proposal_id %q). Votes so far: %d accept, %d reject.\n",
				seatNameByID(sit.Seats, sit.Pending.CreatedBy), sit.Pending.ID, accepts, rejects)
		} else {
			fmt.Fprintf(&sb, "%s proposes guessing %q (proposal_id %q). Votes so far: %d accept, %d reject.\n",
				seatNameByID(sit.Seats, sit.Pending.CreatedBy), sit.Pending.Word, sit.Pending.ID, accepts, rejects)
		}
	}

	if len(sit.RejectedHints) > 0 {
		fmt.Fprintf(&sb, "\nHints already rejected this turn (do not repeat them): %s.\n",
			strings.Join(sit.RejectedHints, ", "))
	}

	for _, note := range sit.Notes {
		fmt.Fprintf(&sb, "\nNOTE: %s\n", note)
	}

	sb.WriteString("\n## TASK\n\n")
	sb.WriteString(taskFor(sit))
	sb.WriteString("\n")

	return sb.String()
}

// taskFor phrases what the scheduler is asking the seat to do right now.
func taskFor(sit scheduler.Situation) string {
	switch sit.Purpose {
	case scheduler.PurposeHint:
		return `Give your hint now: action type "hint" with a single word that is not on the board and the count of your team's words it points at. You may list the exact words you mean in "targets".`
	case scheduler.PurposeDeliberate:
		if sit.Pending != nil {
			return `React to the pending proposal: cast your vote (type "vote" with its proposal_id) or argue your case with type "none".`
		}
		return `Deliberate with your team. If you are confident, propose a guess (type "propose_guess") or propose stopping (type "propose_end_turn"); otherwise share your thinking with type "none".`
	case scheduler.PurposeVote:
		return `Cast your vote on the pending proposal now: type "vote" with its proposal_id and your decision.`
	case scheduler.PurposeBanter:
		return `The turn just changed hands. Throw one line of table talk at the other team. Action type "none".`
	case scheduler.PurposeReaction:
		return `A card was just revealed. Give one short in-character reaction. Action type "none".`
	case scheduler.PurposeFarewell:
		return `The game is over. Say your goodbyes in one or two sentences. Action type "none".`
	default:
		return `Say something short and in character. Action type "none".`
	}
}

func describeSeatRole(r domain.Role) string {
	if r == domain.RoleSpymaster {
		return "the spymaster"
	}
	return "an operative"
}

func seatNameByID(seats []domain.Seat, id string) string {
	for _, s := range seats {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// AgentResponse is the structured reply expected from the model.
type AgentResponse struct {
	Message string `json:"message"`
	Action  struct {
		Type       string   `json:"type"`
		Word       string   `json:"word,omitempty"`
		Count      int      `json:"count,omitempty"`
		Targets    []string `json:"targets,omitempty"`
		ProposalID string   `json:"proposal_id,omitempty"`
		Decision   string   `json:"decision,omitempty"`
	} `json:"action"`
}

// ParseAgentResponse extracts the JSON reply from raw model output.
// Models wrap JSON in code fences or prose more often than not, so the
// parser cuts from the first '{' to the last '}' before unmarshalling.
func ParseAgentResponse(raw string) (*AgentResponse, error) {
	trimmed := strings.TrimSpace(raw)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var resp AgentResponse
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// ValidateAgentResponse checks the parsed reply for structural problems
// before it is turned into an action. Game-rule checks stay with the
// engine; this only rejects replies no action could be built from.
func ValidateAgentResponse(resp *AgentResponse) error {
	validActions := map[string]bool{
		"":                 true,
		"none":             true,
		"hint":             true,
		"propose_guess":    true,
		"propose_end_turn": true,
		"vote":             true,
	}
	if !validActions[resp.Action.Type] {
		return fmt.Errorf("invalid action type: %s", resp.Action.Type)
	}

	switch resp.Action.Type {
	case "hint":
		if strings.TrimSpace(resp.Action.Word) == "" {
			return fmt.Errorf("hint action missing word")
		}
		if resp.Action.Count < 1 {
			return fmt.Errorf("hint count must be at least 1, got: %d", resp.Action.Count)
		}
	case "propose_guess":
		if strings.TrimSpace(resp.Action.Word) == "" {
			return fmt.Errorf("propose_guess action missing word")
		}
	case "vote":
		if resp.Action.ProposalID == "" {
			return fmt.Errorf("vote action missing proposal_id")
		}
		if resp.Action.Decision != string(domain.VoteAccept) && resp.Action.Decision != string(domain.VoteReject) {
			return fmt.Errorf("vote decision must be accept or reject, got: %s", resp.Action.Decision)
		}
	}

	return nil
}

// ToAction converts a validated reply into the scheduler's action type.
func ToAction(resp *AgentResponse) scheduler.Action {
	act := scheduler.Action{
		Say:        strings.TrimSpace(resp.Message),
		Kind:       scheduler.ActionKind(resp.Action.Type),
		Word:       strings.TrimSpace(resp.Action.Word),
		Count:      resp.Action.Count,
		Targets:    resp.Action.Targets,
		ProposalID: resp.Action.ProposalID,
		Decision:   domain.VoteDecision(resp.Action.Decision),
	}
	if act.Kind == "" {
		act.Kind = scheduler.ActionNone
	}
	return act
}
