// Package domain contains the pure game entities: cards, seats, turns,
// proposals and messages. No locks, no I/O, no imports beyond time.
// All mutation lives in the engine package.
package domain

import "strings"

// Team identifies one of the two competing sides.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Valid reports whether t is one of the two playable teams.
func (t Team) Valid() bool {
	return t == TeamRed || t == TeamBlue
}

// CardOwner is the hidden allegiance of a board card.
type CardOwner string

const (
	OwnerRed      CardOwner = "red"
	OwnerBlue     CardOwner = "blue"
	OwnerNeutral  CardOwner = "neutral"
	OwnerAssassin CardOwner = "assassin"
)

// OwnerForTeam maps a team to its card owner value.
func OwnerForTeam(t Team) CardOwner {
	if t == TeamBlue {
		return OwnerBlue
	}
	return OwnerRed
}

// Team returns the owning team, if the owner is a team at all.
func (o CardOwner) Team() (Team, bool) {
	switch o {
	case OwnerRed:
		return TeamRed, true
	case OwnerBlue:
		return TeamBlue, true
	default:
		return "", false
	}
}

// Board composition. Every game deals exactly BoardSize unique words:
// CardsPerTeam for each side, NeutralCards bystanders and one assassin.
const (
	BoardSize    = 25
	CardsPerTeam = 8
	NeutralCards = 8
	AssassinCard = 1
)

// Card is a single board word. Owner stays fixed for the whole game;
// Revealed only ever flips from false to true.
type Card struct {
	Word     string    `json:"word"`
	Owner    CardOwner `json:"owner"`
	Revealed bool      `json:"revealed"`
}

// Matches reports whether the card carries the given word,
// compared case-insensitively.
func (c Card) Matches(word string) bool {
	return strings.EqualFold(c.Word, word)
}
