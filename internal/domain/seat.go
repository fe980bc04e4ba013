// Package domain - seat.go
package domain

// Role is a seat's function on its team. Exactly one spymaster per team.
type Role string

const (
	RoleSpymaster Role = "spymaster"
	RoleOperative Role = "operative"
)

// SeatKind distinguishes human players from language-model agents.
type SeatKind string

const (
	SeatHuman SeatKind = "human"
	SeatAgent SeatKind = "agent"
)

// Seat is one participant slot in a game. Personality, Model and Voice
// are optional flavor for agent seats: Personality colors the prompt,
// Model overrides the provider default, Voice selects the narrator voice.
type Seat struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        SeatKind `json:"kind"`
	Role        Role     `json:"role"`
	Team        Team     `json:"team"`
	Personality string   `json:"personality,omitempty"`
	Model       string   `json:"model,omitempty"`
	Voice       string   `json:"voice,omitempty"`
}

// IsAgent reports whether the seat is driven by the scheduler.
func (s Seat) IsAgent() bool {
	return s.Kind == SeatAgent
}

// IsHuman reports whether the seat belongs to a person.
func (s Seat) IsHuman() bool {
	return s.Kind == SeatHuman
}
