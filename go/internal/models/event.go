package models

// RegistrationStatus tracks whether teams may still sign up for an event
type RegistrationStatus string

const (
	RegistrationOpen   RegistrationStatus = "open"
	RegistrationClosed RegistrationStatus = "closed"
)

// ConfirmationStatus tracks whether the event lineup has been confirmed
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
)

// SeedingStatus tracks whether bracket seeding has been finalized
type SeedingStatus string

const (
	SeedingUnseeded SeedingStatus = "unseeded"
	SeedingSeeded   SeedingStatus = "seeded"
)

// MatchStatus is the lifecycle state of a regular match
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

// CanTransitionTo reports whether moving to next is a forward transition.
// scheduled -> live -> completed; staying in place is allowed.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	order := map[MatchStatus]int{
		MatchScheduled: 0,
		MatchLive:      1,
		MatchCompleted: 2,
	}
	from, ok := order[s]
	if !ok {
		return false
	}
	to, ok := order[next]
	if !ok {
		return false
	}
	return to >= from
}

// BracketStatus is the lifecycle state of a bracket match
type BracketStatus string

const (
	BracketScheduled BracketStatus = "scheduled"
	BracketLive      BracketStatus = "live"
	BracketFinished  BracketStatus = "finished"
)

// CanTransitionTo reports whether moving to next is a forward transition
func (s BracketStatus) CanTransitionTo(next BracketStatus) bool {
	order := map[BracketStatus]int{
		BracketScheduled: 0,
		BracketLive:      1,
		BracketFinished:  2,
	}
	from, ok := order[s]
	if !ok {
		return false
	}
	to, ok := order[next]
	if !ok {
		return false
	}
	return to >= from
}

// Match is a head-to-head game between two teams
type Match struct {
	ID        string      `json:"id"`
	TeamA     string      `json:"teamA"`
	TeamB     string      `json:"teamB"`
	ScoreA    *int        `json:"scoreA"`
	ScoreB    *int        `json:"scoreB"`
	Status    MatchStatus `json:"status"`
	StreamURL string      `json:"streamUrl,omitempty"`
	WinnerID  string      `json:"winnerId,omitempty"`
}

// BracketSlot is one participant slot in a bracket match
type BracketSlot struct {
	ID       string `json:"id"`
	Score    *int   `json:"score"`
	IsWinner bool   `json:"isWinner"`
}

// BracketMatch is a single-elimination bracket node
type BracketMatch struct {
	ID          string        `json:"id"`
	Round       int           `json:"round"`
	P1          BracketSlot   `json:"p1"`
	P2          BracketSlot   `json:"p2"`
	NextMatchID string        `json:"nextMatchId,omitempty"`
	Status      BracketStatus `json:"status"`
}

// EventDetails is the denormalized display sub-object for an event.
// It is kept aligned with the event's top-level fields by the client
// write path, not by the server.
type EventDetails struct {
	PrizePool string `json:"prizePool,omitempty"`
	Format    string `json:"format,omitempty"`
	Rules     string `json:"rules,omitempty"`
	Schedule  string `json:"schedule,omitempty"`
}

// GameEvent is a tournament or showmatch on the board
type GameEvent struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Game         string             `json:"game"`
	Registration RegistrationStatus `json:"registration"`
	Confirmation ConfirmationStatus `json:"confirmation"`
	Seeding      SeedingStatus      `json:"seeding"`
	Matches      []Match            `json:"matches"`
	Bracket      []BracketMatch     `json:"bracket"`
	Details      EventDetails       `json:"details"`
}

// Clone returns a deep copy of the event
func (e *GameEvent) Clone() GameEvent {
	out := *e
	if e.Matches != nil {
		out.Matches = make([]Match, len(e.Matches))
		for i, m := range e.Matches {
			out.Matches[i] = m.Clone()
		}
	}
	if e.Bracket != nil {
		out.Bracket = make([]BracketMatch, len(e.Bracket))
		for i, b := range e.Bracket {
			out.Bracket[i] = b.Clone()
		}
	}
	return out
}

// Clone returns a copy of the match with its own score pointers
func (m Match) Clone() Match {
	out := m
	out.ScoreA = copyIntPtr(m.ScoreA)
	out.ScoreB = copyIntPtr(m.ScoreB)
	return out
}

// Clone returns a copy of the bracket match with its own score pointers
func (b BracketMatch) Clone() BracketMatch {
	out := b
	out.P1.Score = copyIntPtr(b.P1.Score)
	out.P2.Score = copyIntPtr(b.P2.Score)
	return out
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CreateEventRequest represents the data needed to create a new event
type CreateEventRequest struct {
	ID      string       `json:"id,omitempty"`
	Title   string       `json:"title"`
	Game    string       `json:"game"`
	Details EventDetails `json:"details"`
}
