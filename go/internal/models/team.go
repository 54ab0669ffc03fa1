package models

import "time"

// Team represents a competing team on the board
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Logo        string       `json:"logo,omitempty"`
	Seed        int          `json:"seed"`
	Color       string       `json:"color,omitempty"`
	Description string       `json:"description,omitempty"`
	Breakdown   []PointEntry `json:"breakdown"`
}

// PointEntry is one record in a team's point ledger. The ledger is
// append-only: entries are never mutated or reordered once observed
// locally, only appended.
type PointEntry struct {
	Source    string    `json:"source"`
	Points    int       `json:"points"`
	Comment   string    `json:"comment,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TotalPoints sums the ledger
func (t *Team) TotalPoints() int {
	total := 0
	for _, e := range t.Breakdown {
		total += e.Points
	}
	return total
}

// Clone returns a deep copy of the team, including its ledger
func (t *Team) Clone() Team {
	out := *t
	if t.Breakdown != nil {
		out.Breakdown = make([]PointEntry, len(t.Breakdown))
		copy(out.Breakdown, t.Breakdown)
	}
	return out
}

// AddPointsRequest represents the data needed to append a ledger entry
type AddPointsRequest struct {
	Source    string `json:"source"`
	Points    int    `json:"points"`
	Comment   string `json:"comment,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// CreateTeamRequest represents the data needed to create a new team
type CreateTeamRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	Seed        int    `json:"seed"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}
