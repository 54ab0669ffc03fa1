package models

import "time"

// Patches are shallow per-entity merges: a field is overwritten only
// when its pointer is set, everything else is left untouched. ApplyTo
// methods are pure with respect to the patch and mutate only their
// target.

// TeamPatch carries the optional fields of a team update. Breakdown is
// a whole-ledger replace when present; individual entries are never
// patched.
type TeamPatch struct {
	Name        *string       `json:"name,omitempty"`
	Logo        *string       `json:"logo,omitempty"`
	Seed        *int          `json:"seed,omitempty"`
	Color       *string       `json:"color,omitempty"`
	Description *string       `json:"description,omitempty"`
	Breakdown   *[]PointEntry `json:"breakdown,omitempty"`
}

// ApplyTo merges the set fields of the patch into the team
func (p TeamPatch) ApplyTo(t *Team) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Logo != nil {
		t.Logo = *p.Logo
	}
	if p.Seed != nil {
		t.Seed = *p.Seed
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Breakdown != nil {
		t.Breakdown = make([]PointEntry, len(*p.Breakdown))
		copy(t.Breakdown, *p.Breakdown)
	}
}

// MatchPatch carries the optional fields of a match update
type MatchPatch struct {
	ScoreA    *int         `json:"scoreA,omitempty"`
	ScoreB    *int         `json:"scoreB,omitempty"`
	Status    *MatchStatus `json:"status,omitempty"`
	StreamURL *string      `json:"streamUrl,omitempty"`
	WinnerID  *string      `json:"winnerId,omitempty"`
}

// ApplyTo merges the set fields of the patch into the match
func (p MatchPatch) ApplyTo(m *Match) {
	if p.ScoreA != nil {
		m.ScoreA = copyIntPtr(p.ScoreA)
	}
	if p.ScoreB != nil {
		m.ScoreB = copyIntPtr(p.ScoreB)
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.StreamURL != nil {
		m.StreamURL = *p.StreamURL
	}
	if p.WinnerID != nil {
		m.WinnerID = *p.WinnerID
	}
}

// BracketPatch carries the optional fields of a bracket match update
type BracketPatch struct {
	P1          *BracketSlot   `json:"p1,omitempty"`
	P2          *BracketSlot   `json:"p2,omitempty"`
	NextMatchID *string        `json:"nextMatchId,omitempty"`
	Status      *BracketStatus `json:"status,omitempty"`
}

// ApplyTo merges the set fields of the patch into the bracket match
func (p BracketPatch) ApplyTo(b *BracketMatch) {
	if p.P1 != nil {
		slot := *p.P1
		slot.Score = copyIntPtr(p.P1.Score)
		b.P1 = slot
	}
	if p.P2 != nil {
		slot := *p.P2
		slot.Score = copyIntPtr(p.P2.Score)
		b.P2 = slot
	}
	if p.NextMatchID != nil {
		b.NextMatchID = *p.NextMatchID
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}

// EventPatch carries the optional fields of an event update. Matches
// and Bracket are whole-list replaces when present, matching the
// shallow-merge rule: the list is a single named field.
type EventPatch struct {
	Title        *string             `json:"title,omitempty"`
	Game         *string             `json:"game,omitempty"`
	Registration *RegistrationStatus `json:"registration,omitempty"`
	Confirmation *ConfirmationStatus `json:"confirmation,omitempty"`
	Seeding      *SeedingStatus      `json:"seeding,omitempty"`
	Matches      *[]Match            `json:"matches,omitempty"`
	Bracket      *[]BracketMatch     `json:"bracket,omitempty"`
	Details      *EventDetails       `json:"details,omitempty"`
}

// ApplyTo merges the set fields of the patch into the event
func (p EventPatch) ApplyTo(e *GameEvent) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Game != nil {
		e.Game = *p.Game
	}
	if p.Registration != nil {
		e.Registration = *p.Registration
	}
	if p.Confirmation != nil {
		e.Confirmation = *p.Confirmation
	}
	if p.Seeding != nil {
		e.Seeding = *p.Seeding
	}
	if p.Matches != nil {
		e.Matches = make([]Match, len(*p.Matches))
		for i, m := range *p.Matches {
			e.Matches[i] = m.Clone()
		}
	}
	if p.Bracket != nil {
		e.Bracket = make([]BracketMatch, len(*p.Bracket))
		for i, b := range *p.Bracket {
			e.Bracket[i] = b.Clone()
		}
	}
	if p.Details != nil {
		e.Details = *p.Details
	}
}

// AppStatePatch carries the optional fields of an app state update
type AppStatePatch struct {
	CountdownEnd   *time.Time `json:"countdownEnd,omitempty"`
	IsTorchLit     *bool      `json:"isTorchLit,omitempty"`
	IsTorchAutoLit *bool      `json:"isTorchAutoLit,omitempty"`
	SelectedTeamID *string    `json:"selectedTeamId,omitempty"`
	CurrentView    *string    `json:"currentView,omitempty"`
}

// ApplyTo merges the set fields of the patch into the app state
func (p AppStatePatch) ApplyTo(s *AppState) {
	if p.CountdownEnd != nil {
		end := *p.CountdownEnd
		s.CountdownEnd = &end
	}
	if p.IsTorchLit != nil {
		s.IsTorchLit = *p.IsTorchLit
	}
	if p.IsTorchAutoLit != nil {
		s.IsTorchAutoLit = *p.IsTorchAutoLit
	}
	if p.SelectedTeamID != nil {
		s.SelectedTeamID = *p.SelectedTeamID
	}
	if p.CurrentView != nil {
		s.CurrentView = *p.CurrentView
	}
}
