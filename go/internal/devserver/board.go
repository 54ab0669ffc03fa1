package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamenight/liveboard/go/internal/models"
)

// ErrNotFound is returned for lookups of unknown entities
var ErrNotFound = errors.New("not found")

// Board is the in-memory authoritative state behind the dev server.
// It stands in for the real backend store so clients can run
// end-to-end locally; durability is explicitly out of scope.
type Board struct {
	mu         sync.RWMutex
	teams      []models.Team
	events     []models.GameEvent
	challenges []models.Challenge
	appState   models.AppState
	username   string
}

// NewBoard creates an empty board with default app state
func NewBoard() *Board {
	return &Board{
		appState: models.DefaultAppState(),
	}
}

// Snapshot assembles the full sync payload
func (b *Board) Snapshot() models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := models.Snapshot{
		Teams:      make([]models.Team, 0, len(b.teams)),
		Events:     make([]models.GameEvent, 0, len(b.events)),
		Challenges: make([]models.Challenge, 0, len(b.challenges)),
		Username:   b.username,
		Timestamp:  time.Now(),
	}
	for _, t := range b.teams {
		snap.Teams = append(snap.Teams, t.Clone())
	}
	for _, e := range b.events {
		snap.Events = append(snap.Events, e.Clone())
	}
	snap.Challenges = append(snap.Challenges, b.challenges...)
	state := b.appState
	snap.AppState = &state
	return snap
}

// Teams returns all teams
func (b *Board) Teams() []models.Team {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Team, 0, len(b.teams))
	for _, t := range b.teams {
		out = append(out, t.Clone())
	}
	return out
}

// Breakdown returns one team's ledger
func (b *Board) Breakdown(teamID string) ([]models.PointEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.teams {
		if t.ID == teamID {
			out := make([]models.PointEntry, len(t.Breakdown))
			copy(out, t.Breakdown)
			return out, nil
		}
	}
	return nil, ErrNotFound
}

// CreateTeam adds a team, assigning an id if none was sent
func (b *Board) CreateTeam(req models.CreateTeamRequest) models.Team {
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	team := models.Team{
		ID:          req.ID,
		Name:        req.Name,
		Logo:        req.Logo,
		Seed:        req.Seed,
		Color:       req.Color,
		Description: req.Description,
		Breakdown:   []models.PointEntry{},
	}
	b.teams = append(b.teams, team)
	return team.Clone()
}

// UpdateTeam shallow-merges a patch into a team
func (b *Board) UpdateTeam(teamID string, patch models.TeamPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.teams {
		if b.teams[i].ID == teamID {
			patch.ApplyTo(&b.teams[i])
			return nil
		}
	}
	return ErrNotFound
}

// DeleteTeam removes a team
func (b *Board) DeleteTeam(teamID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.teams {
		if b.teams[i].ID == teamID {
			b.teams = append(b.teams[:i], b.teams[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AddPoints appends a ledger entry. Deliberately not idempotent: the
// ledger models a transaction log, not a settable value.
func (b *Board) AddPoints(teamID string, req models.AddPointsRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.teams {
		if b.teams[i].ID == teamID {
			b.teams[i].Breakdown = append(b.teams[i].Breakdown, models.PointEntry{
				Source:    req.Source,
				Points:    req.Points,
				Comment:   req.Comment,
				UpdatedBy: req.UpdatedBy,
				CreatedAt: time.Now(),
			})
			return nil
		}
	}
	return ErrNotFound
}

// Events returns all events
func (b *Board) Events() []models.GameEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.GameEvent, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Clone())
	}
	return out
}

// CreateEvent adds an event, assigning an id if none was sent
func (b *Board) CreateEvent(req models.CreateEventRequest) models.GameEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	event := models.GameEvent{
		ID:           req.ID,
		Title:        req.Title,
		Game:         req.Game,
		Registration: models.RegistrationOpen,
		Confirmation: models.ConfirmationPending,
		Seeding:      models.SeedingUnseeded,
		Matches:      []models.Match{},
		Bracket:      []models.BracketMatch{},
		Details:      req.Details,
	}
	b.events = append(b.events, event)
	return event.Clone()
}

// UpdateEvent shallow-merges a patch into an event
func (b *Board) UpdateEvent(eventID string, patch models.EventPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID == eventID {
			patch.ApplyTo(&b.events[i])
			return nil
		}
	}
	return ErrNotFound
}

// DeleteEvent removes an event
func (b *Board) DeleteEvent(eventID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID == eventID {
			b.events = append(b.events[:i], b.events[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// UpdateMatch shallow-merges a patch into one match. The dev server
// applies whatever status an admin selects; forward-only enforcement
// lives in the client write path.
func (b *Board) UpdateMatch(eventID, matchID string, patch models.MatchPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID != eventID {
			continue
		}
		for j := range b.events[i].Matches {
			if b.events[i].Matches[j].ID == matchID {
				patch.ApplyTo(&b.events[i].Matches[j])
				return nil
			}
		}
	}
	return ErrNotFound
}

// UpdateBracketMatch shallow-merges a patch into one bracket match
func (b *Board) UpdateBracketMatch(eventID, bracketID string, patch models.BracketPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.events {
		if b.events[i].ID != eventID {
			continue
		}
		for j := range b.events[i].Bracket {
			if b.events[i].Bracket[j].ID == bracketID {
				patch.ApplyTo(&b.events[i].Bracket[j])
				return nil
			}
		}
	}
	return ErrNotFound
}

// Challenges returns all challenges
func (b *Board) Challenges() []models.Challenge {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Challenge, len(b.challenges))
	copy(out, b.challenges)
	return out
}

// CreateChallenge adds a challenge, assigning an id if none was sent
func (b *Board) CreateChallenge(ch models.Challenge) models.Challenge {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	b.challenges = append(b.challenges, ch)
	return ch
}

// DeleteChallenge removes a challenge
func (b *Board) DeleteChallenge(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.challenges {
		if b.challenges[i].ID == id {
			b.challenges = append(b.challenges[:i], b.challenges[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AppState returns the shared app state
func (b *Board) AppState() models.AppState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.appState
}

// MergeAppState field-merges a patch into the shared app state
func (b *Board) MergeAppState(patch models.AppStatePatch) models.AppState {
	b.mu.Lock()
	defer b.mu.Unlock()
	patch.ApplyTo(&b.appState)
	return b.appState
}

// AdoptUsername stores a viewer username if none is held yet,
// first-writer-wins
func (b *Board) AdoptUsername(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.username == "" {
		b.username = name
	}
}
