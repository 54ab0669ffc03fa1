package store

import (
	"sync"

	"github.com/gamenight/liveboard/go/internal/models"
)

// Store is the in-memory projection of the board state. It is owned by
// the process, constructed once, and injected into the sync engine and
// the mutation dispatcher; the UI layer only reads from it.
//
// Writes come from two places: server-originated applies (snapshot or
// push patch), which carry a revision stamp and are dropped when stale,
// and local optimistic applies from the dispatcher, which never advance
// revisions so the next server-confirmed apply always lands.
type Store struct {
	mu sync.RWMutex

	teams          map[string]models.Team
	teamOrder      []string
	events         map[string]models.GameEvent
	eventOrder     []string
	challenges     map[string]models.Challenge
	challengeOrder []string
	appState       models.AppState
	profile        models.UserProfile

	// Per-entity revision stamps keyed by kind:id; the app state uses
	// a single stamp.
	revs        map[string]int64
	appStateRev int64

	onChange []func()
}

// New creates an empty store with default app state
func New() *Store {
	return &Store{
		teams:      make(map[string]models.Team),
		events:     make(map[string]models.GameEvent),
		challenges: make(map[string]models.Challenge),
		appState:   models.DefaultAppState(),
		revs:       make(map[string]int64),
	}
}

// OnChange registers a callback invoked after every applied write.
// Callbacks run outside the store lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	callbacks := make([]func(), len(s.onChange))
	copy(callbacks, s.onChange)
	s.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}

const (
	kindTeam      = "team:"
	kindEvent     = "event:"
	kindChallenge = "challenge:"
)

// Teams returns the teams in collection order as deep copies
func (s *Store) Teams() []models.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Team, 0, len(s.teamOrder))
	for _, id := range s.teamOrder {
		t := s.teams[id]
		out = append(out, t.Clone())
	}
	return out
}

// Team returns a deep copy of one team
func (s *Store) Team(id string) (models.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return models.Team{}, false
	}
	return t.Clone(), true
}

// Events returns the events in collection order as deep copies
func (s *Store) Events() []models.GameEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.GameEvent, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		e := s.events[id]
		out = append(out, e.Clone())
	}
	return out
}

// Event returns a deep copy of one event
func (s *Store) Event(id string) (models.GameEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return models.GameEvent{}, false
	}
	return e.Clone(), true
}

// Challenges returns the challenges in collection order
func (s *Store) Challenges() []models.Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Challenge, 0, len(s.challengeOrder))
	for _, id := range s.challengeOrder {
		out = append(out, s.challenges[id])
	}
	return out
}

// AppState returns a copy of the shared app state
func (s *Store) AppState() models.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.appState
	if s.appState.CountdownEnd != nil {
		end := *s.appState.CountdownEnd
		state.CountdownEnd = &end
	}
	return state
}

// Profile returns a copy of the viewer profile
func (s *Store) Profile() models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.profile
	if s.profile.Badges != nil {
		p.Badges = make([]string, len(s.profile.Badges))
		copy(p.Badges, s.profile.Badges)
	}
	return p
}
