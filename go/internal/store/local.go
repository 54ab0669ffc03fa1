package store

import (
	"github.com/gamenight/liveboard/go/internal/models"
)

// Local applies. These are the optimistic mutations used by the
// dispatcher and the cache seeding path. None of them advance revision
// stamps, so the next server-confirmed apply is never shadowed by a
// local write.

// SeedTeams pre-populates the team collection from the persistence
// cache before the first network response
func (s *Store) SeedTeams(teams []models.Team) {
	s.mu.Lock()
	s.teams = make(map[string]models.Team, len(teams))
	s.teamOrder = make([]string, 0, len(teams))
	for _, t := range teams {
		s.teams[t.ID] = t.Clone()
		s.teamOrder = append(s.teamOrder, t.ID)
	}
	s.mu.Unlock()
	s.notify()
}

// SeedAppState pre-populates the app state from the persistence cache
func (s *Store) SeedAppState(state models.AppState) {
	s.mu.Lock()
	s.appState = state
	s.mu.Unlock()
	s.notify()
}

// UpsertTeam inserts or replaces a team optimistically
func (s *Store) UpsertTeam(t models.Team) {
	s.mu.Lock()
	if _, ok := s.teams[t.ID]; !ok {
		s.teamOrder = append(s.teamOrder, t.ID)
	}
	s.teams[t.ID] = t.Clone()
	s.mu.Unlock()
	s.notify()
}

// RemoveTeam deletes a team optimistically
func (s *Store) RemoveTeam(id string) {
	s.mu.Lock()
	if _, ok := s.teams[id]; ok {
		delete(s.teams, id)
		delete(s.revs, kindTeam+id)
		s.teamOrder = removeID(s.teamOrder, id)
	}
	s.mu.Unlock()
	s.notify()
}

// PatchTeamLocal applies an optimistic shallow merge to one team
func (s *Store) PatchTeamLocal(id string, p models.TeamPatch) bool {
	s.mu.Lock()
	t, ok := s.teams[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p.ApplyTo(&t)
	s.teams[id] = t
	s.mu.Unlock()
	s.notify()
	return true
}

// AppendPoints appends one entry to a team's ledger. The ledger is
// append-only; nothing here ever rewrites existing entries.
func (s *Store) AppendPoints(id string, entry models.PointEntry) bool {
	s.mu.Lock()
	t, ok := s.teams[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	t.Breakdown = append(t.Breakdown, entry)
	s.teams[id] = t
	s.mu.Unlock()
	s.notify()
	return true
}

// ForceReplaceBreakdown overwrites a team's ledger with the server's
// authoritative copy. This is the one path that may shrink a ledger,
// used when a points write failed and the local ledger must realign.
func (s *Store) ForceReplaceBreakdown(id string, entries []models.PointEntry) bool {
	s.mu.Lock()
	t, ok := s.teams[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	t.Breakdown = make([]models.PointEntry, len(entries))
	copy(t.Breakdown, entries)
	s.teams[id] = t
	s.mu.Unlock()
	s.notify()
	return true
}

// UpsertEvent inserts or replaces an event optimistically
func (s *Store) UpsertEvent(e models.GameEvent) {
	s.mu.Lock()
	if _, ok := s.events[e.ID]; !ok {
		s.eventOrder = append(s.eventOrder, e.ID)
	}
	s.events[e.ID] = e.Clone()
	s.mu.Unlock()
	s.notify()
}

// RemoveEvent deletes an event optimistically
func (s *Store) RemoveEvent(id string) {
	s.mu.Lock()
	if _, ok := s.events[id]; ok {
		delete(s.events, id)
		delete(s.revs, kindEvent+id)
		s.eventOrder = removeID(s.eventOrder, id)
	}
	s.mu.Unlock()
	s.notify()
}

// PatchEventLocal applies an optimistic shallow merge to one event
func (s *Store) PatchEventLocal(id string, p models.EventPatch) bool {
	s.mu.Lock()
	e, ok := s.events[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p.ApplyTo(&e)
	s.events[id] = e
	s.mu.Unlock()
	s.notify()
	return true
}

// PatchMatchLocal applies an optimistic shallow merge to one match
// inside an event
func (s *Store) PatchMatchLocal(eventID, matchID string, p models.MatchPatch) bool {
	s.mu.Lock()
	e, ok := s.events[eventID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	for i := range e.Matches {
		if e.Matches[i].ID == matchID {
			p.ApplyTo(&e.Matches[i])
			s.events[eventID] = e
			s.mu.Unlock()
			s.notify()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

// PatchBracketLocal applies an optimistic shallow merge to one bracket
// match inside an event
func (s *Store) PatchBracketLocal(eventID, bracketID string, p models.BracketPatch) bool {
	s.mu.Lock()
	e, ok := s.events[eventID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	for i := range e.Bracket {
		if e.Bracket[i].ID == bracketID {
			p.ApplyTo(&e.Bracket[i])
			s.events[eventID] = e
			s.mu.Unlock()
			s.notify()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

// UpsertChallenge inserts or replaces a challenge optimistically
func (s *Store) UpsertChallenge(c models.Challenge) {
	s.mu.Lock()
	if _, ok := s.challenges[c.ID]; !ok {
		s.challengeOrder = append(s.challengeOrder, c.ID)
	}
	s.challenges[c.ID] = c
	s.mu.Unlock()
	s.notify()
}

// RemoveChallenge deletes a challenge optimistically
func (s *Store) RemoveChallenge(id string) {
	s.mu.Lock()
	if _, ok := s.challenges[id]; ok {
		delete(s.challenges, id)
		delete(s.revs, kindChallenge+id)
		s.challengeOrder = removeID(s.challengeOrder, id)
	}
	s.mu.Unlock()
	s.notify()
}

// MergeAppStateLocal field-merges an optimistic app state patch
func (s *Store) MergeAppStateLocal(p models.AppStatePatch) {
	s.mu.Lock()
	p.ApplyTo(&s.appState)
	s.mu.Unlock()
	s.notify()
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
