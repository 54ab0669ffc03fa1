package store

import (
	"github.com/gamenight/liveboard/go/internal/models"
)

// Server-originated applies. Every method in this file takes a revision
// stamp; an apply whose stamp is not newer than the held stamp for that
// entity is dropped. Whole-collection replaces still gate per entity:
// an incoming element with a stale stamp keeps the local value, but
// elements absent from the incoming collection are removed regardless,
// since a snapshot supersedes the collection as a whole.

// ReplaceTeams applies a whole-collection team replace at the given
// revision and reports whether anything was applied.
func (s *Store) ReplaceTeams(teams []models.Team, rev int64) bool {
	s.mu.Lock()
	next := make(map[string]models.Team, len(teams))
	order := make([]string, 0, len(teams))
	for _, t := range teams {
		incoming := t.Clone()
		local, exists := s.teams[t.ID]
		if exists && s.revs[kindTeam+t.ID] >= rev {
			incoming = local
		} else {
			// A nil incoming ledger means the composite fallback could
			// not fetch the breakdown this tick; the held ledger is
			// carried forward so it never shrinks outside a forced
			// re-fetch.
			if incoming.Breakdown == nil && exists && local.Breakdown != nil {
				incoming.Breakdown = make([]models.PointEntry, len(local.Breakdown))
				copy(incoming.Breakdown, local.Breakdown)
			}
			s.revs[kindTeam+t.ID] = rev
		}
		next[t.ID] = incoming
		order = append(order, t.ID)
	}
	// Drop stamps for teams that no longer exist
	for id := range s.teams {
		if _, ok := next[id]; !ok {
			delete(s.revs, kindTeam+id)
		}
	}
	s.teams = next
	s.teamOrder = order
	s.mu.Unlock()
	s.notify()
	return true
}

// ReplaceEvents applies a whole-collection event replace
func (s *Store) ReplaceEvents(events []models.GameEvent, rev int64) bool {
	s.mu.Lock()
	next := make(map[string]models.GameEvent, len(events))
	order := make([]string, 0, len(events))
	for _, e := range events {
		incoming := e.Clone()
		if local, ok := s.events[e.ID]; ok && s.revs[kindEvent+e.ID] >= rev {
			incoming = local
		} else {
			s.revs[kindEvent+e.ID] = rev
		}
		next[e.ID] = incoming
		order = append(order, e.ID)
	}
	for id := range s.events {
		if _, ok := next[id]; !ok {
			delete(s.revs, kindEvent+id)
		}
	}
	s.events = next
	s.eventOrder = order
	s.mu.Unlock()
	s.notify()
	return true
}

// ReplaceChallenges applies a whole-collection challenge replace
func (s *Store) ReplaceChallenges(challenges []models.Challenge, rev int64) bool {
	s.mu.Lock()
	next := make(map[string]models.Challenge, len(challenges))
	order := make([]string, 0, len(challenges))
	for _, c := range challenges {
		incoming := c
		if local, ok := s.challenges[c.ID]; ok && s.revs[kindChallenge+c.ID] >= rev {
			incoming = local
		} else {
			s.revs[kindChallenge+c.ID] = rev
		}
		next[c.ID] = incoming
		order = append(order, c.ID)
	}
	for id := range s.challenges {
		if _, ok := next[id]; !ok {
			delete(s.revs, kindChallenge+id)
		}
	}
	s.challenges = next
	s.challengeOrder = order
	s.mu.Unlock()
	s.notify()
	return true
}

// MergeAppState field-merges a stamped app state patch; stale stamps
// are dropped
func (s *Store) MergeAppState(p models.AppStatePatch, rev int64) bool {
	s.mu.Lock()
	if rev <= s.appStateRev {
		s.mu.Unlock()
		return false
	}
	s.appStateRev = rev
	p.ApplyTo(&s.appState)
	s.mu.Unlock()
	s.notify()
	return true
}

// PatchTeam applies a stamped shallow merge to one team. Returns false
// when the team is unknown or the stamp is stale.
func (s *Store) PatchTeam(id string, p models.TeamPatch, rev int64) bool {
	s.mu.Lock()
	t, ok := s.teams[id]
	if !ok || rev <= s.revs[kindTeam+id] {
		s.mu.Unlock()
		return false
	}
	p.ApplyTo(&t)
	s.teams[id] = t
	s.revs[kindTeam+id] = rev
	s.mu.Unlock()
	s.notify()
	return true
}

// PatchEvent applies a stamped shallow merge to one event
func (s *Store) PatchEvent(id string, p models.EventPatch, rev int64) bool {
	s.mu.Lock()
	e, ok := s.events[id]
	if !ok || rev <= s.revs[kindEvent+id] {
		s.mu.Unlock()
		return false
	}
	p.ApplyTo(&e)
	s.events[id] = e
	s.revs[kindEvent+id] = rev
	s.mu.Unlock()
	s.notify()
	return true
}

// AdoptUsername sets the viewer username only when none is held
// locally; the local value always wins otherwise. Reports adoption.
func (s *Store) AdoptUsername(name string) bool {
	s.mu.Lock()
	if s.profile.Username != "" || name == "" {
		s.mu.Unlock()
		return false
	}
	s.profile.Username = name
	s.mu.Unlock()
	s.notify()
	return true
}

// SetUsername unconditionally sets the client-owned username
func (s *Store) SetUsername(name string) {
	s.mu.Lock()
	s.profile.Username = name
	s.mu.Unlock()
	s.notify()
}

// SetAdmin flips the shared admin flag for this client
func (s *Store) SetAdmin(admin bool) {
	s.mu.Lock()
	s.profile.IsAdmin = admin
	s.mu.Unlock()
	s.notify()
}
