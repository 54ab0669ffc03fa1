package engine

import (
	"encoding/json"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/cache"
	"github.com/gamenight/liveboard/go/internal/models"
	"github.com/gamenight/liveboard/go/internal/store"
)

// Engine reconciles incoming transport events into the local store.
// Snapshots (pull channel) apply by whole-collection replace with a
// field-merged app state; push patches apply by shallow per-entity
// merge. Both paths carry a revision stamp and the store drops stale
// applies, so a snapshot generated before a patch can no longer
// retroactively undo it.
type Engine struct {
	store *store.Store
	cache *cache.Cache
	clock clockwork.Clock
}

// New creates an engine writing into the given store. The cache may be
// nil when startup seeding/persistence is not wanted (tests).
func New(s *store.Store, c *cache.Cache) *Engine {
	return NewWithClock(s, c, clockwork.NewRealClock())
}

// NewWithClock creates an engine with an injected clock, used to stamp
// push patches that arrive without a server revision
func NewWithClock(s *store.Store, c *cache.Cache, clock clockwork.Clock) *Engine {
	return &Engine{store: s, cache: c, clock: clock}
}

// ApplySnapshot applies a full-state snapshot. A nil collection means
// the composite fallback could not fetch that entity type this tick;
// it is skipped rather than wiping local state. Non-nil collections
// replace wholesale.
func (e *Engine) ApplySnapshot(snap *models.Snapshot) {
	rev := snap.Revision()

	if snap.Teams != nil {
		e.store.ReplaceTeams(snap.Teams, rev)
	}
	if snap.Events != nil {
		e.store.ReplaceEvents(snap.Events, rev)
	}
	if snap.Challenges != nil {
		e.store.ReplaceChallenges(snap.Challenges, rev)
	}
	if snap.AppState != nil {
		e.store.MergeAppState(appStateAsPatch(*snap.AppState), rev)
	}
	if snap.Username != "" {
		// Client-owned: adopted only when no local username exists.
		e.store.AdoptUsername(snap.Username)
	}

	if e.cache != nil {
		e.cache.SaveSnapshot(e.store.Teams(), e.store.AppState())
	}

	log.Debug().
		Int("teams", len(snap.Teams)).
		Int("events", len(snap.Events)).
		Int("challenges", len(snap.Challenges)).
		Int64("rev", rev).
		Msg("snapshot applied")
}

// HandlePush routes one push envelope to the matching patch apply
func (e *Engine) HandlePush(envelope models.PushEnvelope) {
	switch envelope.Type {
	case models.PushTeamUpdated:
		var upd models.TeamUpdate
		if err := json.Unmarshal(envelope.Data, &upd); err != nil {
			log.Warn().Err(err).Msg("malformed team_updated payload")
			return
		}
		if !e.store.PatchTeam(upd.ID, upd.TeamPatch, e.stamp(upd.Rev)) {
			log.Debug().Str("team_id", upd.ID).Msg("team patch dropped (unknown or stale)")
		}

	case models.PushEventUpdated:
		var upd models.EventUpdate
		if err := json.Unmarshal(envelope.Data, &upd); err != nil {
			log.Warn().Err(err).Msg("malformed event_updated payload")
			return
		}
		if !e.store.PatchEvent(upd.ID, upd.EventPatch, e.stamp(upd.Rev)) {
			log.Debug().Str("event_id", upd.ID).Msg("event patch dropped (unknown or stale)")
		}

	case models.PushAppStateUpdated:
		var upd models.AppStateUpdate
		if err := json.Unmarshal(envelope.Data, &upd); err != nil {
			log.Warn().Err(err).Msg("malformed app_state_updated payload")
			return
		}
		e.store.MergeAppState(upd.AppStatePatch, e.stamp(upd.Rev))

	case models.PushUsernameUpdated:
		var upd models.UsernameUpdate
		if err := json.Unmarshal(envelope.Data, &upd); err != nil {
			log.Warn().Err(err).Msg("malformed viewer_username_updated payload")
			return
		}
		e.store.AdoptUsername(upd.Username)

	default:
		log.Debug().Str("type", string(envelope.Type)).Msg("ignoring unknown push type")
	}
}

// stamp falls back to the local clock when a push payload carries no
// server revision, so unstamped patches still beat older snapshots
func (e *Engine) stamp(rev int64) int64 {
	if rev > 0 {
		return rev
	}
	return e.clock.Now().UnixMilli()
}

// appStateAsPatch lifts a full app state into a patch touching every
// field, which is how a snapshot's app state field-merges over the
// local copy
func appStateAsPatch(s models.AppState) models.AppStatePatch {
	p := models.AppStatePatch{
		IsTorchLit:     &s.IsTorchLit,
		IsTorchAutoLit: &s.IsTorchAutoLit,
		SelectedTeamID: &s.SelectedTeamID,
		CurrentView:    &s.CurrentView,
	}
	if s.CountdownEnd != nil {
		p.CountdownEnd = s.CountdownEnd
	}
	return p
}
