package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamenight/liveboard/go/internal/models"
	"github.com/gamenight/liveboard/go/internal/store"
)

func strPtr(s string) *string { return &s }

func testSnapshot(ts time.Time) *models.Snapshot {
	state := models.DefaultAppState()
	return &models.Snapshot{
		Teams: []models.Team{
			{ID: "t1", Name: "Alpha", Breakdown: []models.PointEntry{{Source: "Quiz", Points: 10}}},
			{ID: "t2", Name: "Bravo", Breakdown: []models.PointEntry{}},
			{ID: "t3", Name: "Charlie", Color: "#abcdef", Breakdown: []models.PointEntry{{Source: "Bonus", Points: 5}, {Source: "Quiz", Points: -2}}},
			{ID: "t4", Name: "Delta", Breakdown: []models.PointEntry{}},
		},
		Events: []models.GameEvent{
			{ID: "e1", Title: "Finals", Matches: []models.Match{{ID: "m1", Status: models.MatchScheduled}}},
		},
		Challenges: []models.Challenge{{ID: "c1", Title: "Trivia", Points: 25}},
		AppState:   &state,
		Timestamp:  ts,
	}
}

func pushEnvelope(t *testing.T, pt models.PushType, data any) models.PushEnvelope {
	t.Helper()
	envelope, err := models.NewPushEnvelope(pt, data)
	require.NoError(t, err)
	return envelope
}

// First snapshot into an empty client: every team lands with its full
// ledger.
func TestFirstSnapshotPopulatesStore(t *testing.T) {
	s := store.New()
	e := New(s, nil)

	snap := testSnapshot(time.Unix(1000, 0))
	e.ApplySnapshot(snap)

	teams := s.Teams()
	require.Len(t, teams, 4)
	for i, team := range teams {
		assert.Len(t, team.Breakdown, len(snap.Teams[i].Breakdown))
	}
	assert.Len(t, s.Events(), 1)
	assert.Len(t, s.Challenges(), 1)
}

func TestSnapshotIdempotent(t *testing.T) {
	s := store.New()
	e := New(s, nil)
	snap := testSnapshot(time.Unix(1000, 0))

	e.ApplySnapshot(snap)
	once := s.Teams()
	e.ApplySnapshot(snap)
	twice := s.Teams()

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("replaying the same snapshot changed state:\n%s", diff)
	}
}

// A patch lands, then a snapshot generated before the patch arrives
// late. Revision gating rejects the snapshot's stale value for that
// entity instead of retroactively undoing the patch.
func TestLateSnapshotLosesToNewerPatch(t *testing.T) {
	s := store.New()
	e := New(s, nil)

	earlier := time.Unix(2000, 0)
	e.ApplySnapshot(testSnapshot(time.Unix(1000, 0)))

	e.HandlePush(pushEnvelope(t, models.PushTeamUpdated, models.TeamUpdate{
		ID:        "t3",
		Rev:       earlier.Add(time.Second).UnixMilli(),
		TeamPatch: models.TeamPatch{Color: strPtr("#111111")},
	}))

	// Snapshot generated before the patch, arriving 10ms of wall time
	// later from an overlapping poll tick.
	e.ApplySnapshot(testSnapshot(earlier))

	team, ok := s.Team("t3")
	require.True(t, ok)
	assert.Equal(t, "#111111", team.Color)
}

// Once patches and snapshots stop arriving, state equals the latest
// snapshot merged with the patches stamped after it, no matter the
// arrival order, and does not change when the tail of the sequence is
// replayed.
func TestEventualConvergence(t *testing.T) {
	patch := func() models.PushEnvelope {
		e, _ := models.NewPushEnvelope(models.PushTeamUpdated, models.TeamUpdate{
			ID:        "t1",
			Rev:       time.Unix(3000, 0).UnixMilli(),
			TeamPatch: models.TeamPatch{Name: strPtr("Alpha Prime")},
		})
		return e
	}()
	snapOld := testSnapshot(time.Unix(1000, 0))
	snapNew := testSnapshot(time.Unix(2000, 0))

	orders := [][]func(*Engine){
		{func(e *Engine) { e.ApplySnapshot(snapOld) }, func(e *Engine) { e.HandlePush(patch) }, func(e *Engine) { e.ApplySnapshot(snapNew) }},
		{func(e *Engine) { e.ApplySnapshot(snapNew) }, func(e *Engine) { e.ApplySnapshot(snapOld) }, func(e *Engine) { e.HandlePush(patch) }},
		{func(e *Engine) { e.HandlePush(patch) }, func(e *Engine) { e.ApplySnapshot(snapOld) }, func(e *Engine) { e.ApplySnapshot(snapNew) }},
	}

	var converged []models.Team
	for i, order := range orders {
		s := store.New()
		e := New(s, nil)
		// The patch targets t1, which must exist before a patch can
		// apply; seed every order with the old snapshot first.
		e.ApplySnapshot(snapOld)
		for _, step := range order {
			step(e)
		}
		// Quiet period: replaying the tail must not oscillate.
		e.ApplySnapshot(snapNew)
		e.HandlePush(patch)

		teams := s.Teams()
		team, _ := s.Team("t1")
		assert.Equal(t, "Alpha Prime", team.Name, "order %d", i)
		if converged == nil {
			converged = teams
		} else if diff := cmp.Diff(converged, teams); diff != "" {
			t.Errorf("order %d converged differently:\n%s", i, diff)
		}
	}
}

func TestUsernameAdoptedExactlyOnce(t *testing.T) {
	s := store.New()
	e := New(s, nil)

	snap := testSnapshot(time.Unix(1000, 0))
	snap.Username = "server-assigned"
	e.ApplySnapshot(snap)
	assert.Equal(t, "server-assigned", s.Profile().Username)

	snap2 := testSnapshot(time.Unix(2000, 0))
	snap2.Username = "different"
	e.ApplySnapshot(snap2)
	assert.Equal(t, "server-assigned", s.Profile().Username,
		"an existing local username must never be overwritten by a snapshot")
}

func TestLocalUsernameBeatsSnapshot(t *testing.T) {
	s := store.New()
	s.SetUsername("mine")
	e := New(s, nil)

	snap := testSnapshot(time.Unix(1000, 0))
	snap.Username = "server-assigned"
	e.ApplySnapshot(snap)

	assert.Equal(t, "mine", s.Profile().Username)
}

// A composite snapshot that could not fetch events this tick carries a
// nil events collection; local events must survive.
func TestPartialCompositeSnapshotSkipsNilCollections(t *testing.T) {
	s := store.New()
	e := New(s, nil)
	e.ApplySnapshot(testSnapshot(time.Unix(1000, 0)))
	require.Len(t, s.Events(), 1)

	partial := &models.Snapshot{
		Teams:     testSnapshot(time.Unix(2000, 0)).Teams,
		Timestamp: time.Unix(2000, 0),
	}
	e.ApplySnapshot(partial)

	assert.Len(t, s.Events(), 1, "nil collections must not wipe local state")
	assert.Len(t, s.Challenges(), 1)
}

// A composite snapshot assembled while the breakdown endpoint was down
// carries teams with nil ledgers; applying it must not empty the
// ledgers held locally.
func TestCompositeSnapshotWithoutLedgersKeepsThem(t *testing.T) {
	s := store.New()
	e := New(s, nil)
	e.ApplySnapshot(testSnapshot(time.Unix(1000, 0)))

	composite := &models.Snapshot{
		Teams: []models.Team{
			{ID: "t1", Name: "Alpha"},
			{ID: "t3", Name: "Charlie"},
		},
		Timestamp: time.Unix(2000, 0),
	}
	e.ApplySnapshot(composite)

	team, ok := s.Team("t3")
	require.True(t, ok)
	assert.Len(t, team.Breakdown, 2, "ledgers only shrink via an explicit forced re-fetch")
	assert.Equal(t, 3, team.TotalPoints())
}

func TestHandlePushEventUpdate(t *testing.T) {
	s := store.New()
	e := New(s, nil)
	e.ApplySnapshot(testSnapshot(time.Unix(1000, 0)))

	live := models.MatchLive
	e.HandlePush(pushEnvelope(t, models.PushEventUpdated, models.EventUpdate{
		ID:  "e1",
		Rev: time.Unix(2000, 0).UnixMilli(),
		EventPatch: models.EventPatch{
			Matches: &[]models.Match{{ID: "m1", Status: live}},
		},
	}))

	event, ok := s.Event("e1")
	require.True(t, ok)
	require.Len(t, event.Matches, 1)
	assert.Equal(t, models.MatchLive, event.Matches[0].Status)
	assert.Equal(t, "Finals", event.Title, "unspecified fields stay untouched")
}

func TestHandlePushAppState(t *testing.T) {
	s := store.New()
	e := New(s, nil)

	lit := true
	e.HandlePush(pushEnvelope(t, models.PushAppStateUpdated, models.AppStateUpdate{
		Rev:           time.Unix(2000, 0).UnixMilli(),
		AppStatePatch: models.AppStatePatch{IsTorchLit: &lit},
	}))

	assert.True(t, s.AppState().IsTorchLit)
}

func TestHandlePushUnknownTypeIgnored(t *testing.T) {
	s := store.New()
	e := New(s, nil)
	e.ApplySnapshot(testSnapshot(time.Unix(1000, 0)))
	before := s.Teams()

	e.HandlePush(models.PushEnvelope{Type: "mystery_event", Data: json.RawMessage(`{"id":"t1"}`)})

	if diff := cmp.Diff(before, s.Teams()); diff != "" {
		t.Errorf("unknown push type mutated state:\n%s", diff)
	}
}

func TestHandlePushMalformedPayloadIgnored(t *testing.T) {
	s := store.New()
	e := New(s, nil)
	e.ApplySnapshot(testSnapshot(time.Unix(1000, 0)))

	e.HandlePush(models.PushEnvelope{Type: models.PushTeamUpdated, Data: json.RawMessage(`{broken`)})

	team, _ := s.Team("t1")
	assert.Equal(t, "Alpha", team.Name)
}

// Unstamped patches are stamped from the local clock so they still
// beat snapshots generated earlier.
func TestUnstampedPatchUsesClock(t *testing.T) {
	s := store.New()
	clock := clockwork.NewFakeClockAt(time.Unix(5000, 0))
	e := NewWithClock(s, nil, clock)

	e.ApplySnapshot(testSnapshot(time.Unix(1000, 0)))
	e.HandlePush(pushEnvelope(t, models.PushTeamUpdated, models.TeamUpdate{
		ID:        "t3",
		TeamPatch: models.TeamPatch{Color: strPtr("#111111")},
	}))
	e.ApplySnapshot(testSnapshot(time.Unix(4000, 0)))

	team, _ := s.Team("t3")
	assert.Equal(t, "#111111", team.Color)
}
