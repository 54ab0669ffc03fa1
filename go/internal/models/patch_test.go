package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestTeamPatchApplyTo(t *testing.T) {
	team := Team{
		ID:    "t1",
		Name:  "Alpha",
		Color: "#ff0000",
		Seed:  2,
		Breakdown: []PointEntry{
			{Source: "Quiz", Points: 10},
		},
	}

	patch := TeamPatch{Color: strPtr("#00ff00")}
	patch.ApplyTo(&team)

	assert.Equal(t, "#00ff00", team.Color)
	assert.Equal(t, "Alpha", team.Name, "unset fields must be untouched")
	assert.Equal(t, 2, team.Seed)
	assert.Len(t, team.Breakdown, 1)
}

func TestTeamPatchIdempotent(t *testing.T) {
	team := Team{ID: "t1", Name: "Alpha"}
	patch := TeamPatch{Name: strPtr("Bravo"), Seed: intPtr(1)}

	patch.ApplyTo(&team)
	once := team
	patch.ApplyTo(&team)

	assert.Equal(t, once, team, "applying the same patch twice must equal applying it once")
}

func TestMatchPatchApplyTo(t *testing.T) {
	match := Match{ID: "m1", TeamA: "t1", TeamB: "t2", Status: MatchScheduled}

	patch := MatchPatch{
		ScoreA: intPtr(2),
		ScoreB: intPtr(1),
		Status: statusPtr(MatchLive),
	}
	patch.ApplyTo(&match)

	require.NotNil(t, match.ScoreA)
	assert.Equal(t, 2, *match.ScoreA)
	assert.Equal(t, MatchLive, match.Status)
	assert.Equal(t, "t1", match.TeamA)
}

func statusPtr(s MatchStatus) *MatchStatus { return &s }

func TestEventPatchReplacesMatchListWholesale(t *testing.T) {
	event := GameEvent{
		ID:    "e1",
		Title: "Finals",
		Matches: []Match{
			{ID: "m1", Status: MatchLive},
			{ID: "m2", Status: MatchScheduled},
		},
	}

	patch := EventPatch{Matches: &[]Match{{ID: "m3", Status: MatchScheduled}}}
	patch.ApplyTo(&event)

	require.Len(t, event.Matches, 1)
	assert.Equal(t, "m3", event.Matches[0].ID)
	assert.Equal(t, "Finals", event.Title)
}

func TestAppStatePatchApplyTo(t *testing.T) {
	state := DefaultAppState()
	end := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	patch := AppStatePatch{
		CountdownEnd: &end,
		IsTorchLit:   boolPtr(true),
	}
	patch.ApplyTo(&state)

	require.NotNil(t, state.CountdownEnd)
	assert.True(t, state.CountdownEnd.Equal(end))
	assert.True(t, state.IsTorchLit)
	assert.Equal(t, "dashboard", state.CurrentView, "unset fields must be untouched")
}

func TestMatchStatusForwardOnly(t *testing.T) {
	assert.True(t, MatchScheduled.CanTransitionTo(MatchLive))
	assert.True(t, MatchLive.CanTransitionTo(MatchCompleted))
	assert.True(t, MatchLive.CanTransitionTo(MatchLive))
	assert.False(t, MatchCompleted.CanTransitionTo(MatchScheduled))
	assert.False(t, MatchLive.CanTransitionTo(MatchScheduled))
	assert.False(t, MatchScheduled.CanTransitionTo("nonsense"))
}

func TestPushEnvelopeRoundTrip(t *testing.T) {
	envelope, err := NewPushEnvelope(PushTeamUpdated, TeamUpdate{
		ID:        "t3",
		TeamPatch: TeamPatch{Color: strPtr("#111111")},
	})
	require.NoError(t, err)
	assert.Equal(t, PushTeamUpdated, envelope.Type)

	var upd TeamUpdate
	require.NoError(t, json.Unmarshal(envelope.Data, &upd))
	assert.Equal(t, "t3", upd.ID)
	require.NotNil(t, upd.Color)
	assert.Equal(t, "#111111", *upd.Color)
	assert.Nil(t, upd.Name)
}

func TestTeamCloneIsDeep(t *testing.T) {
	team := Team{ID: "t1", Breakdown: []PointEntry{{Source: "Quiz", Points: 5}}}
	clone := team.Clone()
	clone.Breakdown[0].Points = 99

	assert.Equal(t, 5, team.Breakdown[0].Points)
}
