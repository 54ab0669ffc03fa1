package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamenight/liveboard/go/internal/models"
)

var errDown = errors.New("service unavailable")

// fakeFetcher implements Fetcher with overridable function fields. A
// nil field means that endpoint is unreachable.
type fakeFetcher struct {
	sync       func(ctx context.Context) (*models.Snapshot, error)
	teams      func(ctx context.Context) ([]models.Team, error)
	breakdown  func(ctx context.Context, teamID string) ([]models.PointEntry, error)
	events     func(ctx context.Context) ([]models.GameEvent, error)
	challenges func(ctx context.Context) ([]models.Challenge, error)
	appState   func(ctx context.Context) (*models.AppState, error)
}

func (f *fakeFetcher) GetSync(ctx context.Context) (*models.Snapshot, error) {
	if f.sync == nil {
		return nil, errDown
	}
	return f.sync(ctx)
}

func (f *fakeFetcher) GetTeams(ctx context.Context) ([]models.Team, error) {
	if f.teams == nil {
		return nil, errDown
	}
	return f.teams(ctx)
}

func (f *fakeFetcher) GetTeamBreakdown(ctx context.Context, teamID string) ([]models.PointEntry, error) {
	if f.breakdown == nil {
		return nil, errDown
	}
	return f.breakdown(ctx, teamID)
}

func (f *fakeFetcher) GetEvents(ctx context.Context) ([]models.GameEvent, error) {
	if f.events == nil {
		return nil, errDown
	}
	return f.events(ctx)
}

func (f *fakeFetcher) GetChallenges(ctx context.Context) ([]models.Challenge, error) {
	if f.challenges == nil {
		return nil, errDown
	}
	return f.challenges(ctx)
}

func (f *fakeFetcher) GetAppState(ctx context.Context) (*models.AppState, error) {
	if f.appState == nil {
		return nil, errDown
	}
	return f.appState(ctx)
}

func syncedFetcher(ts time.Time) *fakeFetcher {
	return &fakeFetcher{
		sync: func(ctx context.Context) (*models.Snapshot, error) {
			return &models.Snapshot{
				Teams:     []models.Team{{ID: "t1", Name: "Alpha"}},
				Timestamp: ts,
			}, nil
		},
	}
}

func waitSnapshot(t *testing.T, applied <-chan *models.Snapshot) *models.Snapshot {
	t.Helper()
	select {
	case snap := <-applied:
		return snap
	case <-time.After(3 * time.Second):
		t.Fatal("no snapshot applied")
		return nil
	}
}

func TestFirstTickFiresImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	applied := make(chan *models.Snapshot, 8)
	p := NewWithClock(syncedFetcher(time.Unix(1000, 0)), func(s *models.Snapshot) {
		applied <- s
	}, DefaultInterval, clock)

	p.Start(context.Background())
	defer p.Stop()

	// No clock advance needed for the first fetch.
	snap := waitSnapshot(t, applied)
	require.Len(t, snap.Teams, 1)
	assert.Equal(t, "Alpha", snap.Teams[0].Name)
}

func TestTicksAtInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	applied := make(chan *models.Snapshot, 8)
	p := NewWithClock(syncedFetcher(time.Unix(1000, 0)), func(s *models.Snapshot) {
		applied <- s
	}, DefaultInterval, clock)

	p.Start(context.Background())
	defer p.Stop()

	waitSnapshot(t, applied)
	clock.BlockUntil(1)
	clock.Advance(DefaultInterval)
	waitSnapshot(t, applied)
	clock.Advance(DefaultInterval)
	waitSnapshot(t, applied)
}

func TestFetchFailureIsSilent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	applied := make(chan *models.Snapshot, 8)
	p := NewWithClock(&fakeFetcher{}, func(s *models.Snapshot) {
		applied <- s
	}, DefaultInterval, clock)

	p.Start(context.Background())
	defer p.Stop()

	select {
	case <-applied:
		t.Fatal("a failed tick must not produce a snapshot")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCompositeFallbackAssemblesSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(9000, 0))
	f := &fakeFetcher{
		teams: func(ctx context.Context) ([]models.Team, error) {
			return []models.Team{{ID: "t1", Name: "Alpha"}, {ID: "t2", Name: "Bravo"}}, nil
		},
		breakdown: func(ctx context.Context, teamID string) ([]models.PointEntry, error) {
			if teamID == "t2" {
				return nil, errDown
			}
			return []models.PointEntry{{Source: "Quiz", Points: 10}}, nil
		},
		challenges: func(ctx context.Context) ([]models.Challenge, error) {
			return []models.Challenge{{ID: "c1", Title: "Trivia"}}, nil
		},
		appState: func(ctx context.Context) (*models.AppState, error) {
			state := models.DefaultAppState()
			return &state, nil
		},
	}
	p := NewWithClock(f, nil, DefaultInterval, clock)

	snap, err := p.fetchSnapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Teams, 2)
	assert.Len(t, snap.Teams[0].Breakdown, 1)
	assert.Nil(t, snap.Teams[1].Breakdown, "failed breakdown sub-fetch leaves the team without a ledger this tick")
	assert.Nil(t, snap.Events, "unreachable events endpoint yields a nil collection, not an empty one")
	assert.Len(t, snap.Challenges, 1)
	require.NotNil(t, snap.AppState)
	assert.True(t, snap.Timestamp.Equal(time.Unix(9000, 0)), "composite snapshots are stamped from the local clock")
}

func TestCompositeRequiresTeams(t *testing.T) {
	p := NewWithClock(&fakeFetcher{}, nil, DefaultInterval, clockwork.NewFakeClock())

	_, err := p.fetchSnapshot(context.Background())
	require.Error(t, err)
}

func TestSyncPreferredOverComposite(t *testing.T) {
	teamsCalled := false
	f := syncedFetcher(time.Unix(1000, 0))
	f.teams = func(ctx context.Context) ([]models.Team, error) {
		teamsCalled = true
		return nil, errDown
	}
	p := NewWithClock(f, nil, DefaultInterval, clockwork.NewFakeClock())

	_, err := p.fetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, teamsCalled, "fallback endpoints must not be hit when sync succeeds")
}

// A response that lands after Stop must be dropped, not applied.
func TestStopDropsLateResponse(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		sync: func(ctx context.Context) (*models.Snapshot, error) {
			<-release
			return &models.Snapshot{Timestamp: time.Unix(1000, 0)}, nil
		},
	}
	applied := make(chan *models.Snapshot, 8)
	p := NewWithClock(f, func(s *models.Snapshot) {
		applied <- s
	}, DefaultInterval, clockwork.NewFakeClock())

	done := make(chan struct{})
	go func() {
		p.tick(context.Background())
		close(done)
	}()

	p.Stop()
	close(release)
	<-done

	select {
	case <-applied:
		t.Fatal("a response landing after Stop must be dropped")
	default:
	}
}

func TestStopIsIdempotent(t *testing.T) {
	p := New(&fakeFetcher{}, nil)
	p.Stop()
	p.Stop()
}
