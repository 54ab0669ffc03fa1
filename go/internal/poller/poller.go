package poller

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/models"
)

// Fetcher defines what the poller needs from the board API client
type Fetcher interface {
	GetSync(ctx context.Context) (*models.Snapshot, error)
	GetTeams(ctx context.Context) ([]models.Team, error)
	GetTeamBreakdown(ctx context.Context, teamID string) ([]models.PointEntry, error)
	GetEvents(ctx context.Context) ([]models.GameEvent, error)
	GetChallenges(ctx context.Context) ([]models.Challenge, error)
	GetAppState(ctx context.Context) (*models.AppState, error)
}

// Applier consumes completed snapshots, in landing order
type Applier func(*models.Snapshot)

// DefaultInterval matches the dashboard's refresh cadence
const DefaultInterval = 3 * time.Second

// Poller is the pull channel: a fixed-interval loop where every tick
// issues an independent snapshot fetch. Ticks are not cancelled and
// not de-duplicated; when two overlap, whichever response lands last
// wins. A tick that cannot reach the single-call sync endpoint falls
// back to assembling a composite snapshot from the per-entity
// endpoints, with one breakdown sub-request per team.
type Poller struct {
	fetcher  Fetcher
	apply    Applier
	interval time.Duration
	clock    clockwork.Clock

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// New creates a poller with the default interval and real clock
func New(fetcher Fetcher, apply Applier) *Poller {
	return NewWithClock(fetcher, apply, DefaultInterval, clockwork.NewRealClock())
}

// NewWithClock creates a poller with an injected interval and clock
func NewWithClock(fetcher Fetcher, apply Applier, interval time.Duration, clock clockwork.Clock) *Poller {
	return &Poller{
		fetcher:  fetcher,
		apply:    apply,
		interval: interval,
		clock:    clock,
		stopCh:   make(chan struct{}),
	}
}

// Start begins ticking. The first fetch fires immediately so the UI
// does not wait a full interval for real data.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		go p.tick(ctx)

		ticker := p.clock.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				go p.tick(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop clears the interval timer. In-flight ticks are not aborted, but
// their responses are dropped by the stopped guard instead of being
// applied to a store that is no longer listening.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopCh)
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// tick performs one independent snapshot fetch
func (p *Poller) tick(ctx context.Context) {
	snap, err := p.fetchSnapshot(ctx)
	if err != nil {
		// Network errors are never surfaced; the next tick retries.
		log.Debug().Err(err).Msg("poll tick failed")
		return
	}
	if p.isStopped() {
		return
	}
	p.apply(snap)
}

// fetchSnapshot tries the single-call sync endpoint first and falls
// back to per-entity assembly
func (p *Poller) fetchSnapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := p.fetcher.GetSync(ctx)
	if err == nil {
		return snap, nil
	}
	log.Debug().Err(err).Msg("sync endpoint unreachable, assembling composite snapshot")
	return p.fetchComposite(ctx)
}

// fetchComposite assembles a snapshot from the fallback endpoints.
// Teams are mandatory; events, challenges and app state are each
// best-effort within the tick.
func (p *Poller) fetchComposite(ctx context.Context) (*models.Snapshot, error) {
	teams, err := p.fetcher.GetTeams(ctx)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		breakdown, err := p.fetcher.GetTeamBreakdown(ctx, teams[i].ID)
		if err != nil {
			log.Debug().Err(err).Str("team_id", teams[i].ID).Msg("breakdown fetch failed")
			continue
		}
		teams[i].Breakdown = breakdown
	}

	snap := &models.Snapshot{
		Teams:     teams,
		Timestamp: p.clock.Now(),
	}

	if events, err := p.fetcher.GetEvents(ctx); err == nil {
		snap.Events = events
	} else {
		log.Debug().Err(err).Msg("events fetch failed")
	}
	if challenges, err := p.fetcher.GetChallenges(ctx); err == nil {
		snap.Challenges = challenges
	} else {
		log.Debug().Err(err).Msg("challenges fetch failed")
	}
	if state, err := p.fetcher.GetAppState(ctx); err == nil {
		snap.AppState = state
	} else {
		log.Debug().Err(err).Msg("app state fetch failed")
	}

	return snap, nil
}
