package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/cache"
	"github.com/gamenight/liveboard/go/internal/models"
	"github.com/gamenight/liveboard/go/internal/store"
)

// ErrValidation marks a mutation rejected before any optimistic write
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition is returned for a backward match or bracket
// status change
var ErrInvalidTransition = fmt.Errorf("%w: status may only move forward", ErrValidation)

// API defines what the dispatcher needs from the board API client
type API interface {
	CreateTeam(ctx context.Context, req models.CreateTeamRequest) (*models.Team, error)
	UpdateTeam(ctx context.Context, teamID string, patch models.TeamPatch) error
	DeleteTeam(ctx context.Context, teamID string) error
	AddPoints(ctx context.Context, teamID string, req models.AddPointsRequest) error
	GetTeamBreakdown(ctx context.Context, teamID string) ([]models.PointEntry, error)
	CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.GameEvent, error)
	UpdateEvent(ctx context.Context, eventID string, patch models.EventPatch) error
	DeleteEvent(ctx context.Context, eventID string) error
	UpdateMatch(ctx context.Context, eventID, matchID string, patch models.MatchPatch) error
	UpdateBracketMatch(ctx context.Context, eventID, bracketID string, patch models.BracketPatch) error
	CreateChallenge(ctx context.Context, ch models.Challenge) (*models.Challenge, error)
	DeleteChallenge(ctx context.Context, id string) error
	UpdateAppState(ctx context.Context, patch models.AppStatePatch) error
	SetCountdown(ctx context.Context, patch models.AppStatePatch) error
	LightTorch(ctx context.Context, lit bool) error
}

// Notifier is the outbound push surface, fire-and-forget
type Notifier interface {
	Send(envelope models.PushEnvelope)
}

// Dispatcher is the write path. Every mutation applies to the local
// store first, then issues the remote write. On failure the optimistic
// value stays in place for ordinary field edits; ledger mutations
// instead force a breakdown re-fetch, trading a brief visible
// correction for no silent drift. Nothing retries automatically.
type Dispatcher struct {
	store    *store.Store
	api      API
	notifier Notifier
	cache    *cache.Cache
	clock    clockwork.Clock
}

// New creates a dispatcher. The notifier and cache may be nil.
func New(s *store.Store, api API, notifier Notifier, c *cache.Cache) *Dispatcher {
	return NewWithClock(s, api, notifier, c, clockwork.NewRealClock())
}

// NewWithClock creates a dispatcher with an injected clock
func NewWithClock(s *store.Store, api API, notifier Notifier, c *cache.Cache, clock clockwork.Clock) *Dispatcher {
	return &Dispatcher{
		store:    s,
		api:      api,
		notifier: notifier,
		cache:    c,
		clock:    clock,
	}
}

// notify pushes a patch to other clients so they converge faster than
// their next poll tick. Best-effort.
func (d *Dispatcher) notify(t models.PushType, data any) {
	if d.notifier == nil {
		return
	}
	envelope, err := models.NewPushEnvelope(t, data)
	if err != nil {
		log.Warn().Err(err).Str("type", string(t)).Msg("failed to build push notification")
		return
	}
	d.notifier.Send(envelope)
}

// CreateTeam optimistically inserts a team and creates it remotely
func (d *Dispatcher) CreateTeam(ctx context.Context, req models.CreateTeamRequest) (string, error) {
	if req.Name == "" {
		return "", fmt.Errorf("%w: team name is required", ErrValidation)
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	d.store.UpsertTeam(models.Team{
		ID:          req.ID,
		Name:        req.Name,
		Logo:        req.Logo,
		Seed:        req.Seed,
		Color:       req.Color,
		Description: req.Description,
		Breakdown:   []models.PointEntry{},
	})

	if _, err := d.api.CreateTeam(ctx, req); err != nil {
		log.Error().Err(err).Str("team_id", req.ID).Msg("remote team create failed")
		return req.ID, err
	}
	return req.ID, nil
}

// UpdateTeam optimistically merges a patch and writes it remotely
func (d *Dispatcher) UpdateTeam(ctx context.Context, teamID string, patch models.TeamPatch) error {
	if !d.store.PatchTeamLocal(teamID, patch) {
		return fmt.Errorf("%w: unknown team %s", ErrValidation, teamID)
	}

	if err := d.api.UpdateTeam(ctx, teamID, patch); err != nil {
		// Optimistic value stays in place; the next consistent
		// snapshot realigns it.
		log.Error().Err(err).Str("team_id", teamID).Msg("remote team update failed")
		return err
	}

	d.notify(models.PushTeamUpdated, models.TeamUpdate{ID: teamID, TeamPatch: patch})
	return nil
}

// DeleteTeam optimistically removes a team and deletes it remotely
func (d *Dispatcher) DeleteTeam(ctx context.Context, teamID string) error {
	d.store.RemoveTeam(teamID)
	if err := d.api.DeleteTeam(ctx, teamID); err != nil {
		log.Error().Err(err).Str("team_id", teamID).Msg("remote team delete failed")
		return err
	}
	return nil
}

// AddPoints appends a ledger entry optimistically and issues the
// remote append. On failure the team's ledger is force-refetched: the
// ledger is audit-sensitive and must match the server's running total,
// so a visible correction beats silent permanent drift.
func (d *Dispatcher) AddPoints(ctx context.Context, teamID string, req models.AddPointsRequest) error {
	if req.Source == "" {
		return fmt.Errorf("%w: point source is required", ErrValidation)
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = d.store.Profile().Username
	}

	entry := models.PointEntry{
		Source:    req.Source,
		Points:    req.Points,
		Comment:   req.Comment,
		UpdatedBy: req.UpdatedBy,
		CreatedAt: d.clock.Now(),
	}
	if !d.store.AppendPoints(teamID, entry) {
		return fmt.Errorf("%w: unknown team %s", ErrValidation, teamID)
	}

	if err := d.api.AddPoints(ctx, teamID, req); err != nil {
		log.Error().Err(err).Str("team_id", teamID).Int("points", req.Points).
			Msg("remote add-points failed, forcing ledger re-fetch")
		d.realignBreakdown(ctx, teamID)
		return err
	}

	if team, ok := d.store.Team(teamID); ok {
		breakdown := team.Breakdown
		d.notify(models.PushTeamUpdated, models.TeamUpdate{
			ID:        teamID,
			TeamPatch: models.TeamPatch{Breakdown: &breakdown},
		})
	}
	return nil
}

// realignBreakdown replaces the local ledger with the server's copy
func (d *Dispatcher) realignBreakdown(ctx context.Context, teamID string) {
	entries, err := d.api.GetTeamBreakdown(ctx, teamID)
	if err != nil {
		// Still unreachable; the next poll tick will realign.
		log.Warn().Err(err).Str("team_id", teamID).Msg("ledger re-fetch failed")
		return
	}
	d.store.ForceReplaceBreakdown(teamID, entries)
}

// CreateEvent optimistically inserts an event and creates it remotely
func (d *Dispatcher) CreateEvent(ctx context.Context, req models.CreateEventRequest) (string, error) {
	if req.Title == "" {
		return "", fmt.Errorf("%w: event title is required", ErrValidation)
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	d.store.UpsertEvent(models.GameEvent{
		ID:           req.ID,
		Title:        req.Title,
		Game:         req.Game,
		Registration: models.RegistrationOpen,
		Confirmation: models.ConfirmationPending,
		Seeding:      models.SeedingUnseeded,
		Matches:      []models.Match{},
		Bracket:      []models.BracketMatch{},
		Details:      req.Details,
	})

	if _, err := d.api.CreateEvent(ctx, req); err != nil {
		log.Error().Err(err).Str("event_id", req.ID).Msg("remote event create failed")
		return req.ID, err
	}
	return req.ID, nil
}

// UpdateEvent optimistically merges a patch and writes it remotely
func (d *Dispatcher) UpdateEvent(ctx context.Context, eventID string, patch models.EventPatch) error {
	if !d.store.PatchEventLocal(eventID, patch) {
		return fmt.Errorf("%w: unknown event %s", ErrValidation, eventID)
	}

	if err := d.api.UpdateEvent(ctx, eventID, patch); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("remote event update failed")
		return err
	}

	d.notify(models.PushEventUpdated, models.EventUpdate{ID: eventID, EventPatch: patch})
	return nil
}

// DeleteEvent optimistically removes an event and deletes it remotely
func (d *Dispatcher) DeleteEvent(ctx context.Context, eventID string) error {
	d.store.RemoveEvent(eventID)
	if err := d.api.DeleteEvent(ctx, eventID); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("remote event delete failed")
		return err
	}
	return nil
}

// UpdateMatch merges a patch into one match. A status change is
// validated forward-only before any optimistic write; a backward
// transition aborts with ErrInvalidTransition.
func (d *Dispatcher) UpdateMatch(ctx context.Context, eventID, matchID string, patch models.MatchPatch) error {
	if patch.Status != nil {
		event, ok := d.store.Event(eventID)
		if !ok {
			return fmt.Errorf("%w: unknown event %s", ErrValidation, eventID)
		}
		current, ok := findMatch(event.Matches, matchID)
		if !ok {
			return fmt.Errorf("%w: unknown match %s", ErrValidation, matchID)
		}
		if !current.Status.CanTransitionTo(*patch.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, *patch.Status)
		}
	}

	if !d.store.PatchMatchLocal(eventID, matchID, patch) {
		return fmt.Errorf("%w: unknown match %s in event %s", ErrValidation, matchID, eventID)
	}

	if err := d.api.UpdateMatch(ctx, eventID, matchID, patch); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("match_id", matchID).
			Msg("remote match update failed")
		return err
	}

	d.notifyEventMatches(eventID)
	return nil
}

// UpdateBracketMatch merges a patch into one bracket match, with the
// same forward-only status guard as UpdateMatch
func (d *Dispatcher) UpdateBracketMatch(ctx context.Context, eventID, bracketID string, patch models.BracketPatch) error {
	if patch.Status != nil {
		event, ok := d.store.Event(eventID)
		if !ok {
			return fmt.Errorf("%w: unknown event %s", ErrValidation, eventID)
		}
		current, ok := findBracket(event.Bracket, bracketID)
		if !ok {
			return fmt.Errorf("%w: unknown bracket match %s", ErrValidation, bracketID)
		}
		if !current.Status.CanTransitionTo(*patch.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, *patch.Status)
		}
	}

	if !d.store.PatchBracketLocal(eventID, bracketID, patch) {
		return fmt.Errorf("%w: unknown bracket match %s in event %s", ErrValidation, bracketID, eventID)
	}

	if err := d.api.UpdateBracketMatch(ctx, eventID, bracketID, patch); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("bracket_id", bracketID).
			Msg("remote bracket update failed")
		return err
	}

	d.notifyEventBracket(eventID)
	return nil
}

// notifyEventMatches pushes the event's full match list as a patch
func (d *Dispatcher) notifyEventMatches(eventID string) {
	event, ok := d.store.Event(eventID)
	if !ok {
		return
	}
	matches := event.Matches
	d.notify(models.PushEventUpdated, models.EventUpdate{
		ID:         eventID,
		EventPatch: models.EventPatch{Matches: &matches},
	})
}

// notifyEventBracket pushes the event's full bracket as a patch
func (d *Dispatcher) notifyEventBracket(eventID string) {
	event, ok := d.store.Event(eventID)
	if !ok {
		return
	}
	bracket := event.Bracket
	d.notify(models.PushEventUpdated, models.EventUpdate{
		ID:         eventID,
		EventPatch: models.EventPatch{Bracket: &bracket},
	})
}

// CreateChallenge optimistically inserts a challenge and creates it
// remotely
func (d *Dispatcher) CreateChallenge(ctx context.Context, ch models.Challenge) (string, error) {
	if ch.Title == "" {
		return "", fmt.Errorf("%w: challenge title is required", ErrValidation)
	}
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}

	d.store.UpsertChallenge(ch)
	if _, err := d.api.CreateChallenge(ctx, ch); err != nil {
		log.Error().Err(err).Str("challenge_id", ch.ID).Msg("remote challenge create failed")
		return ch.ID, err
	}
	return ch.ID, nil
}

// DeleteChallenge optimistically removes a challenge and deletes it
// remotely
func (d *Dispatcher) DeleteChallenge(ctx context.Context, id string) error {
	d.store.RemoveChallenge(id)
	if err := d.api.DeleteChallenge(ctx, id); err != nil {
		log.Error().Err(err).Str("challenge_id", id).Msg("remote challenge delete failed")
		return err
	}
	return nil
}

// UpdateAppState optimistically merges a patch into the shared app
// state and writes it remotely
func (d *Dispatcher) UpdateAppState(ctx context.Context, patch models.AppStatePatch) error {
	d.store.MergeAppStateLocal(patch)

	if err := d.api.UpdateAppState(ctx, patch); err != nil {
		log.Error().Err(err).Msg("remote app state update failed")
		return err
	}

	d.notify(models.PushAppStateUpdated, models.AppStateUpdate{AppStatePatch: patch})
	return nil
}

// SetCountdown sets the global countdown target
func (d *Dispatcher) SetCountdown(ctx context.Context, patch models.AppStatePatch) error {
	d.store.MergeAppStateLocal(patch)

	if err := d.api.SetCountdown(ctx, patch); err != nil {
		log.Error().Err(err).Msg("remote countdown update failed")
		return err
	}

	d.notify(models.PushAppStateUpdated, models.AppStateUpdate{AppStatePatch: patch})
	return nil
}

// LightTorch flips the global torch flag
func (d *Dispatcher) LightTorch(ctx context.Context, lit bool) error {
	patch := models.AppStatePatch{IsTorchLit: &lit}
	d.store.MergeAppStateLocal(patch)

	if err := d.api.LightTorch(ctx, lit); err != nil {
		log.Error().Err(err).Msg("remote torch update failed")
		return err
	}

	d.notify(models.PushAppStateUpdated, models.AppStateUpdate{AppStatePatch: patch})
	return nil
}

// SetUsername sets the client-owned viewer username, persists it, and
// announces it so the server can adopt it if it has none
func (d *Dispatcher) SetUsername(name string) error {
	if name == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	d.store.SetUsername(name)
	if d.cache != nil {
		d.cache.SaveUsername(name)
	}
	d.notify(models.PushUsernameUpdated, models.UsernameUpdate{Username: name})
	return nil
}

func findMatch(matches []models.Match, id string) (models.Match, bool) {
	for _, m := range matches {
		if m.ID == id {
			return m, true
		}
	}
	return models.Match{}, false
}

func findBracket(bracket []models.BracketMatch, id string) (models.BracketMatch, bool) {
	for _, b := range bracket {
		if b.ID == id {
			return b, true
		}
	}
	return models.BracketMatch{}, false
}
