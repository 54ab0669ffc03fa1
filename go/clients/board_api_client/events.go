package board_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gamenight/liveboard/go/internal/models"
)

// GetEvents fetches all events via the fallback endpoint
func (c *BoardApiClient) GetEvents(ctx context.Context) ([]models.GameEvent, error) {
	body, err := c.Get(ctx, EventsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	var events []models.GameEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	return events, nil
}

// CreateEvent creates a new event
func (c *BoardApiClient) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.GameEvent, error) {
	body, err := c.Post(ctx, EventsEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	var event models.GameEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// UpdateEvent shallow-merges the given patch into an event
func (c *BoardApiClient) UpdateEvent(ctx context.Context, eventID string, patch models.EventPatch) error {
	if _, err := c.Put(ctx, fmt.Sprintf("%s/%s", EventsEndpoint, eventID), patch); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event
func (c *BoardApiClient) DeleteEvent(ctx context.Context, eventID string) error {
	if _, err := c.Delete(ctx, fmt.Sprintf("%s/%s", EventsEndpoint, eventID)); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// UpdateMatch shallow-merges the given patch into one match of an event
func (c *BoardApiClient) UpdateMatch(ctx context.Context, eventID, matchID string, patch models.MatchPatch) error {
	if _, err := c.Put(ctx, fmt.Sprintf("%s/%s/matches/%s", EventsEndpoint, eventID, matchID), patch); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return nil
}

// UpdateBracketMatch shallow-merges the given patch into one bracket
// match of an event
func (c *BoardApiClient) UpdateBracketMatch(ctx context.Context, eventID, bracketID string, patch models.BracketPatch) error {
	if _, err := c.Put(ctx, fmt.Sprintf("%s/%s/bracket/%s", EventsEndpoint, eventID, bracketID), patch); err != nil {
		return fmt.Errorf("failed to update bracket match: %w", err)
	}
	return nil
}
