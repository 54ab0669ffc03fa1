package board_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gamenight/liveboard/go/internal/models"
)

// GetSync fetches the preferred single-call full snapshot
func (c *BoardApiClient) GetSync(ctx context.Context) (*models.Snapshot, error) {
	body, err := c.Get(ctx, SyncEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// GetAppState fetches the shared app state via the fallback endpoint
func (c *BoardApiClient) GetAppState(ctx context.Context) (*models.AppState, error) {
	body, err := c.Get(ctx, AppStateEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get app state: %w", err)
	}

	var state models.AppState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal app state: %w", err)
	}
	return &state, nil
}

// UpdateAppState field-merges the given patch into the shared app state
func (c *BoardApiClient) UpdateAppState(ctx context.Context, patch models.AppStatePatch) error {
	if _, err := c.Put(ctx, AppStateEndpoint, patch); err != nil {
		return fmt.Errorf("failed to update app state: %w", err)
	}
	return nil
}

// SetCountdown sets or clears the global countdown target
func (c *BoardApiClient) SetCountdown(ctx context.Context, patch models.AppStatePatch) error {
	if _, err := c.Post(ctx, CountdownEndpoint, patch); err != nil {
		return fmt.Errorf("failed to set countdown: %w", err)
	}
	return nil
}

// LightTorch flips the global torch flag
func (c *BoardApiClient) LightTorch(ctx context.Context, lit bool) error {
	payload := struct {
		Lit bool `json:"lit"`
	}{Lit: lit}
	if _, err := c.Post(ctx, TorchLightEndpoint, payload); err != nil {
		return fmt.Errorf("failed to light torch: %w", err)
	}
	return nil
}
