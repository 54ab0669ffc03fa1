package board_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gamenight/liveboard/go/internal/models"
)

// GetTeams fetches all teams via the fallback endpoint. Breakdown
// ledgers are not included; fetch them per team with GetTeamBreakdown.
func (c *BoardApiClient) GetTeams(ctx context.Context) ([]models.Team, error) {
	body, err := c.Get(ctx, TeamsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	var teams []models.Team
	if err := json.Unmarshal(body, &teams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teams: %w", err)
	}
	return teams, nil
}

// GetTeamBreakdown fetches one team's point ledger
func (c *BoardApiClient) GetTeamBreakdown(ctx context.Context, teamID string) ([]models.PointEntry, error) {
	body, err := c.Get(ctx, fmt.Sprintf("%s/%s/breakdown", TeamsEndpoint, teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to get team breakdown: %w", err)
	}

	var entries []models.PointEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}
	return entries, nil
}

// CreateTeam creates a new team
func (c *BoardApiClient) CreateTeam(ctx context.Context, req models.CreateTeamRequest) (*models.Team, error) {
	body, err := c.Post(ctx, TeamsEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	var team models.Team
	if err := json.Unmarshal(body, &team); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team: %w", err)
	}
	return &team, nil
}

// UpdateTeam shallow-merges the given patch into a team
func (c *BoardApiClient) UpdateTeam(ctx context.Context, teamID string, patch models.TeamPatch) error {
	if _, err := c.Put(ctx, fmt.Sprintf("%s/%s", TeamsEndpoint, teamID), patch); err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return nil
}

// DeleteTeam removes a team
func (c *BoardApiClient) DeleteTeam(ctx context.Context, teamID string) error {
	if _, err := c.Delete(ctx, fmt.Sprintf("%s/%s", TeamsEndpoint, teamID)); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

// AddPoints appends a ledger entry server-side. The call is not
// idempotent: issuing it twice produces two ledger entries.
func (c *BoardApiClient) AddPoints(ctx context.Context, teamID string, req models.AddPointsRequest) error {
	if _, err := c.Post(ctx, fmt.Sprintf("%s/%s/add-points", TeamsEndpoint, teamID), req); err != nil {
		return fmt.Errorf("failed to add points: %w", err)
	}
	return nil
}
