package board_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gamenight/liveboard/go/internal/models"
)

// GetChallenges fetches all challenges via the fallback endpoint
func (c *BoardApiClient) GetChallenges(ctx context.Context) ([]models.Challenge, error) {
	body, err := c.Get(ctx, ChallengesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenges: %w", err)
	}

	var challenges []models.Challenge
	if err := json.Unmarshal(body, &challenges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenges: %w", err)
	}
	return challenges, nil
}

// CreateChallenge creates a new challenge
func (c *BoardApiClient) CreateChallenge(ctx context.Context, ch models.Challenge) (*models.Challenge, error) {
	body, err := c.Post(ctx, ChallengesEndpoint, ch)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	var created models.Challenge
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	return &created, nil
}

// DeleteChallenge removes a challenge
func (c *BoardApiClient) DeleteChallenge(ctx context.Context, id string) error {
	if _, err := c.Delete(ctx, fmt.Sprintf("%s/%s", ChallengesEndpoint, id)); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}
