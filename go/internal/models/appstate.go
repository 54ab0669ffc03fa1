package models

import (
	"encoding/json"
	"time"
)

// AppState is the board-wide shared state mirrored on every client.
// The remote store owns the canonical value; the local copy is a
// disposable projection.
type AppState struct {
	CountdownEnd   *time.Time `json:"countdownEnd"`
	IsTorchLit     bool       `json:"isTorchLit"`
	IsTorchAutoLit bool       `json:"isTorchAutoLit"`
	SelectedTeamID string     `json:"selectedTeamId,omitempty"`
	CurrentView    string     `json:"currentView,omitempty"`
}

// DefaultAppState returns the state a client starts with before any
// snapshot has been applied
func DefaultAppState() AppState {
	return AppState{
		CurrentView: "dashboard",
	}
}

// Challenge is a side quest teams can complete for bonus points.
// GameConfig is an opaque per-game-type payload the engine never
// inspects.
type Challenge struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Question   string          `json:"question"`
	Answer     string          `json:"answer,omitempty"`
	Points     int             `json:"points"`
	GameType   string          `json:"gameType"`
	GameConfig json.RawMessage `json:"gameConfig,omitempty"`
}

// UserProfile is the client-scoped viewer identity. Username is
// client-owned: the server only adopts it if no local value exists.
type UserProfile struct {
	Username string   `json:"username"`
	Badges   []string `json:"badges,omitempty"`
	IsAdmin  bool     `json:"isAdmin"`
}
