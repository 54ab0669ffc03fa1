package models

import (
	"encoding/json"
	"time"
)

// Snapshot is the full-state payload returned by the sync endpoint.
// Collections are applied by whole replace; AppState is field-merged.
type Snapshot struct {
	Teams      []Team      `json:"teams"`
	Events     []GameEvent `json:"events"`
	Challenges []Challenge `json:"challenges"`
	AppState   *AppState   `json:"appState,omitempty"`
	Username   string      `json:"username,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Revision is the snapshot's logical stamp, used to gate stale applies
func (s *Snapshot) Revision() int64 {
	return s.Timestamp.UnixMilli()
}

// PushType identifies the kind of change a push envelope carries
type PushType string

const (
	PushTeamUpdated     PushType = "team_updated"
	PushEventUpdated    PushType = "event_updated"
	PushAppStateUpdated PushType = "app_state_updated"
	PushUsernameUpdated PushType = "viewer_username_updated"
)

// PushEnvelope is the wire frame for the push channel: a type tag and
// an opaque payload decoded per type by the sync engine
type PushEnvelope struct {
	Type PushType        `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewPushEnvelope marshals data into an envelope of the given type
func NewPushEnvelope(t PushType, data any) (PushEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return PushEnvelope{}, err
	}
	return PushEnvelope{Type: t, Data: raw}, nil
}

// TeamUpdate is the payload of a team_updated push message
type TeamUpdate struct {
	ID  string `json:"id"`
	Rev int64  `json:"rev,omitempty"`
	TeamPatch
}

// EventUpdate is the payload of an event_updated push message
type EventUpdate struct {
	ID  string `json:"id"`
	Rev int64  `json:"rev,omitempty"`
	EventPatch
}

// AppStateUpdate is the payload of an app_state_updated push message
type AppStateUpdate struct {
	Rev int64 `json:"rev,omitempty"`
	AppStatePatch
}

// UsernameUpdate is the payload of a viewer_username_updated push message
type UsernameUpdate struct {
	Username string `json:"username"`
}
