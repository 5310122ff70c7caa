package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeSessionStarted  = "session_started"
	TypeMarkPlaced      = "mark_placed"
	TypeSessionFinished = "session_finished"
	TypeSessionReset    = "session_reset"
	TypeSessionClosed   = "session_closed"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// SessionStartedPayload is the payload for the "session_started" event.
type SessionStartedPayload struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

// MarkPlacedPayload is the payload for the "mark_placed" event.
type MarkPlacedPayload struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
	Mark      string `json:"mark"`
	Automatic bool   `json:"automatic"`
	Outcome   string `json:"outcome"`
}

// SessionFinishedPayload is the payload for the "session_finished" event.
type SessionFinishedPayload struct {
	SessionID  string    `json:"session_id"`
	Mode       string    `json:"mode"`
	Outcome    string    `json:"outcome"`
	Winner     string    `json:"winner,omitempty"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}

// SessionResetPayload is the payload for the "session_reset" event.
type SessionResetPayload struct {
	SessionID string `json:"session_id"`
}

// SessionClosedPayload is the payload for the "session_closed" event.
type SessionClosedPayload struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}
