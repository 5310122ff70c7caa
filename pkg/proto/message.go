package proto

import "ctchen222/tictactoe/internal/game"

// Message types
const (
	TypeMove     = "move"
	TypeReset    = "reset"
	TypeUpdate   = "update"
	TypeRejected = "rejected"
	TypeError    = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type  string `json:"type" validate:"required,oneof=move reset"`
	Index *int   `json:"index,omitempty" validate:"omitempty,cell"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type            string            `json:"type" validate:"required"`
	Reason          string            `json:"reason,omitempty"`
	SessionID       string            `json:"session_id,omitempty"`
	Board           []game.PlayerMark `json:"board,omitempty"`
	Next            game.PlayerMark   `json:"next,omitempty"`
	Status          game.Outcome      `json:"status,omitempty"`
	Winner          game.PlayerMark   `json:"winner,omitempty"`
	Prompt          string            `json:"prompt,omitempty"`
	OpponentPending bool              `json:"opponent_pending,omitempty"`
}
