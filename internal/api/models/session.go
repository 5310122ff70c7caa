package models

import (
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/session"
)

// CreateSessionRequest selects the mode of a new session.
type CreateSessionRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// CreateSessionResponse carries the new session and the token that grants access to it.
type CreateSessionResponse struct {
	SessionID string       `json:"session_id"`
	Token     string       `json:"token"`
	View      session.View `json:"view"`
}

// MoveRequest places the human mark on a cell.
type MoveRequest struct {
	Index *int `json:"index" binding:"required,min=0,max=8"`
}

// MoveResponse reports whether the move was applied. Rejected moves still carry the current view.
type MoveResponse struct {
	Applied bool         `json:"applied"`
	Reason  string       `json:"reason,omitempty"`
	View    session.View `json:"view"`
}

// ResultsResponse lists recent finished sessions.
type ResultsResponse struct {
	Results []repository.Result `json:"results"`
}
