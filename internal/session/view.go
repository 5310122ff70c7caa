package session

import (
	"fmt"

	"ctchen222/tictactoe/internal/game"
)

// View is the snapshot of a session handed to renderers and API callers.
type View struct {
	SessionID       string          `json:"session_id"`
	Mode            game.Mode       `json:"mode"`
	Board           game.Board      `json:"board"`
	ActivePlayer    game.PlayerMark `json:"active_player"`
	Status          game.Status     `json:"status"`
	Prompt          string          `json:"prompt"`
	OpponentPending bool            `json:"opponent_pending"`
	Moves           int             `json:"moves"`
}

// Renderer receives every new view of a session, in order. Render is called
// under the session lock and must not block.
type Renderer interface {
	Render(View)
}

// Closer is implemented by renderers that hold a connection open. SessionClosed
// is called once, under the session lock, when the session ends. It must not block.
type Closer interface {
	SessionClosed(reason string)
}

// RenderFunc adapts a plain function to the Renderer interface.
type RenderFunc func(View)

func (f RenderFunc) Render(v View) { f(v) }

// Prompt returns the status line shown to the player.
func Prompt(mode game.Mode, status game.Status, active game.PlayerMark) string {
	switch status.Outcome {
	case game.Won:
		if mode == game.ModeVsRandomOpponent && status.Winner == game.PlayerO {
			return "AI wins! 🤖"
		}
		return fmt.Sprintf("Player %s wins! 🎉", status.Winner)
	case game.Draw:
		return "It's a draw! 🤝"
	default:
		return fmt.Sprintf("Player %s's turn", active)
	}
}
