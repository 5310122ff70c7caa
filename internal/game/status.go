package game

import (
	"errors"
	"fmt"
)

// Outcome is the lifecycle state of a game.
type Outcome string

const (
	InProgress Outcome = "in_progress"
	Won        Outcome = "won"
	Draw       Outcome = "draw"
)

// Status is the result of evaluating a board. Winner is set only when Outcome is Won.
type Status struct {
	Outcome Outcome    `json:"outcome"`
	Winner  PlayerMark `json:"winner,omitempty"`
}

// IsTerminal reports whether the game accepts no further moves.
func (s Status) IsTerminal() bool {
	return s.Outcome == Won || s.Outcome == Draw
}

func (s Status) String() string {
	if s.Outcome == Won {
		return fmt.Sprintf("won(%s)", s.Winner)
	}
	return string(s.Outcome)
}

// Mode selects how the second mark is played.
type Mode string

const (
	ModeTwoPlayer        Mode = "two_player"
	ModeVsRandomOpponent Mode = "vs_random"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeTwoPlayer || m == ModeVsRandomOpponent
}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

var (
	// ErrRejected is wrapped by every error for a move that was ignored without changing state.
	ErrRejected     = errors.New("move rejected")
	ErrGameOver     = fmt.Errorf("%w: game already finished", ErrRejected)
	ErrCellOccupied = fmt.Errorf("%w: cell already occupied", ErrRejected)
	ErrOutOfBounds  = fmt.Errorf("%w: cell index out of bounds", ErrRejected)

	ErrInvalidMode = errors.New("invalid game mode")
	ErrWrongMode   = errors.New("random move requested outside vs_random mode")
	ErrNoLegalMove = errors.New("no legal move available")
)
