package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source picks a uniform integer in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Move is one applied placement.
type Move struct {
	Index int        `json:"index"`
	Mark  PlayerMark `json:"mark"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource replaces the random source used by ChooseRandomMove.
func WithSource(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.src = src
		}
	}
}

// Engine owns the state of a single game session. All methods are safe for
// concurrent use; each one runs as a single read-check-write unit.
type Engine struct {
	mu           sync.Mutex
	mode         Mode
	board        Board
	activePlayer PlayerMark
	status       Status
	history      []Move
	src          Source
}

// NewEngine creates an engine initialized for mode. It panics if mode is unknown.
func NewEngine(mode Mode, opts ...Option) *Engine {
	e := &Engine{src: globalSource{}}
	for _, opt := range opts {
		opt(e)
	}
	e.Initialize(mode)
	return e
}

// Initialize starts a fresh game in the given mode. An unknown mode is a
// programming error and panics.
func (e *Engine) Initialize(mode Mode) {
	if !mode.Valid() {
		panic(fmt.Errorf("%w: %q", ErrInvalidMode, mode))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.mode = mode
	e.reset()
}

// Reset restores the initial state and keeps the selected mode.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reset()
}

func (e *Engine) reset() {
	e.board = Board{}
	e.activePlayer = PlayerX
	e.status = Status{Outcome: InProgress}
	e.history = e.history[:0]
}

// PlaceMark puts the active player's mark on index. A move on a finished game,
// an occupied cell or an index outside the board is rejected: the returned
// error wraps ErrRejected and the state is left untouched.
func (e *Engine) PlaceMark(index int) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkMove(index); err != nil {
		return e.status, err
	}

	e.apply(index, e.activePlayer)
	if e.mode == ModeTwoPlayer && !e.status.IsTerminal() {
		e.activePlayer = e.activePlayer.Opponent()
	}
	return e.status, nil
}

// ChooseRandomMove places an O on a uniformly chosen empty cell and returns
// the chosen index with the resulting status.
func (e *Engine) ChooseRandomMove() (int, Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeVsRandomOpponent {
		return -1, e.status, ErrWrongMode
	}

	empty := e.board.EmptyCells()
	if len(empty) == 0 {
		return -1, e.status, ErrNoLegalMove
	}
	if e.status.IsTerminal() {
		return -1, e.status, ErrGameOver
	}

	index := empty[e.src.IntN(len(empty))]
	e.apply(index, PlayerO)
	return index, e.status, nil
}

func (e *Engine) checkMove(index int) error {
	if e.status.IsTerminal() {
		return ErrGameOver
	}
	if index < BorderMin || index > BorderMax {
		return fmt.Errorf("%w: %d", ErrOutOfBounds, index)
	}
	if e.board[index] != None {
		return fmt.Errorf("%w: %d", ErrCellOccupied, index)
	}
	return nil
}

func (e *Engine) apply(index int, mark PlayerMark) {
	e.board[index] = mark
	e.history = append(e.history, Move{Index: index, Mark: mark})
	e.status = EvaluateOutcome(e.board)
}

// EvaluateOutcome reports the status of b. A completed line wins even when it
// also fills the board.
func EvaluateOutcome(b Board) Status {
	if winner := b.Winner(); winner != None {
		return Status{Outcome: Won, Winner: winner}
	}
	if b.IsFull() {
		return Status{Outcome: Draw}
	}
	return Status{Outcome: InProgress}
}

// Board returns a copy of the current board.
func (e *Engine) Board() Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board
}

// ActivePlayer returns the mark that the next PlaceMark will write.
func (e *Engine) ActivePlayer() PlayerMark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activePlayer
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Moves returns a copy of the applied moves since the last reset.
func (e *Engine) Moves() []Move {
	e.mu.Lock()
	defer e.mu.Unlock()
	moves := make([]Move, len(e.history))
	copy(moves, e.history)
	return moves
}
