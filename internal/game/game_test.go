package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns picks in order and records every n it was asked for.
type scriptedSource struct {
	picks []int
	asked []int
}

func (s *scriptedSource) IntN(n int) int {
	s.asked = append(s.asked, n)
	pick := s.picks[0]
	s.picks = s.picks[1:]
	return pick
}

func playMoves(t *testing.T, e *Engine, moves []int) Status {
	t.Helper()
	var status Status
	for i, idx := range moves {
		var err error
		status, err = e.PlaceMark(idx)
		require.NoErrorf(t, err, "move %d (cell %d)", i, idx)
	}
	return status
}

func TestEvaluateOutcome(t *testing.T) {
	X, O, E := PlayerX, PlayerO, None
	tests := []struct {
		name  string
		board Board
		want  Status
	}{
		{
			name:  "Empty board is in progress",
			board: Board{},
			want:  Status{Outcome: InProgress},
		},
		{
			name:  "Partial board without line",
			board: Board{X, E, E, E, O, E, E, E, E},
			want:  Status{Outcome: InProgress},
		},
		{
			name:  "X wins - first row",
			board: Board{X, X, X, E, O, E, E, E, O},
			want:  Status{Outcome: Won, Winner: X},
		},
		{
			name:  "O wins - second column",
			board: Board{X, O, E, X, O, E, E, O, E},
			want:  Status{Outcome: Won, Winner: O},
		},
		{
			name:  "X wins - main diagonal",
			board: Board{X, E, E, E, X, E, E, E, X},
			want:  Status{Outcome: Won, Winner: X},
		},
		{
			name:  "O wins - anti-diagonal",
			board: Board{E, E, O, E, O, E, O, E, E},
			want:  Status{Outcome: Won, Winner: O},
		},
		{
			name:  "Full board without line is a draw",
			board: Board{X, O, X, X, O, O, O, X, X},
			want:  Status{Outcome: Draw},
		},
		{
			name:  "Full board with a line is a win, not a draw",
			board: Board{X, X, X, O, O, X, O, X, O},
			want:  Status{Outcome: Won, Winner: X},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateOutcome(tt.board)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, EvaluateOutcome(tt.board), "evaluation must be deterministic")
		})
	}
}

func TestEvaluateOutcome_TopRowAlwaysWinsForX(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	marks := []PlayerMark{None, PlayerX, PlayerO}
	for i := 0; i < 200; i++ {
		var b Board
		for c := 3; c < BoardSize; c++ {
			b[c] = marks[rng.IntN(len(marks))]
		}
		b[0], b[1], b[2] = PlayerX, PlayerX, PlayerX
		assert.Equal(t, Status{Outcome: Won, Winner: PlayerX}, EvaluateOutcome(b), "board %s", b)
	}
}

func TestNewEngine_InitialState(t *testing.T) {
	for _, mode := range []Mode{ModeTwoPlayer, ModeVsRandomOpponent} {
		e := NewEngine(mode)
		assert.Equal(t, mode, e.Mode())
		assert.Equal(t, Board{}, e.Board())
		assert.Equal(t, PlayerX, e.ActivePlayer())
		assert.Equal(t, Status{Outcome: InProgress}, e.Status())
		assert.Empty(t, e.Moves())
	}
}

func TestInitialize_InvalidModePanics(t *testing.T) {
	assert.PanicsWithError(t, `invalid game mode: "chess"`, func() {
		NewEngine(Mode("chess"))
	})
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("vs_random")
	require.NoError(t, err)
	assert.Equal(t, ModeVsRandomOpponent, m)

	_, err = ParseMode("ai")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestPlaceMark_TwoPlayerScenario(t *testing.T) {
	e := NewEngine(ModeTwoPlayer)

	status, err := e.PlaceMark(0)
	require.NoError(t, err)
	assert.Equal(t, InProgress, status.Outcome)
	assert.Equal(t, PlayerX, e.Board()[0])

	before := e.Board()
	status, err = e.PlaceMark(0)
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, ErrCellOccupied)
	assert.Equal(t, InProgress, status.Outcome)
	assert.Equal(t, before, e.Board())
	assert.Equal(t, PlayerO, e.ActivePlayer(), "rejected move must not flip the turn")

	steps := []struct {
		index int
		mark  PlayerMark
		want  Status
	}{
		{1, PlayerO, Status{Outcome: InProgress}},
		{3, PlayerX, Status{Outcome: InProgress}},
		{4, PlayerO, Status{Outcome: InProgress}},
		{6, PlayerX, Status{Outcome: Won, Winner: PlayerX}},
	}
	for _, step := range steps {
		status, err := e.PlaceMark(step.index)
		require.NoError(t, err)
		assert.Equal(t, step.mark, e.Board()[step.index])
		assert.Equal(t, step.want, status)
	}

	_, err = e.PlaceMark(8)
	assert.ErrorIs(t, err, ErrGameOver)
	assert.Equal(t, None, e.Board()[8])
}

func TestPlaceMark_OutOfBounds(t *testing.T) {
	e := NewEngine(ModeTwoPlayer)
	for _, idx := range []int{-1, 9, 42} {
		_, err := e.PlaceMark(idx)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	}
	assert.Equal(t, Board{}, e.Board())
	assert.Equal(t, PlayerX, e.ActivePlayer())
}

func TestPlaceMark_DrawSequence(t *testing.T) {
	e := NewEngine(ModeTwoPlayer)
	status := playMoves(t, e, []int{0, 1, 2, 4, 3, 5, 7, 6, 8})
	assert.Equal(t, Status{Outcome: Draw}, status)
	assert.True(t, e.Board().IsFull())
	assert.Len(t, e.Moves(), 9)
}

func TestPlaceMark_FillingMoveThatCompletesLineWins(t *testing.T) {
	e := NewEngine(ModeTwoPlayer)
	status := playMoves(t, e, []int{5, 3, 7, 4, 0, 6, 1, 8, 2})
	assert.Equal(t, Status{Outcome: Won, Winner: PlayerX}, status)
	assert.True(t, e.Board().IsFull())
}

func TestPlaceMark_VsRandomKeepsHumanOnX(t *testing.T) {
	e := NewEngine(ModeVsRandomOpponent)
	_, err := e.PlaceMark(4)
	require.NoError(t, err)
	assert.Equal(t, PlayerX, e.ActivePlayer())
	_, err = e.PlaceMark(0)
	require.NoError(t, err)
	assert.Equal(t, PlayerX, e.Board()[0])
}

func TestPlaceMark_NeverOverwritesCells(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for game := 0; game < 100; game++ {
		e := NewEngine(ModeTwoPlayer)
		for !e.Status().IsTerminal() {
			before := e.Board()
			idx := rng.IntN(BoardSize)
			_, err := e.PlaceMark(idx)
			after := e.Board()
			if before[idx] != None {
				require.ErrorIs(t, err, ErrRejected)
				require.Equal(t, before, after)
				continue
			}
			require.NoError(t, err)
			for i := range after {
				if i == idx {
					continue
				}
				require.Equal(t, before[i], after[i], "cell %d changed by move on %d", i, idx)
			}
		}
	}
}

func TestChooseRandomMove(t *testing.T) {
	src := &scriptedSource{picks: []int{7}}
	e := NewEngine(ModeVsRandomOpponent, WithSource(src))

	_, err := e.PlaceMark(4)
	require.NoError(t, err)

	idx, status, err := e.ChooseRandomMove()
	require.NoError(t, err)
	assert.Equal(t, []int{8}, src.asked, "source must be asked over the remaining empty cells")
	// Empty cells are [0 1 2 3 5 6 7 8]; pick 7 is cell 8.
	assert.Equal(t, 8, idx)
	assert.Equal(t, PlayerO, e.Board()[8])
	assert.Equal(t, EvaluateOutcome(e.Board()), status)
	assert.Equal(t, PlayerX, e.ActivePlayer())
}

func TestChooseRandomMove_OpponentCanWin(t *testing.T) {
	// O holds 0 and 1; the only pick left completes the top row.
	src := &scriptedSource{picks: []int{0, 0, 0}}
	e := NewEngine(ModeVsRandomOpponent, WithSource(src))

	_, err := e.PlaceMark(3)
	require.NoError(t, err)
	idx, _, err := e.ChooseRandomMove()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = e.PlaceMark(4)
	require.NoError(t, err)
	idx, _, err = e.ChooseRandomMove()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = e.PlaceMark(8)
	require.NoError(t, err)
	idx, status, err := e.ChooseRandomMove()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, Status{Outcome: Won, Winner: PlayerO}, status)
}

func TestChooseRandomMove_Errors(t *testing.T) {
	t.Run("wrong mode", func(t *testing.T) {
		e := NewEngine(ModeTwoPlayer)
		_, _, err := e.ChooseRandomMove()
		assert.ErrorIs(t, err, ErrWrongMode)
		assert.Equal(t, Board{}, e.Board())
	})

	t.Run("full board", func(t *testing.T) {
		e := NewEngine(ModeVsRandomOpponent)
		for i := 0; i < BoardSize; i++ {
			e.board[i] = PlayerX
		}
		_, _, err := e.ChooseRandomMove()
		assert.ErrorIs(t, err, ErrNoLegalMove)
	})

	t.Run("finished game", func(t *testing.T) {
		e := NewEngine(ModeVsRandomOpponent)
		playMoves(t, e, []int{0, 1, 2})
		require.Equal(t, Status{Outcome: Won, Winner: PlayerX}, e.Status())

		before := e.Board()
		_, _, err := e.ChooseRandomMove()
		assert.ErrorIs(t, err, ErrRejected)
		assert.Equal(t, before, e.Board())
	})
}

func TestChooseRandomMove_Uniform(t *testing.T) {
	e := NewEngine(ModeVsRandomOpponent, WithSource(rand.New(rand.NewPCG(1, 2))))
	counts := make(map[int]int)
	const rounds = 8000
	for i := 0; i < rounds; i++ {
		e.Reset()
		_, err := e.PlaceMark(4)
		require.NoError(t, err)
		idx, _, err := e.ChooseRandomMove()
		require.NoError(t, err)
		require.NotEqual(t, 4, idx)
		counts[idx]++
	}
	assert.Len(t, counts, 8)
	for idx, n := range counts {
		assert.InDelta(t, rounds/8, n, rounds/8*0.2, "cell %d", idx)
	}
}

func TestReset(t *testing.T) {
	e := NewEngine(ModeTwoPlayer)
	playMoves(t, e, []int{0, 3, 1, 4, 2})
	require.Equal(t, Status{Outcome: Won, Winner: PlayerX}, e.Status())

	e.Reset()
	assert.Equal(t, Board{}, e.Board())
	assert.Equal(t, PlayerX, e.ActivePlayer())
	assert.Equal(t, Status{Outcome: InProgress}, e.Status())
	assert.Equal(t, ModeTwoPlayer, e.Mode())
	assert.Empty(t, e.Moves())

	e.Reset()
	assert.Equal(t, Status{Outcome: InProgress}, e.Status())

	_, err := e.PlaceMark(0)
	assert.NoError(t, err)
}

func TestBoardString(t *testing.T) {
	b := Board{PlayerX, None, PlayerO}
	assert.Equal(t, "X.O/.../...", b.String())
}
