package game

import "fmt"

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"
)

// Board boundaries
const (
	BoardSize = 9
	BorderMin = 0
	BorderMax = BoardSize - 1
)

// Board is the 3x3 grid stored row-major, index 0 is the top-left cell.
type Board [BoardSize]PlayerMark

// WinningLines lists the 8 index triples that win when uniformly marked.
var WinningLines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// columns
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diagonals
	{0, 4, 8}, {2, 4, 6},
}

// Opponent returns the other player's mark.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// EmptyCells returns the indexes of all empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// IsFull reports whether every cell carries a mark.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// Winner returns the mark owning a complete line, or None.
func (b Board) Winner() PlayerMark {
	for _, line := range WinningLines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return a
		}
	}
	return None
}

// String renders the board as three rows, using '.' for empty cells.
func (b Board) String() string {
	cell := func(i int) string {
		if b[i] == None {
			return "."
		}
		return string(b[i])
	}
	return fmt.Sprintf("%s%s%s/%s%s%s/%s%s%s",
		cell(0), cell(1), cell(2),
		cell(3), cell(4), cell(5),
		cell(6), cell(7), cell(8))
}
