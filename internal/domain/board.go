package domain

import "fmt"

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player's mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Size is the number of cells on a board.
const Size = 9

// Board is a fixed 3x3 board stored row-major. Boards are values, so every
// copy is an independent snapshot.
type Board [Size]Cell

// Full reports whether no cell is Empty.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Location is the (row, col) of a cell.
type Location struct {
	Row int
	Col int
}

// LocationOf maps a linear cell index to its row and column.
func LocationOf(index int) Location {
	return Location{Row: index / 3, Col: index % 3}
}

// Index is the inverse of LocationOf.
func (l Location) Index() int { return l.Row*3 + l.Col }

func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.Row, l.Col)
}

// ValidIndex reports whether index addresses a cell.
func ValidIndex(index int) bool {
	return index >= 0 && index < Size
}
