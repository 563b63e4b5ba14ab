package domain

// Status is the coarse state of a game.
type Status uint8

const (
	InProgress Status = iota
	Won
	Draw
)

func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in progress"
	}
}

// Outcome is derived from a board and never stored.
// Winner and Line are only set when Status is Won.
type Outcome struct {
	Status Status
	Winner Cell
	Line   [3]int
}

// Decided reports whether no further moves are possible.
func (o Outcome) Decided() bool { return o.Status != InProgress }

// Contains reports whether index is part of the winning line.
func (o Outcome) Contains(index int) bool {
	if o.Status != Won {
		return false
	}
	for _, i := range o.Line {
		if i == index {
			return true
		}
	}
	return false
}

// lines are checked in order: rows top to bottom, columns left to right,
// main diagonal, anti-diagonal. The first complete line wins.
var lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Evaluate determines the outcome of a board.
func Evaluate(b Board) Outcome {
	for _, ln := range lines {
		a := b[ln[0]]
		if a != Empty && a == b[ln[1]] && a == b[ln[2]] {
			return Outcome{Status: Won, Winner: a, Line: ln}
		}
	}
	if b.Full() {
		return Outcome{Status: Draw}
	}
	return Outcome{Status: InProgress}
}
