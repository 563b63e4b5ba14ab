package domain

import "fmt"

// move pairs a snapshot with the cell that produced it.
// The initial record has no location.
type move struct {
	board  Board
	loc    Location
	hasLoc bool
}

// Timeline holds the linear history of a single game and the position
// currently being viewed. Turn and outcome are derived from the record at
// the current position on every call.
//
// A Timeline does no locking; callers must serialize access.
type Timeline struct {
	history  []move
	position int
}

// NewTimeline returns a timeline holding only the empty starting board.
func NewTimeline() *Timeline {
	return &Timeline{history: []move{{}}}
}

// Len returns the number of stored records. It is always at least 1.
func (t *Timeline) Len() int { return len(t.history) }

// Position returns the index of the record currently in view.
func (t *Timeline) Position() int { return t.position }

// Current returns the snapshot at the current position.
func (t *Timeline) Current() Board { return t.history[t.position].board }

// CurrentPlayer returns X on even positions and O on odd ones.
func (t *Timeline) CurrentPlayer() Cell {
	if t.position%2 == 0 {
		return X
	}
	return O
}

// CurrentOutcome evaluates the snapshot at the current position.
func (t *Timeline) CurrentOutcome() Outcome {
	return Evaluate(t.Current())
}

// AttemptMove places the current player's mark at index. It returns false
// and leaves the timeline untouched if index is not a cell, the cell is
// taken, or the current position is already decided.
//
// On success every record after the current position is discarded before
// the new one is appended.
func (t *Timeline) AttemptMove(index int) bool {
	if !ValidIndex(index) {
		return false
	}
	cur := t.Current()
	if cur[index] != Empty || t.CurrentOutcome().Decided() {
		return false
	}
	next := cur
	next[index] = t.CurrentPlayer()

	t.history = append(t.history[:t.position+1], move{
		board:  next,
		loc:    LocationOf(index),
		hasLoc: true,
	})
	t.position = len(t.history) - 1
	return true
}

// JumpTo moves the view to position without altering stored history.
// It panics if position is out of range.
func (t *Timeline) JumpTo(position int) {
	t.mustBeInRange(position)
	t.position = position
}

// SnapshotAt returns a copy of the board at position.
// It panics if position is out of range.
func (t *Timeline) SnapshotAt(position int) Board {
	t.mustBeInRange(position)
	return t.history[position].board
}

// LocationAt returns the cell played to reach position. The second result
// is false for the starting board. It panics if position is out of range.
func (t *Timeline) LocationAt(position int) (Location, bool) {
	t.mustBeInRange(position)
	m := t.history[position]
	return m.loc, m.hasLoc
}

func (t *Timeline) mustBeInRange(position int) {
	if position < 0 || position >= len(t.history) {
		panic(fmt.Sprintf("domain: position %d out of range [0, %d)", position, len(t.history)))
	}
}
