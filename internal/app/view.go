package app

import (
	"fmt"
	"time"

	"github.com/jaminalder/tictactoe-timeline/internal/domain"
)

// GameView is a read-only copy of a session, built for rendering.
type GameView struct {
	ID       string
	Board    domain.Board
	Position int
	Len      int
	Next     domain.Cell
	Outcome  domain.Outcome
	Status   string
	Moves    []MoveView
	Created  time.Time
	Updated  time.Time
}

// MoveView describes one history entry.
type MoveView struct {
	Number      int
	Location    domain.Location
	HasLocation bool
	Current     bool
	Description string
}

// Playable reports whether a click on cell i could be accepted.
func (v GameView) Playable(i int) bool {
	return domain.ValidIndex(i) && v.Board[i] == domain.Empty && !v.Outcome.Decided()
}

// Highlighted reports whether cell i is part of the winning line.
func (v GameView) Highlighted(i int) bool {
	return v.Outcome.Contains(i)
}

// MovesInOrder returns the history ascending, or descending when desc is set.
func (v GameView) MovesInOrder(desc bool) []MoveView {
	out := make([]MoveView, len(v.Moves))
	copy(out, v.Moves)
	if desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// StatusText renders the status line shown above the board.
func StatusText(o domain.Outcome, next domain.Cell) string {
	switch o.Status {
	case domain.Won:
		return "Winner: " + o.Winner.String()
	case domain.Draw:
		return "It's a draw!"
	default:
		return "Next player: " + next.String()
	}
}

func describeMove(n int, loc domain.Location, hasLoc, current bool) string {
	switch {
	case current && hasLoc:
		return fmt.Sprintf("You are at move %d %s", n, loc)
	case current:
		return fmt.Sprintf("You are at move %d", n)
	case n == 0:
		return "Go to game start"
	case hasLoc:
		return fmt.Sprintf("Go to move #%d at %s", n, loc)
	default:
		return fmt.Sprintf("Go to move #%d", n)
	}
}

func newView(s *session) GameView {
	tl := s.timeline
	outcome := tl.CurrentOutcome()
	next := tl.CurrentPlayer()
	v := GameView{
		ID:       s.id,
		Board:    tl.Current(),
		Position: tl.Position(),
		Len:      tl.Len(),
		Next:     next,
		Outcome:  outcome,
		Status:   StatusText(outcome, next),
		Moves:    make([]MoveView, tl.Len()),
		Created:  s.created,
		Updated:  s.updated,
	}
	for p := range v.Moves {
		loc, ok := tl.LocationAt(p)
		cur := p == v.Position
		v.Moves[p] = MoveView{
			Number:      p,
			Location:    loc,
			HasLocation: ok,
			Current:     cur,
			Description: describeMove(p, loc, ok, cur),
		}
	}
	return v
}
