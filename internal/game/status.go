package game

import "github.com/hailam/chessgui/internal/board"

// Status is the state of a game. Terminal statuses name the side that has
// no escape, not the winner.
type Status int

const (
	Ongoing Status = iota
	WhiteCheckmated
	BlackCheckmated
	WhiteStalemated
	BlackStalemated
)

// String returns a human readable status.
func (s Status) String() string {
	switch s {
	case WhiteCheckmated:
		return "White checkmated"
	case BlackCheckmated:
		return "Black checkmated"
	case WhiteStalemated:
		return "White stalemated"
	case BlackStalemated:
		return "Black stalemated"
	default:
		return "Ongoing"
	}
}

// Terminal reports whether the game is over.
func (s Status) Terminal() bool {
	return s != Ongoing
}

// IsDraw reports whether the game ended in stalemate.
func (s Status) IsDraw() bool {
	return s == WhiteStalemated || s == BlackStalemated
}

// Winner returns the winning side of a checkmate.
func (s Status) Winner() (board.Alliance, bool) {
	switch s {
	case WhiteCheckmated:
		return board.Black, true
	case BlackCheckmated:
		return board.White, true
	}
	return board.White, false
}

// statusOf evaluates the position for the side to move. Checkmate is
// checked before stalemate.
func statusOf(b *board.Board, toMove board.Alliance) Status {
	if b.HasLegalMoves(toMove) {
		return Ongoing
	}
	if b.IsKingInCheck(toMove) {
		if toMove == board.White {
			return WhiteCheckmated
		}
		return BlackCheckmated
	}
	if toMove == board.White {
		return WhiteStalemated
	}
	return BlackStalemated
}
