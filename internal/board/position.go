package board

import (
	"errors"
	"fmt"
)

// ErrInvalidSquare is returned when a square name cannot be parsed.
var ErrInvalidSquare = errors.New("invalid square")

// Position is a board coordinate. Row 0 is Black's back rank, row 7 is White's.
type Position struct {
	Row, Col int
}

// NoPosition marks an absent coordinate (e.g. a side without a king).
var NoPosition = Position{-1, -1}

// Pos creates a Position from row and column.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Add returns p offset by d.
func (p Position) Add(d Position) Position {
	return Position{p.Row + d.Row, p.Col + d.Col}
}

// Sub returns p offset by -d.
func (p Position) Sub(d Position) Position {
	return Position{p.Row - d.Row, p.Col - d.Col}
}

// Valid reports whether p lies on the board.
func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

// String returns the algebraic name of the square (e.g. "e4").
func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + p.Col), byte('8' - p.Row)})
}

// ParsePosition parses an algebraic square name like "e4".
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return NoPosition, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	col := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if col < 0 || col > 7 || rank < 0 || rank > 7 {
		return NoPosition, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Position{Row: 7 - rank, Col: col}, nil
}

// Direction and offset sets used by move generation and attack detection.
var (
	straightDirs = []Position{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonalDirs = []Position{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	royalDirs    = []Position{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	knightJumps  = []Position{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
)
