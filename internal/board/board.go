// Package board implements an 8x8 mailbox chess board with reversible
// moves, legal move generation and FEN/SAN notation.
package board

import (
	"fmt"
	"strings"
)

// Board is an 8x8 grid of optional pieces. It is the only record of where
// pieces stand and caches each side's king square.
//
// A Board is not safe for concurrent use.
type Board struct {
	grid  [8][8]*Piece
	kings [2]Position
}

// Placed pairs a piece with the square it occupies.
type Placed struct {
	At    Position
	Piece *Piece
}

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// New returns an empty board.
func New() *Board {
	return &Board{kings: [2]Position{NoPosition, NoPosition}}
}

// NewStandard returns a board in the standard starting setup.
func NewStandard() *Board {
	b := New()
	for col, k := range backRank {
		b.Place(Pos(0, col), NewPiece(k, Black))
		b.Place(Pos(1, col), NewPiece(Pawn, Black))
		b.Place(Pos(6, col), NewPiece(Pawn, White))
		b.Place(Pos(7, col), NewPiece(k, White))
	}
	return b
}

// IsValidTile reports whether pos is on the board.
func (b *Board) IsValidTile(pos Position) bool {
	return pos.Valid()
}

// IsEmpty reports whether pos holds no piece.
func (b *Board) IsEmpty(pos Position) bool {
	return b.PieceAt(pos) == nil
}

// PieceAt returns the piece on pos, or nil if empty or off the board.
func (b *Board) PieceAt(pos Position) *Piece {
	if !pos.Valid() {
		return nil
	}
	return b.grid[pos.Row][pos.Col]
}

// Place puts p on pos, replacing any occupant. A nil p clears the tile.
func (b *Board) Place(pos Position, p *Piece) {
	if old := b.grid[pos.Row][pos.Col]; old != nil && old.Kind == King && b.kings[old.Alliance] == pos {
		b.kings[old.Alliance] = NoPosition
	}
	b.grid[pos.Row][pos.Col] = p
	if p != nil && p.Kind == King {
		b.kings[p.Alliance] = pos
	}
}

// Remove clears pos and returns its former occupant.
func (b *Board) Remove(pos Position) *Piece {
	p := b.PieceAt(pos)
	if p != nil {
		b.Place(pos, nil)
	}
	return p
}

// MovePiece relocates the piece on from to to without any legality check.
// Whatever stood on to is dropped.
func (b *Board) MovePiece(from, to Position) {
	p := b.grid[from.Row][from.Col]
	b.grid[from.Row][from.Col] = nil
	b.Place(to, p)
}

// KingPosition returns the square of a's king, or NoPosition.
func (b *Board) KingPosition(a Alliance) Position {
	return b.kings[a]
}

// ActivePieces returns a's pieces in row-major order.
func (b *Board) ActivePieces(a Alliance) []Placed {
	pieces := make([]Placed, 0, 16)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b.grid[row][col]; p != nil && p.Alliance == a {
				pieces = append(pieces, Placed{At: Pos(row, col), Piece: p})
			}
		}
	}
	return pieces
}

// IsHomeRankTile reports whether pos lies on a's back rank.
func (b *Board) IsHomeRankTile(pos Position, a Alliance) bool {
	return pos.Valid() && pos.Row == a.HomeRow()
}

// Clone returns a deep copy of the board. Pieces are copied, not shared.
func (b *Board) Clone() *Board {
	c := &Board{kings: b.kings}
	for row := range b.grid {
		for col, p := range b.grid[row] {
			if p != nil {
				cp := *p
				c.grid[row][col] = &cp
			}
		}
	}
	return c
}

// Material returns a's total piece value, kings excluded.
func (b *Board) Material(a Alliance) int {
	total := 0
	for _, pl := range b.ActivePieces(a) {
		if pl.Piece.Kind != King {
			total += pl.Piece.Value()
		}
	}
	return total
}

// String returns a visual representation of the board.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d  ", 8-row)
		for col := 0; col < 8; col++ {
			if p := b.grid[row][col]; p != nil {
				sb.WriteByte(p.Char())
			} else {
				sb.WriteByte('.')
			}
			sb.WriteByte(' ')
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n")
	return sb.String()
}
