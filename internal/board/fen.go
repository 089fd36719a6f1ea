package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN is returned for FEN strings that cannot be loaded.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN parses a FEN string into a board and the side to move.
//
// Pawns on their starting row and kings and rooks covered by a castling
// right are unmoved; every other piece is marked as moved. The en passant
// field is accepted but ignored.
func ParseFEN(fen string) (*Board, Alliance, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, White, fmt.Errorf("%w: need at least 4 fields, got %d", ErrInvalidFEN, len(parts))
	}

	b := New()
	if err := parsePiecePlacement(b, parts[0]); err != nil {
		return nil, White, err
	}

	var side Alliance
	switch parts[1] {
	case "w":
		side = White
	case "b":
		side = Black
	default:
		return nil, White, fmt.Errorf("%w: invalid side to move: %s", ErrInvalidFEN, parts[1])
	}

	if err := parseCastlingRights(b, parts[2]); err != nil {
		return nil, White, err
	}

	for _, a := range [2]Alliance{White, Black} {
		if !b.kings[a].Valid() {
			return nil, White, fmt.Errorf("%w: %s has no king", ErrInvalidFEN, a)
		}
	}
	if b.IsKingInCheck(side.Opposite()) {
		return nil, White, fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}

	return b, side, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(b *Board, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for row, rankStr := range ranks {
		col := 0
		for _, c := range rankStr {
			if col > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, 8-row)
			}
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			var p *Piece
			if c < 0x80 {
				p = pieceFromChar(byte(c))
			}
			if p == nil {
				return fmt.Errorf("%w: invalid piece character: %c", ErrInvalidFEN, c)
			}
			if p.Kind == King && b.kings[p.Alliance].Valid() {
				return fmt.Errorf("%w: more than one %s king", ErrInvalidFEN, p.Alliance)
			}
			p.HasMoved = !(p.Kind == Pawn && row == p.Alliance.HomeRow()+p.Alliance.Forward())
			b.Place(Pos(row, col), p)
			col++
		}
		if col != 8 {
			return fmt.Errorf("%w: invalid number of squares in rank %d: got %d", ErrInvalidFEN, 8-row, col)
		}
	}
	return nil
}

// parseCastlingRights marks the king and rook of every listed right unmoved.
func parseCastlingRights(b *Board, castling string) error {
	if castling == "-" {
		return nil
	}
	for _, c := range castling {
		var a Alliance
		var rookCol int
		switch c {
		case 'K':
			a, rookCol = White, 7
		case 'Q':
			a, rookCol = White, 0
		case 'k':
			a, rookCol = Black, 7
		case 'q':
			a, rookCol = Black, 0
		default:
			return fmt.Errorf("%w: invalid castling character: %c", ErrInvalidFEN, c)
		}
		king := b.PieceAt(Pos(a.HomeRow(), 4))
		rook := b.PieceAt(Pos(a.HomeRow(), rookCol))
		if king == nil || king.Kind != King || king.Alliance != a ||
			rook == nil || rook.Kind != Rook || rook.Alliance != a {
			return fmt.Errorf("%w: castling right %c without king and rook in place", ErrInvalidFEN, c)
		}
		king.HasMoved = false
		rook.HasMoved = false
	}
	return nil
}

// ToFEN returns the FEN representation of the board with side to move.
// Castling rights are derived from unmoved kings and rooks.
func (b *Board) ToFEN(side Alliance) string {
	var sb strings.Builder

	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			p := b.grid[row][col]
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(p.Char())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if side == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(b.castlingRights())
	sb.WriteString(" - 0 1")
	return sb.String()
}

func (b *Board) castlingRights() string {
	var sb strings.Builder
	for _, a := range [2]Alliance{White, Black} {
		king := b.PieceAt(Pos(a.HomeRow(), 4))
		if king == nil || king.Kind != King || king.Alliance != a || king.HasMoved {
			continue
		}
		for _, side := range [2]struct {
			col  int
			char byte
		}{{7, 'k'}, {0, 'q'}} {
			rook := b.PieceAt(Pos(a.HomeRow(), side.col))
			if rook == nil || rook.Kind != Rook || rook.Alliance != a || rook.HasMoved {
				continue
			}
			c := side.char
			if a == White {
				c -= 'a' - 'A'
			}
			sb.WriteByte(c)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}
