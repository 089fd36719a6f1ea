package board

import (
	"fmt"
	"strings"
)

// Alliance is the side a piece or player belongs to.
type Alliance uint8

const (
	White Alliance = iota
	Black
)

// Opposite returns the other alliance.
func (a Alliance) Opposite() Alliance {
	return a ^ 1
}

// String returns the alliance name.
func (a Alliance) String() string {
	if a == White {
		return "White"
	}
	return "Black"
}

// Forward returns the row direction pawns of this alliance advance in.
func (a Alliance) Forward() int {
	if a == White {
		return -1
	}
	return 1
}

// HomeRow returns the back rank of the alliance.
func (a Alliance) HomeRow() int {
	if a == White {
		return 7
	}
	return 0
}

// ParseAlliance parses "white", "black", "w" or "b".
func ParseAlliance(s string) (Alliance, error) {
	switch strings.ToLower(s) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("invalid alliance: %q", s)
}

// Kind is the type of a chess piece.
type Kind uint8

const (
	Pawn Kind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

// KindValue is the material value of each kind in centipawns.
var KindValue = [6]int{100, 320, 330, 500, 900, 20000}

// String returns the piece kind name.
func (k Kind) String() string {
	switch k {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the lowercase FEN letter of the kind.
func (k Kind) Char() byte {
	if k > King {
		return ' '
	}
	return "pnbrqk"[k]
}

// ParseKind parses a piece name ("knight") or letter ("n"), case-insensitively.
func ParseKind(token string) (Kind, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	for k := Pawn; k <= King; k++ {
		if t == strings.ToLower(k.String()) || (len(t) == 1 && t[0] == k.Char()) {
			return k, true
		}
	}
	return Pawn, false
}

// PromotionKind maps a promotion choice to a kind. Anything other than
// queen, rook, bishop or knight yields Queen.
func PromotionKind(token string) Kind {
	k, ok := ParseKind(token)
	if !ok || !k.Promotable() {
		return Queen
	}
	return k
}

// Promotable reports whether a pawn may promote to k.
func (k Kind) Promotable() bool {
	return k >= Knight && k <= Queen
}

// Piece is a chess piece. Its location is known only to the Board holding it.
type Piece struct {
	Kind     Kind
	Alliance Alliance
	HasMoved bool
}

// NewPiece creates an unmoved piece.
func NewPiece(k Kind, a Alliance) *Piece {
	return &Piece{Kind: k, Alliance: a}
}

// Value returns the material value of the piece.
func (p *Piece) Value() int {
	return KindValue[p.Kind]
}

// Char returns the FEN letter: uppercase for White, lowercase for Black.
func (p *Piece) Char() byte {
	c := p.Kind.Char()
	if p.Alliance == White {
		c -= 'a' - 'A'
	}
	return c
}

// String returns e.g. "White Knight".
func (p *Piece) String() string {
	return p.Alliance.String() + " " + p.Kind.String()
}

// pieceFromChar converts a FEN letter to a new piece.
func pieceFromChar(c byte) *Piece {
	a := White
	lower := c
	if c >= 'a' && c <= 'z' {
		a = Black
	} else {
		lower = c + ('a' - 'A')
	}
	idx := strings.IndexByte("pnbrqk", lower)
	if idx < 0 {
		return nil
	}
	return NewPiece(Kind(idx), a)
}
