package board

import (
	"fmt"
	"strings"
)

// SAN converts a legal move, not yet executed, to Standard Algebraic Notation.
func (b *Board) SAN(m *Move) string {
	p := b.PieceAt(m.From)
	if p == nil {
		return m.String()
	}

	if m.Kind == Castling {
		if m.To.Col > m.From.Col {
			return "O-O" + b.checkSuffix(m, p.Alliance)
		}
		return "O-O-O" + b.checkSuffix(m, p.Alliance)
	}

	var sb strings.Builder
	if p.Kind != Pawn {
		sb.WriteByte(p.Kind.Char() - ('a' - 'A'))
		sb.WriteString(b.disambiguation(m, p))
	}

	if m.IsCapture() {
		if p.Kind == Pawn {
			sb.WriteByte(byte('a' + m.From.Col))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(m.To.String())

	if m.Kind == Promotion {
		sb.WriteByte('=')
		sb.WriteByte(m.Promote.Char() - ('a' - 'A'))
	}

	sb.WriteString(b.checkSuffix(m, p.Alliance))
	return sb.String()
}

// checkSuffix returns "#", "+" or "" depending on what m does to the opponent.
func (b *Board) checkSuffix(m *Move, a Alliance) string {
	return Simulate(b, m, func() string {
		switch {
		case b.IsCheckMate(a.Opposite()):
			return "#"
		case b.IsKingInCheck(a.Opposite()):
			return "+"
		}
		return ""
	})
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same kind can reach the same destination.
func (b *Board) disambiguation(m *Move, p *Piece) string {
	var candidates []Position
	for _, pl := range b.ActivePieces(p.Alliance) {
		if pl.At == m.From || pl.Piece.Kind != p.Kind {
			continue
		}
		for _, other := range b.LegalMoves(pl.At) {
			if other.To == m.To {
				candidates = append(candidates, pl.At)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.Col == m.From.Col {
			sameFile = true
		}
		if sq.Row == m.From.Row {
			sameRank = true
		}
	}
	if !sameFile {
		return string(rune('a' + m.From.Col))
	}
	if !sameRank {
		return string(rune('8' - m.From.Row))
	}
	return m.From.String()
}

// ParseSAN finds the legal move of a that matches a SAN string.
func (b *Board) ParseSAN(s string, a Alliance) (*Move, error) {
	orig := strings.TrimSpace(s)
	s = strings.TrimRight(orig, "+#")

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		dir := 1
		if len(s) > 3 {
			dir = -1
		}
		for _, m := range b.LegalMoves(b.kings[a]) {
			if m.Kind == Castling && (m.To.Col-m.From.Col)*dir > 0 {
				return m, nil
			}
		}
		return nil, fmt.Errorf("no legal castling move %q", orig)
	}

	promo := Queen
	hasPromo := false
	if idx := strings.Index(s, "="); idx >= 0 && idx+1 < len(s) {
		promo = PromotionKind(s[idx+1:])
		hasPromo = true
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	kind := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		k, ok := ParseKind(string(s[0]))
		if !ok {
			return nil, fmt.Errorf("invalid piece in %q", orig)
		}
		kind = k
		s = s[1:]
	}

	if len(s) < 2 {
		return nil, fmt.Errorf("invalid SAN %q", orig)
	}
	dest, err := ParsePosition(s[len(s)-2:])
	if err != nil {
		return nil, err
	}
	s = s[:len(s)-2]

	fileHint, rowHint := -1, -1
	for _, c := range s {
		if c >= 'a' && c <= 'h' {
			fileHint = int(c - 'a')
		} else if c >= '1' && c <= '8' {
			rowHint = int('8' - c)
		}
	}

	for _, m := range b.AllPossibleMoves(a) {
		if m.To != dest || b.PieceAt(m.From).Kind != kind {
			continue
		}
		if fileHint >= 0 && m.From.Col != fileHint {
			continue
		}
		if rowHint >= 0 && m.From.Row != rowHint {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if m.Kind == Promotion && hasPromo {
			m.SetPromotion(promo)
		}
		return m, nil
	}
	return nil, fmt.Errorf("no legal move matches %q", orig)
}
