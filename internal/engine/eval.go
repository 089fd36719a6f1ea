package engine

import (
	"github.com/hailam/chessgui/internal/board"
)

// Evaluation terms
const (
	CheckBonus     = 100 // Opponent king in check
	PromotionBonus = 100 // Rating of a promotion
	CaptureBonus   = 50  // Base rating of a capture, plus a tenth of the victim's value
	CastlingBonus  = 50  // Rating of castling
	QuietBonus     = 1   // Rating of any other move
	DangerPenalty  = -50 // Opponent can capture on the destination
)

// ScoreMove scores the board after m has been executed, from the point of
// view of the side that played m. A move that checkmates the opponent
// returns MateScore.
func ScoreMove(b *board.Board, m *board.Move) int {
	us := m.Mover().Alliance
	them := us.Opposite()

	if b.IsCheckMate(them) {
		return MateScore
	}

	ourMoves := b.AllPossibleMoves(us)
	theirMoves := b.AllPossibleMoves(them)

	score := sideValue(b, us, len(ourMoves)) - sideValue(b, them, len(theirMoves))
	score += rateMove(m)
	score += moveDanger(m, theirMoves)
	return score
}

// sideValue sums material, mobility and the check bonus for one side.
func sideValue(b *board.Board, a board.Alliance, mobility int) int {
	v := b.Material(a) + mobility
	if b.IsKingInCheck(a.Opposite()) {
		v += CheckBonus
	}
	return v
}

// rateMove gives a constant rating per move kind.
func rateMove(m *board.Move) int {
	switch {
	case m.Kind == board.Promotion:
		return PromotionBonus
	case m.Kind == board.Attack:
		bonus := CaptureBonus
		if victim := m.Captured(); victim != nil {
			bonus += victim.Value() / 10
		}
		return bonus
	case m.Kind == board.Castling:
		return CastlingBonus
	}
	return QuietBonus
}

// moveDanger penalizes landing on a square the opponent can capture on.
func moveDanger(m *board.Move, theirMoves []*board.Move) int {
	for _, reply := range theirMoves {
		if reply.IsCapture() && reply.To == m.To {
			return DangerPenalty
		}
	}
	return 0
}

// Evaluate returns the static balance of material and mobility for side.
func Evaluate(b *board.Board, side board.Alliance) int {
	them := side.Opposite()
	score := b.Material(side) - b.Material(them)
	score += len(b.AllPossibleMoves(side)) - len(b.AllPossibleMoves(them))
	return score
}
