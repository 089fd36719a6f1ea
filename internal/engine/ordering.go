package engine

import (
	"sort"

	"github.com/hailam/chessgui/internal/board"
)

// Move ordering priorities
const (
	PromotionScore = 1000 // Promotions first
	CaptureBase    = 100  // Captures ahead of quiet moves
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0},       // King can't be captured
}

// scoreMove ranks a move that has not been executed yet.
func scoreMove(b *board.Board, m *board.Move) int {
	score := 0
	if m.Kind == board.Promotion {
		score += PromotionScore + int(m.Promote)
	}
	if m.IsCapture() {
		attacker := b.PieceAt(m.From)
		if victim := b.PieceAt(m.To); attacker != nil && victim != nil {
			score += CaptureBase + mvvLva[victim.Kind][attacker.Kind]
		}
	}
	return score
}

// orderMoves sorts moves best-first. Equal moves keep generation order.
func orderMoves(b *board.Board, moves []*board.Move) {
	scores := make(map[*board.Move]int, len(moves))
	for _, m := range moves {
		scores[m] = scoreMove(b, m)
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return scores[moves[i]] > scores[moves[j]]
	})
}
