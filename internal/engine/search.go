package engine

import (
	"github.com/hailam/chessgui/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Searcher performs a depth-limited minimax search with alpha-beta pruning.
// Moves are executed and undone on the board in place, so the board must
// not be touched by anything else while a search runs.
type Searcher struct {
	root  board.Alliance
	nodes uint64
}

// NewSearcher creates a new searcher.
func NewSearcher() *Searcher {
	return &Searcher{}
}

// Nodes returns the number of nodes visited by the last search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search returns the best move for side and its score from side's point of
// view. The move is nil when side has no legal moves.
func (s *Searcher) Search(b *board.Board, side board.Alliance, depth int) (*board.Move, int) {
	s.root = side
	s.nodes = 0
	if depth < 1 {
		depth = 1
	}
	if depth > MaxPly {
		depth = MaxPly
	}

	moves := b.AllPossibleMoves(side)
	if len(moves) == 0 {
		return nil, s.terminal(b, side, 0)
	}
	orderMoves(b, moves)

	alpha, beta := -Infinity, Infinity
	var best *board.Move
	bestScore := -Infinity
	for _, m := range moves {
		b.Execute(m)
		score := s.minimax(b, m, depth-1, 1, alpha, beta, false)
		b.Undo(m)

		if best == nil || score > bestScore {
			best, bestScore = m, score
		}
		alpha = max(alpha, score)
	}
	return best, bestScore
}

// minimax scores the board after last was played. The maximizing side is
// the root side.
func (s *Searcher) minimax(b *board.Board, last *board.Move, depth, ply, alpha, beta int, maximizing bool) int {
	s.nodes++

	if depth <= 0 {
		return s.leaf(b, last, ply)
	}

	side := s.root
	if !maximizing {
		side = side.Opposite()
	}

	moves := b.AllPossibleMoves(side)
	if len(moves) == 0 {
		return s.terminal(b, side, ply)
	}
	orderMoves(b, moves)

	if maximizing {
		best := -Infinity
		for _, m := range moves {
			b.Execute(m)
			eval := s.minimax(b, m, depth-1, ply+1, alpha, beta, false)
			b.Undo(m)
			best = max(best, eval)
			alpha = max(alpha, eval)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := Infinity
	for _, m := range moves {
		b.Execute(m)
		eval := s.minimax(b, m, depth-1, ply+1, alpha, beta, true)
		b.Undo(m)
		best = min(best, eval)
		beta = min(beta, eval)
		if beta <= alpha {
			break
		}
	}
	return best
}

// leaf converts the evaluator's score of last to the root side's view.
// Mates found closer to the root score higher.
func (s *Searcher) leaf(b *board.Board, last *board.Move, ply int) int {
	score := ScoreMove(b, last)
	if score >= MateScore {
		score = MateScore - ply
	}
	if last.Mover().Alliance != s.root {
		score = -score
	}
	return score
}

// terminal scores a node where side has no legal moves.
func (s *Searcher) terminal(b *board.Board, side board.Alliance, ply int) int {
	if !b.IsKingInCheck(side) {
		return 0
	}
	if side == s.root {
		return -MateScore + ply
	}
	return MateScore - ply
}
