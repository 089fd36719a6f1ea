// Package engine implements move scoring and a depth-limited minimax
// search with alpha-beta pruning.
package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessgui/internal/board"
)

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Move  *board.Move
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 1 ply
	Medium                   // 2 ply
	Hard                     // 3 ply
)

// DifficultyDepth maps difficulty to search depth.
var DifficultyDepth = map[Difficulty]int{
	Easy:   1,
	Medium: 2,
	Hard:   3,
}

// HintDepth is the default depth of advisory searches.
const HintDepth = 1

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseDifficulty parses "easy", "medium" or "hard".
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(s) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// Engine is the chess AI engine.
type Engine struct {
	searcher   *Searcher
	difficulty Difficulty

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine at Medium difficulty.
func NewEngine() *Engine {
	return &Engine{
		searcher:   NewSearcher(),
		difficulty: Medium,
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Difficulty returns the engine difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// Depth returns the search depth of the current difficulty.
func (e *Engine) Depth() int {
	if d, ok := DifficultyDepth[e.difficulty]; ok {
		return d
	}
	return DifficultyDepth[Medium]
}

// BestMove finds the best move for side searching depth plies. The board is
// restored before returning. The move is nil if side has no legal moves.
func (e *Engine) BestMove(b *board.Board, side board.Alliance, depth int) (*board.Move, SearchInfo) {
	start := time.Now()
	move, score := e.searcher.Search(b, side, depth)

	info := SearchInfo{
		Depth: depth,
		Score: score,
		Nodes: e.searcher.Nodes(),
		Time:  time.Since(start),
		Move:  move,
	}
	if e.OnInfo != nil {
		e.OnInfo(info)
	}
	return move, info
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(b *board.Board, side board.Alliance, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := b.AllPossibleMoves(side)
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		b.Execute(m)
		nodes += e.Perft(b, side.Opposite(), depth-1)
		b.Undo(m)
	}

	return nodes
}

// Evaluate returns the static evaluation of the board for side.
func (e *Engine) Evaluate(b *board.Board, side board.Alliance) int {
	return Evaluate(b, side)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + strconv.Itoa(mateIn)
	}
	if score < -MateScore+MaxPly {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + strconv.Itoa(mateIn)
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	cp := strconv.Itoa(centipawns)
	if centipawns < 10 {
		cp = "0" + cp
	}
	return sign + strconv.Itoa(pawns) + "." + cp
}
