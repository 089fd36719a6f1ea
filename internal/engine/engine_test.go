package engine

import (
	"testing"

	"github.com/hailam/chessgui/internal/board"
)

func mustParseFEN(t *testing.T, fen string) (*board.Board, board.Alliance) {
	t.Helper()
	b, side, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b, side
}

func TestSearchBasic(t *testing.T) {
	b := board.NewStandard()
	eng := NewEngine()
	eng.SetDifficulty(Easy)

	move, _ := eng.BestMove(b, board.White, eng.Depth())
	if move == nil {
		t.Fatal("BestMove returned no move for starting position")
	}
	t.Logf("Best move: %s", move.String())

	if got := b.ToFEN(board.White); got != board.StartFEN {
		t.Errorf("search changed the board: %s", got)
	}
}

func TestSearchPrefersSingleCapture(t *testing.T) {
	// The rook can take the undefended knight; every other move is quiet.
	b, side := mustParseFEN(t, "k7/8/8/8/8/8/n7/R6K w - - 0 1")
	eng := NewEngine()

	move, _ := eng.BestMove(b, side, 1)
	if move == nil {
		t.Fatal("no move found")
	}
	if move.Kind != board.Attack || move.String() != "a1a2" {
		t.Errorf("BestMove = %s (%s), want the capture a1a2", move, move.Kind)
	}
}

func TestSearchFindsMateInOne(t *testing.T) {
	b, side := mustParseFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	eng := NewEngine()

	for depth := 1; depth <= 3; depth++ {
		move, info := eng.BestMove(b, side, depth)
		if move == nil || move.String() != "a1a8" {
			t.Errorf("depth %d: BestMove = %v, want a1a8", depth, move)
		}
		if info.Score != MateScore-1 {
			t.Errorf("depth %d: score = %d, want %d", depth, info.Score, MateScore-1)
		}
		if got := ScoreToString(info.Score); got != "Mate in 1" {
			t.Errorf("depth %d: ScoreToString = %q", depth, got)
		}
	}
}

func TestSearchAvoidsMateInOne(t *testing.T) {
	// Black threatens Ra1# against the boxed in king.
	b, side := mustParseFEN(t, "r5k1/5ppp/8/8/8/8/5PPP/6K1 w - - 0 1")
	eng := NewEngine()

	move, info := eng.BestMove(b, side, 2)
	if move == nil {
		t.Fatal("no move found")
	}
	if info.Score <= -MateScore+MaxPly {
		t.Errorf("BestMove %s walks into mate (score %d)", move, info.Score)
	}
}

func TestSearchNoMoves(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want int
	}{
		{"checkmated", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", -MateScore},
		{"stalemated", "k7/8/1Q6/8/8/8/8/7K b - - 0 1", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, side := mustParseFEN(t, tc.fen)
			move, info := NewEngine().BestMove(b, side, 2)
			if move != nil {
				t.Errorf("expected no move, got %s", move)
			}
			if info.Score != tc.want {
				t.Errorf("score = %d, want %d", info.Score, tc.want)
			}
		})
	}
}

func TestSearchRestoresBoard(t *testing.T) {
	fen := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	b, side := mustParseFEN(t, fen)

	NewEngine().BestMove(b, side, 2)

	if got := b.ToFEN(side); got != fen {
		t.Errorf("board changed:\n got %s\nwant %s", got, fen)
	}
}

func TestOnInfo(t *testing.T) {
	b := board.NewStandard()
	eng := NewEngine()

	var calls []SearchInfo
	eng.OnInfo = func(info SearchInfo) {
		calls = append(calls, info)
	}
	move, _ := eng.BestMove(b, board.White, 2)

	if len(calls) != 1 {
		t.Fatalf("OnInfo called %d times, want 1", len(calls))
	}
	if calls[0].Depth != 2 || calls[0].Move != move || calls[0].Nodes == 0 {
		t.Errorf("unexpected info %+v", calls[0])
	}
}

func TestDifficulty(t *testing.T) {
	eng := NewEngine()
	if eng.Depth() != DifficultyDepth[Medium] {
		t.Errorf("default depth = %d", eng.Depth())
	}

	for _, d := range []Difficulty{Easy, Medium, Hard} {
		parsed, err := ParseDifficulty(d.String())
		if err != nil || parsed != d {
			t.Errorf("ParseDifficulty(%q) = %v, %v", d.String(), parsed, err)
		}
		eng.SetDifficulty(d)
		if eng.Depth() != DifficultyDepth[d] {
			t.Errorf("%s depth = %d", d, eng.Depth())
		}
	}

	if _, err := ParseDifficulty("impossible"); err == nil {
		t.Error("Expected error for unknown difficulty")
	}
}

func TestPerft(t *testing.T) {
	b := board.NewStandard()
	eng := NewEngine()
	if got := eng.Perft(b, board.White, 2); got != 400 {
		t.Errorf("Perft(2) = %d, want 400", got)
	}
}

func TestMoveOrdering(t *testing.T) {
	// Pawn takes queen should come before rook takes pawn, both before quiet moves.
	b, side := mustParseFEN(t, "4k3/8/8/3q4/4P3/8/7p/4K2R w - - 0 1")
	moves := b.AllPossibleMoves(side)
	orderMoves(b, moves)

	if moves[0].String() != "e4d5" {
		t.Errorf("first move = %s, want e4d5", moves[0])
	}
	if moves[1].String() != "h1h2" {
		t.Errorf("second move = %s, want h1h2", moves[1])
	}
	for _, m := range moves[2:] {
		if m.IsCapture() {
			t.Errorf("capture %s ordered after quiet moves", m)
		}
	}
}

func TestEvaluateSymmetric(t *testing.T) {
	b := board.NewStandard()
	if got := Evaluate(b, board.White); got != 0 {
		t.Errorf("Evaluate(start) = %d, want 0", got)
	}
	if got := ScoreToString(125); got != "1.25" {
		t.Errorf("ScoreToString(125) = %q", got)
	}
	if got := ScoreToString(-5); got != "-0.05" {
		t.Errorf("ScoreToString(-5) = %q", got)
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{1030, "10.30"},
		{-250, "-2.50"},
		{MateScore - 3, "Mate in 2"},
		{-(MateScore - 2), "Mated in 1"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
