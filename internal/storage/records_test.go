package storage

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/game"
)

// specialGame plays O-O, Kd8 and bxa8=N from a prepared position.
func specialGame(t *testing.T) *game.Session {
	t.Helper()
	b, side, err := board.ParseFEN("r3k3/1P6/8/8/8/8/8/4K2R w K - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	s := game.New(
		game.WithLogger(log.New(io.Discard, "", 0)),
		game.WithBoard(b, side),
		game.WithPromotion(func(board.Alliance) string { return "knight" }),
	)
	for _, mv := range [][2]string{{"e1", "g1"}, {"e8", "d8"}, {"b7", "a8"}} {
		from, _ := board.ParsePosition(mv[0])
		to, _ := board.ParsePosition(mv[1])
		s.Select(from)
		s.Select(to)
	}
	if n := len(s.History()); n != 3 {
		t.Fatalf("played %d moves, want 3", n)
	}
	return s
}

func TestEncodeMoves(t *testing.T) {
	s := specialGame(t)

	var buf bytes.Buffer
	if err := EncodeMoves(&buf, s.History()); err != nil {
		t.Fatalf("EncodeMoves: %v", err)
	}

	want := "CastlingMove 7 4 7 6 7 7 7 5\n" +
		"Move 0 4 0 3\n" +
		"PawnPromotionMove 1 1 0 0 Knight\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecords(t *testing.T) {
	input := "Move 6 4 4 4\nAttackMove 3 3 4 4 \n" +
		"CastlingMove 0 4 0 2 0 0 0 3\nPawnPromotionMove 1 0 0 1 queen\n"

	got, err := DecodeRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	want := []Record{
		{Kind: board.Simple, From: board.Pos(6, 4), To: board.Pos(4, 4)},
		{Kind: board.Attack, From: board.Pos(3, 3), To: board.Pos(4, 4)},
		{Kind: board.Castling, From: board.Pos(0, 4), To: board.Pos(0, 2),
			RookFrom: board.Pos(0, 0), RookTo: board.Pos(0, 3)},
		{Kind: board.Promotion, From: board.Pos(1, 0), To: board.Pos(0, 1), Promote: "queen"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecordsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown tag", "Teleport 6 4 4 4"},
		{"truncated move", "Move 6 4 4"},
		{"bad coordinate", "AttackMove 6 x 4 4"},
		{"truncated castling", "CastlingMove 7 4 7 6 7 7"},
		{"missing promotion piece", "PawnPromotionMove 1 0 0 0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRecords(strings.NewReader(tc.input))
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("err = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestRecordBuild(t *testing.T) {
	b, _, err := board.ParseFEN("1r2k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		rec       Record
		kind      board.MoveKind
		innerKind board.MoveKind
		promote   board.Kind
	}{
		{"promotion push", Record{Kind: board.Promotion, From: board.Pos(1, 0), To: board.Pos(0, 0), Promote: "Rook"},
			board.Promotion, board.Simple, board.Rook},
		{"promotion capture", Record{Kind: board.Promotion, From: board.Pos(1, 0), To: board.Pos(0, 1), Promote: "Bishop"},
			board.Promotion, board.Attack, board.Bishop},
		{"unknown promotion piece", Record{Kind: board.Promotion, From: board.Pos(1, 0), To: board.Pos(0, 0), Promote: "Pawn"},
			board.Promotion, board.Simple, board.Queen},
		{"king step", Record{Kind: board.Simple, From: board.Pos(7, 4), To: board.Pos(7, 3)},
			board.Simple, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.rec.Build(b)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if m.Kind != tc.kind {
				t.Errorf("kind = %s, want %s", m.Kind, tc.kind)
			}
			if m.Kind == board.Promotion {
				if m.Inner.Kind != tc.innerKind {
					t.Errorf("inner kind = %s, want %s", m.Inner.Kind, tc.innerKind)
				}
				if m.Promote != tc.promote {
					t.Errorf("promote = %s, want %s", m.Promote, tc.promote)
				}
			}
		})
	}

	bad := []Record{
		{Kind: board.Simple, From: board.Pos(4, 4), To: board.Pos(3, 4)},
		{Kind: board.Attack, From: board.Pos(8, 0), To: board.Pos(0, 0)},
		{Kind: board.Castling, From: board.Pos(7, 4), To: board.Pos(7, 6), RookFrom: board.Pos(7, 9), RookTo: board.Pos(7, 5)},
	}
	for _, rec := range bad {
		if _, err := rec.Build(b); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("Build(%s): err = %v, want ErrMalformedRecord", rec, err)
		}
	}
}

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := SavePath(dir, "endgame")
	if filepath.Ext(path) != SaveExt {
		t.Fatalf("SavePath = %s", path)
	}

	played := specialGame(t)
	if err := SaveFile(path, played.History()); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	// Overwriting keeps a single file in the directory.
	if err := SaveFile(path, played.History()); err != nil {
		t.Fatalf("SaveFile again: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("save dir has %d entries, want 1", len(entries))
	}

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	b, side, _ := board.ParseFEN("r3k3/1P6/8/8/8/8/8/4K2R w K - 0 1")
	loaded := game.New(game.WithLogger(log.New(io.Discard, "", 0)), game.WithBoard(b, side))
	if err := loaded.Replay(MoveRecords(records)); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if got, want := loaded.Board().ToFEN(loaded.Current()), played.Board().ToFEN(played.Current()); got != want {
		t.Errorf("loaded position = %s, want %s", got, want)
	}
	if p := loaded.Board().PieceAt(board.Pos(0, 0)); p == nil || p.Kind != board.Knight {
		t.Errorf("a8 = %v, want the promoted knight", p)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.sav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.sav")
	if err := os.WriteFile(corrupt, []byte("Move 6 4 4 4\nMove 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(corrupt); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("corrupt file: err = %v", err)
	}
}
