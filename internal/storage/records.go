package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hailam/chessgui/internal/board"
)

var ErrMalformedRecord = errors.New("malformed move record")

// Record is one persisted move. Coordinates are board rows and columns,
// row 0 being Black's back rank.
type Record struct {
	Kind     board.MoveKind
	From, To board.Position

	RookFrom, RookTo board.Position // Castling
	Promote          string         // Promotion piece name as written
}

// NewRecord describes m for persistence.
func NewRecord(m *board.Move) Record {
	r := Record{Kind: m.Kind, From: m.From, To: m.To}
	switch m.Kind {
	case board.Castling:
		r.RookFrom, r.RookTo = m.Rook.From, m.Rook.To
	case board.Promotion:
		r.Promote = m.Promote.String()
	}
	return r
}

// String returns the record line, e.g. "AttackMove 6 4 1 4".
func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.Kind.String())
	writePos := func(p board.Position) {
		fmt.Fprintf(&sb, " %d %d", p.Row, p.Col)
	}
	writePos(r.From)
	writePos(r.To)
	switch r.Kind {
	case board.Castling:
		writePos(r.RookFrom)
		writePos(r.RookTo)
	case board.Promotion:
		sb.WriteString(" ")
		sb.WriteString(r.Promote)
	}
	return sb.String()
}

// Build reconstructs the move against the live board. The inner move of a
// promotion is a capture when the destination is occupied. Unknown
// promotion pieces become a queen.
func (r Record) Build(b *board.Board) (*board.Move, error) {
	if !r.From.Valid() || !r.To.Valid() {
		return nil, fmt.Errorf("%w: %s: square off the board", ErrMalformedRecord, r)
	}
	if b.IsEmpty(r.From) {
		return nil, fmt.Errorf("%w: %s: no piece on %s", ErrMalformedRecord, r, r.From)
	}

	switch r.Kind {
	case board.Simple:
		return board.NewSimpleMove(r.From, r.To), nil
	case board.Attack:
		return board.NewAttackMove(r.From, r.To), nil
	case board.Castling:
		if !r.RookFrom.Valid() || !r.RookTo.Valid() {
			return nil, fmt.Errorf("%w: %s: rook square off the board", ErrMalformedRecord, r)
		}
		return board.NewCastlingMove(r.From, r.To, r.RookFrom, r.RookTo), nil
	case board.Promotion:
		inner := board.NewSimpleMove(r.From, r.To)
		if !b.IsEmpty(r.To) {
			inner = board.NewAttackMove(r.From, r.To)
		}
		return board.NewPromotionMove(inner, board.PromotionKind(r.Promote)), nil
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedRecord, r.Kind)
}

// EncodeMoves writes one record line per move.
func EncodeMoves(w io.Writer, moves []*board.Move) error {
	bw := bufio.NewWriter(w)
	for _, m := range moves {
		if _, err := fmt.Fprintln(bw, NewRecord(m)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeRecords reads records until EOF. Records are whitespace separated
// tokens, so line breaks are not significant.
func DecodeRecords(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}
	nextPos := func(tag string) (board.Position, error) {
		var coords [2]int
		for i := range coords {
			tok, ok := next()
			if !ok {
				return board.NoPosition, fmt.Errorf("%w: truncated %s", ErrMalformedRecord, tag)
			}
			n, err := strconv.Atoi(tok)
			if err != nil {
				return board.NoPosition, fmt.Errorf("%w: %s: bad coordinate %q", ErrMalformedRecord, tag, tok)
			}
			coords[i] = n
		}
		return board.Pos(coords[0], coords[1]), nil
	}

	var records []Record
	for {
		tag, ok := next()
		if !ok {
			break
		}

		var rec Record
		switch tag {
		case board.Simple.String():
			rec.Kind = board.Simple
		case board.Attack.String():
			rec.Kind = board.Attack
		case board.Castling.String():
			rec.Kind = board.Castling
		case board.Promotion.String():
			rec.Kind = board.Promotion
		default:
			return nil, fmt.Errorf("%w: unknown tag %q", ErrMalformedRecord, tag)
		}

		var err error
		if rec.From, err = nextPos(tag); err != nil {
			return nil, err
		}
		if rec.To, err = nextPos(tag); err != nil {
			return nil, err
		}
		switch rec.Kind {
		case board.Castling:
			if rec.RookFrom, err = nextPos(tag); err != nil {
				return nil, err
			}
			if rec.RookTo, err = nextPos(tag); err != nil {
				return nil, err
			}
		case board.Promotion:
			name, ok := next()
			if !ok {
				return nil, fmt.Errorf("%w: truncated %s", ErrMalformedRecord, tag)
			}
			rec.Promote = name
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
