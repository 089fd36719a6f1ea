package game

import (
	"fmt"

	"github.com/hailam/chessgui/internal/board"
)

// MoveRecord rebuilds a persisted move against the live board.
type MoveRecord interface {
	Build(b *board.Board) (*board.Move, error)
}

// Replay plays records in order on top of the current position. A record
// that cannot be rebuilt, or does not describe a legal move for the side to
// move, fails the whole replay and the session is rolled back to where it
// was before the call.
func (s *Session) Replay(records []MoveRecord) error {
	redo := s.redo
	applied := 0

	rollback := func() {
		for ; applied > 0; applied-- {
			s.Undo()
		}
		s.redo = redo
	}

	for i, rec := range records {
		if s.status.Terminal() {
			rollback()
			return fmt.Errorf("%w: record %d: %v", ErrCorruptRecord, i+1, ErrGameOver)
		}
		built, err := rec.Build(s.board)
		if err != nil {
			rollback()
			return fmt.Errorf("%w: record %d: %v", ErrCorruptRecord, i+1, err)
		}
		m := s.legalMatch(built)
		if m == nil {
			rollback()
			return fmt.Errorf("%w: record %d: %s is not legal for %s", ErrCorruptRecord, i+1, built, s.current)
		}
		s.apply(m)
		applied++
	}
	s.logger.Printf("[MOVE] Replayed %d moves", applied)
	return nil
}

// legalMatch finds the legal move of the side to move that built describes.
func (s *Session) legalMatch(built *board.Move) *board.Move {
	p := s.board.PieceAt(built.From)
	if p == nil || p.Alliance != s.current {
		return nil
	}
	for _, m := range s.board.LegalMoves(built.From) {
		if m.To != built.To || m.Kind != built.Kind {
			continue
		}
		switch m.Kind {
		case board.Castling:
			if m.Rook.From != built.Rook.From || m.Rook.To != built.Rook.To {
				continue
			}
		case board.Promotion:
			m.SetPromotion(built.Promote)
		}
		return m
	}
	return nil
}
