package game

import "github.com/hailam/chessgui/internal/board"

// Observer receives session notifications. Calls are made synchronously on
// the goroutine that drives the session.
type Observer interface {
	// MoveMade is called after a move has been executed, with the full
	// updated history.
	MoveMade(m *board.Move, history []*board.Move)
	// MoveUndone is called after a move has been reverted.
	MoveUndone(m *board.Move, history []*board.Move)
	// SelectionChanged reports the destinations of a newly selected piece.
	// A nil slice means the selection was cleared.
	SelectionChanged(targets []board.Position)
	// GameEnded reports a terminal status.
	GameEnded(status Status)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) MoveMade(*board.Move, []*board.Move)   {}
func (NopObserver) MoveUndone(*board.Move, []*board.Move) {}
func (NopObserver) SelectionChanged([]board.Position)     {}
func (NopObserver) GameEnded(Status)                      {}

// PromotionFunc asks for the piece a pawn of the given alliance promotes to.
// It returns a piece name; anything other than queen, rook, bishop or knight
// promotes to a queen.
type PromotionFunc func(a board.Alliance) string
