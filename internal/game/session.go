// Package game drives a chess game: piece selection, move application,
// undo/redo history, automated play and hints.
package game

import (
	"errors"
	"log"

	"github.com/hailam/chessgui/internal/board"
	"github.com/hailam/chessgui/internal/engine"
)

var (
	ErrGameOver         = errors.New("game is over")
	ErrNotAutomatedTurn = errors.New("side to move is not automated")
	ErrNoMoves          = errors.New("no legal moves")
	ErrCorruptRecord    = errors.New("corrupt move record")
)

// Player is one side of the game.
type Player struct {
	Alliance  board.Alliance
	Automated bool
}

// Session owns a board, the player to move, the current selection and the
// move history of one game.
type Session struct {
	board   *board.Board
	players [2]Player
	current board.Alliance

	selected board.Position
	targets  []*board.Move

	history  []*board.Move
	notation []string
	redo     []*board.Move

	status Status

	observer Observer
	promote  PromotionFunc
	engine   *engine.Engine
	logger   *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithObserver sets the receiver of session notifications.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithPromotion sets how promotion pieces are chosen for moves made
// through Select.
func WithPromotion(f PromotionFunc) Option {
	return func(s *Session) { s.promote = f }
}

// WithAutomated marks a side as played by the engine.
func WithAutomated(a board.Alliance) Option {
	return func(s *Session) { s.players[a].Automated = true }
}

// WithEngine sets the engine used for automated moves and hints.
func WithEngine(e *engine.Engine) Option {
	return func(s *Session) { s.engine = e }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithBoard starts the session from b with side to move.
func WithBoard(b *board.Board, side board.Alliance) Option {
	return func(s *Session) {
		s.board = b
		s.current = side
	}
}

// New creates a session on the standard starting position with White to
// move and both players human.
func New(opts ...Option) *Session {
	s := &Session{
		players: [2]Player{
			{Alliance: board.White},
			{Alliance: board.Black},
		},
		current:  board.White,
		selected: board.NoPosition,
		observer: NopObserver{},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.board == nil {
		s.board = board.NewStandard()
	}
	if s.engine == nil {
		s.engine = engine.NewEngine()
	}
	s.status = statusOf(s.board, s.current)
	return s
}

// Board returns the live board. Callers must not modify it.
func (s *Session) Board() *board.Board { return s.board }

// Current returns the side to move.
func (s *Session) Current() board.Alliance { return s.current }

// Player returns the player for alliance a.
func (s *Session) Player(a board.Alliance) Player { return s.players[a] }

// SetAutomated changes whether a side is played by the engine.
func (s *Session) SetAutomated(a board.Alliance, automated bool) {
	s.players[a].Automated = automated
}

// Engine returns the session engine.
func (s *Session) Engine() *engine.Engine { return s.engine }

// Status returns the game status for the side to move.
func (s *Session) Status() Status { return s.status }

// History returns the executed moves, oldest first.
func (s *Session) History() []*board.Move {
	return append([]*board.Move(nil), s.history...)
}

// Notation returns the executed moves in algebraic notation.
func (s *Session) Notation() []string {
	return append([]string(nil), s.notation...)
}

// RedoHistory returns the undone moves, most recently undone last.
func (s *Session) RedoHistory() []*board.Move {
	return append([]*board.Move(nil), s.redo...)
}

// Selected returns the selected tile, if any.
func (s *Session) Selected() (board.Position, bool) {
	return s.selected, s.selected != board.NoPosition
}

// Targets returns the destinations of the selected piece, or nil when
// nothing is selected.
func (s *Session) Targets() []board.Position {
	if s.selected == board.NoPosition {
		return nil
	}
	dests := make([]board.Position, len(s.targets))
	for i, m := range s.targets {
		dests[i] = m.To
	}
	return dests
}

// Select handles a tile selection by the side to move. Selecting one of its
// own pieces caches that piece's legal moves; selecting one of those
// destinations next plays the move. Anything else clears the selection.
func (s *Session) Select(pos board.Position) Status {
	if s.status.Terminal() {
		s.observer.GameEnded(s.status)
		return s.status
	}
	if s.players[s.current].Automated {
		s.clearSelection()
		return s.status
	}

	if s.selected != board.NoPosition {
		m := s.findMove(pos)
		if m == nil {
			s.clearSelection()
			return s.status
		}
		if m.Kind == board.Promotion && s.promote != nil {
			m.SetPromotion(board.PromotionKind(s.promote(s.current)))
		}
		s.apply(m)
		return s.status
	}

	p := s.board.PieceAt(pos)
	if p == nil || p.Alliance != s.current {
		s.clearSelection()
		return s.status
	}

	s.selected = pos
	s.targets = s.board.LegalMoves(pos)
	s.observer.SelectionChanged(s.Targets())
	return s.status
}

// findMove returns the cached move of the selected piece to pos.
func (s *Session) findMove(pos board.Position) *board.Move {
	for _, m := range s.targets {
		if m.To == pos {
			return m
		}
	}
	return nil
}

// ClearSelection drops the current selection, if any.
func (s *Session) ClearSelection() {
	if s.selected != board.NoPosition {
		s.clearSelection()
	}
}

func (s *Session) clearSelection() {
	s.selected = board.NoPosition
	s.targets = nil
	s.observer.SelectionChanged(nil)
}

// apply plays a fresh move. Any redo history is discarded.
func (s *Session) apply(m *board.Move) {
	s.redo = nil
	s.play(m)
}

// play executes m and announces it, ending the game if the opponent has
// no way out.
func (s *Session) play(m *board.Move) {
	mover := s.current
	san := s.board.SAN(m)
	s.board.Execute(m)

	s.history = append(s.history, m)
	s.notation = append(s.notation, san)
	s.current = s.current.Opposite()
	s.clearSelection()

	s.logger.Printf("[MOVE] %s: %s (%s)", mover, san, m)
	s.observer.MoveMade(m, s.History())

	s.status = statusOf(s.board, s.current)
	if s.status.Terminal() {
		s.logger.Printf("[MOVE] Game over: %s", s.status)
		s.observer.GameEnded(s.status)
	}
}

// Undo reverts the last move and pushes it onto the redo stack. It reports
// false when there is nothing to undo.
func (s *Session) Undo() bool {
	n := len(s.history)
	if n == 0 {
		return false
	}
	m := s.history[n-1]
	s.history = s.history[:n-1]
	s.notation = s.notation[:n-1]

	s.board.Undo(m)
	s.redo = append(s.redo, m)
	s.current = s.current.Opposite()
	s.clearSelection()
	s.status = statusOf(s.board, s.current)

	s.logger.Printf("[MOVE] Undo %s", m)
	s.observer.MoveUndone(m, s.History())
	return true
}

// Redo replays the most recently undone move. It reports false when there
// is nothing to redo.
func (s *Session) Redo() bool {
	n := len(s.redo)
	if n == 0 {
		return false
	}
	m := s.redo[n-1]
	s.redo = s.redo[:n-1]
	s.play(m)
	return true
}

// PlayAutomated lets the engine play for the side to move, searching depth
// plies. Promotions made this way are to a queen.
func (s *Session) PlayAutomated(depth int) (*board.Move, error) {
	if s.status.Terminal() {
		s.observer.GameEnded(s.status)
		return nil, ErrGameOver
	}
	if !s.players[s.current].Automated {
		return nil, ErrNotAutomatedTurn
	}

	s.logger.Printf("[AI] Thinking for %s at depth %d", s.current, depth)
	m, info := s.engine.BestMove(s.board, s.current, depth)
	if m == nil {
		return nil, ErrNoMoves
	}
	s.logger.Printf("[AI] Best move %s score %s (%d nodes, %v)",
		m, engine.ScoreToString(info.Score), info.Nodes, info.Time)

	s.apply(m)
	return m, nil
}

// Hint returns the move the engine would play for the side to move. The
// move is not played.
func (s *Session) Hint(depth int) (*board.Move, error) {
	if s.status.Terminal() {
		return nil, ErrGameOver
	}
	m, info := s.engine.BestMove(s.board, s.current, depth)
	if m == nil {
		return nil, ErrNoMoves
	}
	s.logger.Printf("[Assist] Hint for %s: %s (%s)",
		s.current, m, engine.ScoreToString(info.Score))
	return m, nil
}
