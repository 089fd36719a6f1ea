package board

// MoveKind tags the shape of a Move.
type MoveKind uint8

const (
	Simple MoveKind = iota
	Attack
	Castling
	Promotion
)

// String returns the record tag of the move kind.
func (k MoveKind) String() string {
	switch k {
	case Simple:
		return "Move"
	case Attack:
		return "AttackMove"
	case Castling:
		return "CastlingMove"
	case Promotion:
		return "PawnPromotionMove"
	default:
		return "Unknown"
	}
}

// Move is a reversible board transformation.
//
// Simple and Attack moves relocate the piece on From to To. Castling moves
// relocate the king and carry the rook's sub-move in Rook. Promotion moves
// wrap a Simple or Attack pawn move in Inner and replace the pawn with a new
// piece of kind Promote.
//
// The unexported fields are filled in by Board.Execute and read back by
// Board.Undo, so a move can be executed again after being undone.
type Move struct {
	Kind     MoveKind
	From, To Position

	Rook    *Move // Castling
	Inner   *Move // Promotion
	Promote Kind  // Promotion

	mover     *Piece
	prevMoved bool
	captured  *Piece // Attack
	pawn      *Piece // Promotion
}

// NewSimpleMove creates a non-capturing move.
func NewSimpleMove(from, to Position) *Move {
	return &Move{Kind: Simple, From: from, To: to}
}

// NewAttackMove creates a capturing move.
func NewAttackMove(from, to Position) *Move {
	return &Move{Kind: Attack, From: from, To: to}
}

// NewCastlingMove creates a castling move from the king and rook relocations.
func NewCastlingMove(kingFrom, kingTo, rookFrom, rookTo Position) *Move {
	return &Move{
		Kind: Castling,
		From: kingFrom,
		To:   kingTo,
		Rook: NewSimpleMove(rookFrom, rookTo),
	}
}

// NewPromotionMove wraps a pawn move reaching the last rank.
func NewPromotionMove(inner *Move, k Kind) *Move {
	m := &Move{Kind: Promotion, From: inner.From, To: inner.To, Inner: inner}
	m.SetPromotion(k)
	return m
}

// SetPromotion chooses the promotion target. Kinds a pawn cannot become
// fall back to Queen.
func (m *Move) SetPromotion(k Kind) {
	if !k.Promotable() {
		k = Queen
	}
	m.Promote = k
}

// IsCapture reports whether the move removes an enemy piece.
func (m *Move) IsCapture() bool {
	return m.Kind == Attack || (m.Kind == Promotion && m.Inner.Kind == Attack)
}

// Captured returns the piece taken by the last execution, or nil.
func (m *Move) Captured() *Piece {
	switch m.Kind {
	case Attack:
		return m.captured
	case Promotion:
		return m.Inner.Captured()
	}
	return nil
}

// Mover returns the piece moved by the last execution, or nil if the move
// has never been executed. For promotions this is the pawn.
func (m *Move) Mover() *Piece {
	if m.Kind == Promotion {
		return m.Inner.mover
	}
	return m.mover
}

// String returns the move in coordinate notation, e.g. "e2e4" or "e7e8q".
func (m *Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Kind == Promotion {
		s += string(m.Promote.Char())
	}
	return s
}

// Execute applies m to the board.
func (b *Board) Execute(m *Move) {
	switch m.Kind {
	case Simple:
		b.relocate(m)
	case Attack:
		m.captured = b.PieceAt(m.To)
		b.relocate(m)
	case Castling:
		b.relocate(m)
		b.Execute(m.Rook)
	case Promotion:
		b.Execute(m.Inner)
		m.pawn = b.PieceAt(m.To)
		promoted := NewPiece(m.Promote, m.pawn.Alliance)
		promoted.HasMoved = true
		b.Place(m.To, promoted)
	}
}

// Undo reverts the most recent execution of m. Moves must be undone in the
// reverse order they were executed.
func (b *Board) Undo(m *Move) {
	switch m.Kind {
	case Simple:
		b.restore(m)
	case Attack:
		b.restore(m)
		b.Place(m.To, m.captured)
	case Castling:
		b.Undo(m.Rook)
		b.restore(m)
	case Promotion:
		b.Place(m.To, m.pawn)
		b.Undo(m.Inner)
	}
}

func (b *Board) relocate(m *Move) {
	p := b.PieceAt(m.From)
	m.mover = p
	m.prevMoved = p.HasMoved
	b.MovePiece(m.From, m.To)
	p.HasMoved = true
}

func (b *Board) restore(m *Move) {
	b.MovePiece(m.To, m.From)
	m.mover.HasMoved = m.prevMoved
}

// Simulate executes m, evaluates fn against the resulting board and reverts
// m before returning, even if fn panics.
func Simulate[T any](b *Board, m *Move, fn func() T) T {
	b.Execute(m)
	defer b.Undo(m)
	return fn()
}
