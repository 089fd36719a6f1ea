package board

// PseudoLegalMoves generates the moves of the piece on pos without checking
// whether they leave its own king in check.
func (b *Board) PseudoLegalMoves(pos Position) []*Move {
	p := b.PieceAt(pos)
	if p == nil {
		return nil
	}
	switch p.Kind {
	case Pawn:
		return b.pawnMoves(pos, p)
	case Knight:
		return b.steppingMoves(pos, p, knightJumps)
	case Bishop:
		return b.slidingMoves(pos, p, diagonalDirs)
	case Rook:
		return b.slidingMoves(pos, p, straightDirs)
	case Queen:
		return b.slidingMoves(pos, p, royalDirs)
	case King:
		return b.kingMoves(pos, p)
	}
	return nil
}

// LegalMoves generates the legal moves of the piece on pos.
func (b *Board) LegalMoves(pos Position) []*Move {
	p := b.PieceAt(pos)
	if p == nil {
		return nil
	}
	return b.removeCheckMoves(p.Alliance, b.PseudoLegalMoves(pos))
}

// AllPossibleMoves returns every legal move of a, grouped by piece in
// row-major order.
func (b *Board) AllPossibleMoves(a Alliance) []*Move {
	var moves []*Move
	for _, pl := range b.ActivePieces(a) {
		moves = append(moves, b.LegalMoves(pl.At)...)
	}
	return moves
}

// HasLegalMoves reports whether a has at least one legal move.
func (b *Board) HasLegalMoves(a Alliance) bool {
	for _, pl := range b.ActivePieces(a) {
		for _, m := range b.PseudoLegalMoves(pl.At) {
			if !b.IsCheckMoveFor(a, m) {
				return true
			}
		}
	}
	return false
}

// removeCheckMoves drops the moves that would leave a's king in check.
func (b *Board) removeCheckMoves(a Alliance, moves []*Move) []*Move {
	legal := moves[:0]
	for _, m := range moves {
		if !b.IsCheckMoveFor(a, m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// IsCheckMoveFor reports whether executing m leaves a's king in check.
// The board is unchanged on return.
func (b *Board) IsCheckMoveFor(a Alliance, m *Move) bool {
	return Simulate(b, m, func() bool {
		return b.IsKingInCheck(a)
	})
}

// IsKingInCheck reports whether a's king is attacked. A side without a king
// is never in check.
func (b *Board) IsKingInCheck(a Alliance) bool {
	k := b.kings[a]
	if !k.Valid() {
		return false
	}
	return b.IsSquareAttacked(k, a)
}

// IsStalemate reports whether a has no legal moves, in check or not.
func (b *Board) IsStalemate(a Alliance) bool {
	return !b.HasLegalMoves(a)
}

// IsCheckMate reports whether a is in check with no legal moves.
func (b *Board) IsCheckMate(a Alliance) bool {
	return b.IsKingInCheck(a) && b.IsStalemate(a)
}

// IsDrawnStalemate reports whether a has no legal moves while not in check.
func (b *Board) IsDrawnStalemate(a Alliance) bool {
	return !b.IsKingInCheck(a) && b.IsStalemate(a)
}

// IsSquareAttacked reports whether any enemy of a attacks pos.
func (b *Board) IsSquareAttacked(pos Position, a Alliance) bool {
	enemy := a.Opposite()

	// Enemy pawns attack towards us, so they sit one row ahead of pos.
	for _, dc := range [2]int{-1, 1} {
		if b.isEnemy(pos.Add(Pos(a.Forward(), dc)), enemy, Pawn) {
			return true
		}
	}

	for _, d := range straightDirs {
		if p := b.firstOccupant(pos, d); p != nil && p.Alliance == enemy && (p.Kind == Rook || p.Kind == Queen) {
			return true
		}
	}

	for _, d := range diagonalDirs {
		if p := b.firstOccupant(pos, d); p != nil && p.Alliance == enemy && (p.Kind == Bishop || p.Kind == Queen) {
			return true
		}
	}

	for _, d := range knightJumps {
		if b.isEnemy(pos.Add(d), enemy, Knight) {
			return true
		}
	}

	for _, d := range royalDirs {
		if b.isEnemy(pos.Add(d), enemy, King) {
			return true
		}
	}

	return false
}

func (b *Board) isEnemy(pos Position, enemy Alliance, k Kind) bool {
	p := b.PieceAt(pos)
	return p != nil && p.Alliance == enemy && p.Kind == k
}

// firstOccupant walks from pos in direction d and returns the first piece met.
func (b *Board) firstOccupant(pos Position, d Position) *Piece {
	for sq := pos.Add(d); sq.Valid(); sq = sq.Add(d) {
		if p := b.grid[sq.Row][sq.Col]; p != nil {
			return p
		}
	}
	return nil
}

// target classifies a destination: nil if blocked by a friendly piece or off
// the board, otherwise a Simple or Attack move.
func (b *Board) target(from, to Position, p *Piece) *Move {
	if !to.Valid() {
		return nil
	}
	occ := b.grid[to.Row][to.Col]
	switch {
	case occ == nil:
		return NewSimpleMove(from, to)
	case occ.Alliance != p.Alliance:
		return NewAttackMove(from, to)
	}
	return nil
}

func (b *Board) slidingMoves(from Position, p *Piece, dirs []Position) []*Move {
	var moves []*Move
	for _, d := range dirs {
		for to := from.Add(d); to.Valid(); to = to.Add(d) {
			m := b.target(from, to, p)
			if m == nil {
				break
			}
			moves = append(moves, m)
			if m.Kind == Attack {
				break
			}
		}
	}
	return moves
}

func (b *Board) steppingMoves(from Position, p *Piece, offsets []Position) []*Move {
	var moves []*Move
	for _, d := range offsets {
		if m := b.target(from, from.Add(d), p); m != nil {
			moves = append(moves, m)
		}
	}
	return moves
}

func (b *Board) pawnMoves(from Position, p *Piece) []*Move {
	var moves []*Move
	fwd := Pos(p.Alliance.Forward(), 0)

	one := from.Add(fwd)
	if one.Valid() && b.IsEmpty(one) {
		moves = append(moves, NewSimpleMove(from, one))
		two := one.Add(fwd)
		if !p.HasMoved && two.Valid() && b.IsEmpty(two) {
			moves = append(moves, NewSimpleMove(from, two))
		}
	}

	for _, dc := range [2]int{-1, 1} {
		to := from.Add(Pos(fwd.Row, dc))
		if occ := b.PieceAt(to); occ != nil && occ.Alliance != p.Alliance {
			moves = append(moves, NewAttackMove(from, to))
		}
	}

	for i, m := range moves {
		if b.IsHomeRankTile(m.To, p.Alliance.Opposite()) {
			moves[i] = NewPromotionMove(m, Queen)
		}
	}
	return moves
}

func (b *Board) kingMoves(from Position, p *Piece) []*Move {
	var moves []*Move
	for _, d := range royalDirs {
		m := b.target(from, from.Add(d), p)
		if m != nil && !b.IsSquareAttacked(m.To, p.Alliance) {
			moves = append(moves, m)
		}
	}
	for _, dir := range [2]int{1, -1} {
		if m := b.castlingMove(from, p, dir); m != nil {
			moves = append(moves, m)
		}
	}
	return moves
}

// castlingMove returns the castling move towards dir (+1 king side, -1 queen
// side) or nil. The king may not castle out of, through or into check.
func (b *Board) castlingMove(from Position, p *Piece, dir int) *Move {
	if p.HasMoved || !b.IsHomeRankTile(from, p.Alliance) {
		return nil
	}

	step := Pos(0, dir)
	rookAt := NoPosition
	for sq := from.Add(step); sq.Valid(); sq = sq.Add(step) {
		occ := b.grid[sq.Row][sq.Col]
		if occ == nil {
			continue
		}
		if occ.Kind == Rook && occ.Alliance == p.Alliance && !occ.HasMoved {
			rookAt = sq
		}
		break
	}
	// The king crosses two empty tiles short of the rook.
	if !rookAt.Valid() || (rookAt.Col-from.Col)*dir <= 2 {
		return nil
	}

	transit := from.Add(step)
	dest := transit.Add(step)
	if b.IsSquareAttacked(from, p.Alliance) ||
		b.IsSquareAttacked(transit, p.Alliance) ||
		b.IsSquareAttacked(dest, p.Alliance) {
		return nil
	}
	return NewCastlingMove(from, dest, rookAt, transit)
}
