package chess

import "fmt"

// Move is a fully-specified chess move, the oracle's internal currency.
// UCI() renders it as the wire format the template exchanges with the
// arbiter (spec §4.4: "Actions are UCI move strings including promotion
// suffix").
type Move struct {
	From, To    Square
	Promotion   Piece // Empty unless this move promotes a pawn
	IsEnPassant bool
	IsCastle    bool
}

// UCI renders m as a UCI move string, e.g. "e2e4" or "a7a8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != Empty {
		s += string(byte(toLowerPromotion(m.Promotion)))
	}
	return s
}

func toLowerPromotion(p Piece) Piece {
	switch p {
	case WhiteQueen, BlackQueen:
		return 'q'
	case WhiteRook, BlackRook:
		return 'r'
	case WhiteBishop, BlackBishop:
		return 'b'
	case WhiteKnight, BlackKnight:
		return 'n'
	}
	return p
}

// parseUCI parses a UCI move string against pos, resolving promotion piece
// case and castling/en-passant flags by consulting the board.
func parseUCI(pos Position, uci string) (Move, error) {
	if len(uci) < 4 || len(uci) > 5 {
		return Move{}, fmt.Errorf("chess: malformed UCI move %q", uci)
	}
	from, err := parseSquare(uci[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := parseSquare(uci[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{From: from, To: to}

	if len(uci) == 5 {
		letter := uci[4]
		if pos.ToMove == White {
			m.Promotion = Piece(upperByte(letter))
		} else {
			m.Promotion = Piece(lowerByte(letter))
		}
	}

	piece := pos.Board[from]
	if (piece == WhitePawn || piece == BlackPawn) && to == pos.EnPassant && pos.EnPassant != noSquare && from.file() != to.file() {
		m.IsEnPassant = true
	}
	if piece == WhiteKing || piece == BlackKing {
		if (from == squareOf(4, 0) && (to == squareOf(6, 0) || to == squareOf(2, 0))) ||
			(from == squareOf(4, 7) && (to == squareOf(6, 7) || to == squareOf(2, 7))) {
			m.IsCastle = true
		}
	}
	return m, nil
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 32
	}
	return b
}
func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

var knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// pseudoLegalMoves generates every move for the side to move without
// checking whether it leaves that side's own king in check.
func pseudoLegalMoves(pos Position) []Move {
	var moves []Move
	for sq := Square(0); sq < 64; sq++ {
		piece := pos.Board[sq]
		if piece == Empty {
			continue
		}
		if pos.ToMove == White && !piece.IsWhite() {
			continue
		}
		if pos.ToMove == Black && !piece.IsBlack() {
			continue
		}
		switch piece {
		case WhitePawn, BlackPawn:
			moves = append(moves, pawnMoves(pos, sq)...)
		case WhiteKnight, BlackKnight:
			moves = append(moves, jumpMoves(pos, sq, knightOffsets[:])...)
		case WhiteKing, BlackKing:
			moves = append(moves, jumpMoves(pos, sq, kingOffsets[:])...)
			moves = append(moves, castleMoves(pos, sq)...)
		case WhiteBishop, BlackBishop:
			moves = append(moves, slideMoves(pos, sq, bishopDirs[:])...)
		case WhiteRook, BlackRook:
			moves = append(moves, slideMoves(pos, sq, rookDirs[:])...)
		case WhiteQueen, BlackQueen:
			moves = append(moves, slideMoves(pos, sq, bishopDirs[:])...)
			moves = append(moves, slideMoves(pos, sq, rookDirs[:])...)
		}
	}
	return moves
}

func ownPiece(pos Position, p Piece) bool {
	if pos.ToMove == White {
		return p.IsWhite()
	}
	return p.IsBlack()
}

func enemyPiece(pos Position, p Piece) bool {
	if pos.ToMove == White {
		return p.IsBlack()
	}
	return p.IsWhite()
}

func pawnMoves(pos Position, from Square) []Move {
	var moves []Move
	dir := 1
	startRank := 1
	promoRank := 7
	if pos.ToMove == Black {
		dir = -1
		startRank = 6
		promoRank = 0
	}
	file, rank := from.file(), from.rank()

	addPromoAware := func(to Square) {
		if to.rank() == promoRank {
			for _, promo := range promotionPieces(pos.ToMove) {
				moves = append(moves, Move{From: from, To: to, Promotion: promo})
			}
			return
		}
		moves = append(moves, Move{From: from, To: to})
	}

	one := squareOf(file, rank+dir)
	if one != noSquare && pos.Board[one] == Empty {
		addPromoAware(one)
		if rank == startRank {
			two := squareOf(file, rank+2*dir)
			if two != noSquare && pos.Board[two] == Empty {
				moves = append(moves, Move{From: from, To: two})
			}
		}
	}

	for _, df := range []int{-1, 1} {
		to := squareOf(file+df, rank+dir)
		if to == noSquare {
			continue
		}
		if enemyPiece(pos, pos.Board[to]) {
			addPromoAware(to)
		} else if to == pos.EnPassant && pos.EnPassant != noSquare {
			moves = append(moves, Move{From: from, To: to, IsEnPassant: true})
		}
	}
	return moves
}

func promotionPieces(c Color) []Piece {
	if c == White {
		return []Piece{WhiteQueen, WhiteRook, WhiteBishop, WhiteKnight}
	}
	return []Piece{BlackQueen, BlackRook, BlackBishop, BlackKnight}
}

func jumpMoves(pos Position, from Square, offsets []([2]int)) []Move {
	var moves []Move
	file, rank := from.file(), from.rank()
	for _, off := range offsets {
		to := squareOf(file+off[0], rank+off[1])
		if to == noSquare {
			continue
		}
		if ownPiece(pos, pos.Board[to]) {
			continue
		}
		moves = append(moves, Move{From: from, To: to})
	}
	return moves
}

func slideMoves(pos Position, from Square, dirs []([2]int)) []Move {
	var moves []Move
	file, rank := from.file(), from.rank()
	for _, dir := range dirs {
		f, r := file+dir[0], rank+dir[1]
		for {
			to := squareOf(f, r)
			if to == noSquare {
				break
			}
			occupant := pos.Board[to]
			if occupant == Empty {
				moves = append(moves, Move{From: from, To: to})
				f += dir[0]
				r += dir[1]
				continue
			}
			if enemyPiece(pos, occupant) {
				moves = append(moves, Move{From: from, To: to})
			}
			break
		}
	}
	return moves
}

func castleMoves(pos Position, kingSq Square) []Move {
	var moves []Move
	if pos.ToMove == White && kingSq == squareOf(4, 0) {
		if pos.Castling.WhiteKingside &&
			pos.Board[squareOf(5, 0)] == Empty && pos.Board[squareOf(6, 0)] == Empty &&
			pos.Board[squareOf(7, 0)] == WhiteRook &&
			!squareAttacked(pos, squareOf(4, 0), Black) && !squareAttacked(pos, squareOf(5, 0), Black) && !squareAttacked(pos, squareOf(6, 0), Black) {
			moves = append(moves, Move{From: kingSq, To: squareOf(6, 0), IsCastle: true})
		}
		if pos.Castling.WhiteQueenside &&
			pos.Board[squareOf(3, 0)] == Empty && pos.Board[squareOf(2, 0)] == Empty && pos.Board[squareOf(1, 0)] == Empty &&
			pos.Board[squareOf(0, 0)] == WhiteRook &&
			!squareAttacked(pos, squareOf(4, 0), Black) && !squareAttacked(pos, squareOf(3, 0), Black) && !squareAttacked(pos, squareOf(2, 0), Black) {
			moves = append(moves, Move{From: kingSq, To: squareOf(2, 0), IsCastle: true})
		}
	}
	if pos.ToMove == Black && kingSq == squareOf(4, 7) {
		if pos.Castling.BlackKingside &&
			pos.Board[squareOf(5, 7)] == Empty && pos.Board[squareOf(6, 7)] == Empty &&
			pos.Board[squareOf(7, 7)] == BlackRook &&
			!squareAttacked(pos, squareOf(4, 7), White) && !squareAttacked(pos, squareOf(5, 7), White) && !squareAttacked(pos, squareOf(6, 7), White) {
			moves = append(moves, Move{From: kingSq, To: squareOf(6, 7), IsCastle: true})
		}
		if pos.Castling.BlackQueenside &&
			pos.Board[squareOf(3, 7)] == Empty && pos.Board[squareOf(2, 7)] == Empty && pos.Board[squareOf(1, 7)] == Empty &&
			pos.Board[squareOf(0, 7)] == BlackRook &&
			!squareAttacked(pos, squareOf(4, 7), White) && !squareAttacked(pos, squareOf(3, 7), White) && !squareAttacked(pos, squareOf(2, 7), White) {
			moves = append(moves, Move{From: kingSq, To: squareOf(2, 7), IsCastle: true})
		}
	}
	return moves
}

// squareAttacked reports whether by's side attacks sq in pos.
func squareAttacked(pos Position, sq Square, by Color) bool {
	attackerPawn := WhitePawn
	pawnDir := -1 // direction *from* the attacking pawn *to* sq
	if by == Black {
		attackerPawn = BlackPawn
		pawnDir = 1
	}
	for _, df := range []int{-1, 1} {
		from := squareOf(sq.file()+df, sq.rank()+pawnDir)
		if from != noSquare && pos.Board[from] == attackerPawn {
			return true
		}
	}

	for _, off := range knightOffsets {
		from := squareOf(sq.file()+off[0], sq.rank()+off[1])
		if from == noSquare {
			continue
		}
		p := pos.Board[from]
		if (by == White && p == WhiteKnight) || (by == Black && p == BlackKnight) {
			return true
		}
	}

	for _, off := range kingOffsets {
		from := squareOf(sq.file()+off[0], sq.rank()+off[1])
		if from == noSquare {
			continue
		}
		p := pos.Board[from]
		if (by == White && p == WhiteKing) || (by == Black && p == BlackKing) {
			return true
		}
	}

	diagPieces := map[Piece]bool{WhiteBishop: true, WhiteQueen: true}
	if by == Black {
		diagPieces = map[Piece]bool{BlackBishop: true, BlackQueen: true}
	}
	for _, dir := range bishopDirs {
		f, r := sq.file()+dir[0], sq.rank()+dir[1]
		for {
			cur := squareOf(f, r)
			if cur == noSquare {
				break
			}
			p := pos.Board[cur]
			if p == Empty {
				f += dir[0]
				r += dir[1]
				continue
			}
			if diagPieces[p] {
				return true
			}
			break
		}
	}

	straightPieces := map[Piece]bool{WhiteRook: true, WhiteQueen: true}
	if by == Black {
		straightPieces = map[Piece]bool{BlackRook: true, BlackQueen: true}
	}
	for _, dir := range rookDirs {
		f, r := sq.file()+dir[0], sq.rank()+dir[1]
		for {
			cur := squareOf(f, r)
			if cur == noSquare {
				break
			}
			p := pos.Board[cur]
			if p == Empty {
				f += dir[0]
				r += dir[1]
				continue
			}
			if straightPieces[p] {
				return true
			}
			break
		}
	}

	return false
}

func kingSquare(pos Position, c Color) Square {
	king := WhiteKing
	if c == Black {
		king = BlackKing
	}
	for sq := Square(0); sq < 64; sq++ {
		if pos.Board[sq] == king {
			return sq
		}
	}
	return noSquare
}

// applyMove returns the position after m is played, without validating
// legality. Castling rights, en passant target, half/fullmove counters, and
// rook/king relocation for castling are all handled here.
func applyMove(pos Position, m Move) Position {
	next := pos.clone()
	mover := pos.Board[m.From]

	next.EnPassant = noSquare
	if m.IsEnPassant {
		capturedRank := m.From.rank()
		next.Board[squareOf(m.To.file(), capturedRank)] = Empty
	}
	if mover == WhitePawn || mover == BlackPawn {
		if abs(m.To.rank()-m.From.rank()) == 2 {
			mid := (m.To.rank() + m.From.rank()) / 2
			next.EnPassant = squareOf(m.From.file(), mid)
		}
	}

	next.Board[m.From] = Empty
	if m.Promotion != Empty {
		next.Board[m.To] = m.Promotion
	} else {
		next.Board[m.To] = mover
	}

	if m.IsCastle {
		rank := m.From.rank()
		if m.To.file() == 6 {
			next.Board[squareOf(5, rank)] = next.Board[squareOf(7, rank)]
			next.Board[squareOf(7, rank)] = Empty
		} else if m.To.file() == 2 {
			next.Board[squareOf(3, rank)] = next.Board[squareOf(0, rank)]
			next.Board[squareOf(0, rank)] = Empty
		}
	}

	switch m.From {
	case squareOf(4, 0):
		next.Castling.WhiteKingside = false
		next.Castling.WhiteQueenside = false
	case squareOf(4, 7):
		next.Castling.BlackKingside = false
		next.Castling.BlackQueenside = false
	case squareOf(0, 0):
		next.Castling.WhiteQueenside = false
	case squareOf(7, 0):
		next.Castling.WhiteKingside = false
	case squareOf(0, 7):
		next.Castling.BlackQueenside = false
	case squareOf(7, 7):
		next.Castling.BlackKingside = false
	}
	switch m.To {
	case squareOf(0, 0):
		next.Castling.WhiteQueenside = false
	case squareOf(7, 0):
		next.Castling.WhiteKingside = false
	case squareOf(0, 7):
		next.Castling.BlackQueenside = false
	case squareOf(7, 7):
		next.Castling.BlackKingside = false
	}

	if mover == WhitePawn || mover == BlackPawn || pos.Board[m.To] != Empty || m.IsEnPassant {
		next.Halfmove = 0
	} else {
		next.Halfmove = pos.Halfmove + 1
	}
	if pos.ToMove == Black {
		next.Fullmove = pos.Fullmove + 1
	}
	next.ToMove = pos.ToMove.Opponent()
	return next
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// legalMoves filters pseudoLegalMoves down to moves that do not leave the
// mover's own king in check.
func legalMoves(pos Position) []Move {
	var legal []Move
	for _, m := range pseudoLegalMoves(pos) {
		next := applyMove(pos, m)
		if !squareAttacked(next, kingSquare(next, pos.ToMove), pos.ToMove.Opponent()) {
			legal = append(legal, m)
		}
	}
	return legal
}

func inCheck(pos Position, c Color) bool {
	return squareAttacked(pos, kingSquare(pos, c), c.Opponent())
}

// insufficientMaterial reports whether neither side has enough material to
// deliver checkmate (K vs K, K+minor vs K).
func insufficientMaterial(pos Position) bool {
	var minorCount int
	for _, p := range pos.Board {
		switch p {
		case Empty, WhiteKing, BlackKing:
			continue
		case WhiteBishop, WhiteKnight, BlackBishop, BlackKnight:
			minorCount++
		default:
			return false
		}
	}
	return minorCount <= 1
}
