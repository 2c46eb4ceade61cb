package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// Piece identifies the occupant of a square. Zero value is empty.
type Piece byte

const (
	Empty Piece = 0

	WhitePawn   Piece = 'P'
	WhiteKnight Piece = 'N'
	WhiteBishop Piece = 'B'
	WhiteRook   Piece = 'R'
	WhiteQueen  Piece = 'Q'
	WhiteKing   Piece = 'K'

	BlackPawn   Piece = 'p'
	BlackKnight Piece = 'n'
	BlackBishop Piece = 'b'
	BlackRook   Piece = 'r'
	BlackQueen  Piece = 'q'
	BlackKing   Piece = 'k'
)

// IsWhite reports whether p is a white piece.
func (p Piece) IsWhite() bool { return p != Empty && p >= 'A' && p <= 'Z' }

// IsBlack reports whether p is a black piece.
func (p Piece) IsBlack() bool { return p != Empty && p >= 'a' && p <= 'z' }

// Color is one side to move.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Square is a board index 0..63, file + rank*8 (a1 == 0, h8 == 63).
type Square int

const noSquare Square = -1

func squareOf(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return noSquare
	}
	return Square(rank*8 + file)
}

func (s Square) file() int { return int(s) % 8 }
func (s Square) rank() int { return int(s) / 8 }

func (s Square) String() string {
	if s == noSquare {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+s.file(), s.rank()+1)
}

func parseSquare(alg string) (Square, error) {
	if alg == "-" || alg == "" {
		return noSquare, nil
	}
	if len(alg) != 2 {
		return noSquare, fmt.Errorf("chess: invalid square %q", alg)
	}
	file := int(alg[0] - 'a')
	rank := int(alg[1] - '1')
	sq := squareOf(file, rank)
	if sq == noSquare {
		return noSquare, fmt.Errorf("chess: invalid square %q", alg)
	}
	return sq, nil
}

// Castling tracks remaining castling rights.
type Castling struct {
	WhiteKingside, WhiteQueenside bool
	BlackKingside, BlackQueenside bool
}

func (c Castling) String() string {
	var b strings.Builder
	if c.WhiteKingside {
		b.WriteByte('K')
	}
	if c.WhiteQueenside {
		b.WriteByte('Q')
	}
	if c.BlackKingside {
		b.WriteByte('k')
	}
	if c.BlackQueenside {
		b.WriteByte('q')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// Position is the full state a FEN string encodes.
type Position struct {
	Board      [64]Piece
	ToMove     Color
	Castling   Castling
	EnPassant  Square
	Halfmove   int
	Fullmove   int
}

// StartingPosition returns the standard chess starting position.
func StartingPosition() Position {
	pos, err := ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		panic("chess: invalid built-in starting FEN: " + err.Error())
	}
	return pos
}

// ParseFEN decodes a Forsyth-Edwards Notation string into a Position.
func ParseFEN(fen string) (Position, error) {
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) != 6 {
		return Position{}, fmt.Errorf("chess: FEN must have 6 fields, got %d", len(fields))
	}

	var pos Position
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Position{}, fmt.Errorf("chess: FEN board must have 8 ranks")
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, ch := range rankStr {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			if file > 7 {
				return Position{}, fmt.Errorf("chess: FEN rank %d overflows", i)
			}
			pos.Board[squareOf(file, rank)] = Piece(ch)
			file++
		}
		if file != 8 {
			return Position{}, fmt.Errorf("chess: FEN rank %d has wrong length", i)
		}
	}

	switch fields[1] {
	case "w":
		pos.ToMove = White
	case "b":
		pos.ToMove = Black
	default:
		return Position{}, fmt.Errorf("chess: invalid side to move %q", fields[1])
	}

	pos.Castling = Castling{
		WhiteKingside:  strings.Contains(fields[2], "K"),
		WhiteQueenside: strings.Contains(fields[2], "Q"),
		BlackKingside:  strings.Contains(fields[2], "k"),
		BlackQueenside: strings.Contains(fields[2], "q"),
	}

	ep, err := parseSquare(fields[3])
	if err != nil {
		return Position{}, err
	}
	pos.EnPassant = ep

	half, err := strconv.Atoi(fields[4])
	if err != nil {
		return Position{}, fmt.Errorf("chess: invalid halfmove clock: %w", err)
	}
	pos.Halfmove = half

	full, err := strconv.Atoi(fields[5])
	if err != nil {
		return Position{}, fmt.Errorf("chess: invalid fullmove number: %w", err)
	}
	pos.Fullmove = full

	return pos, nil
}

// FEN encodes the position back to Forsyth-Edwards Notation.
func (p Position) FEN() string {
	var ranks []string
	for rank := 7; rank >= 0; rank-- {
		var b strings.Builder
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.Board[squareOf(file, rank)]
			if piece == Empty {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			b.WriteByte(byte(piece))
		}
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
		}
		ranks = append(ranks, b.String())
	}

	side := "w"
	if p.ToMove == Black {
		side = "b"
	}

	return fmt.Sprintf("%s %s %s %s %d %d",
		strings.Join(ranks, "/"), side, p.Castling.String(), p.EnPassant.String(), p.Halfmove, p.Fullmove)
}

func (p Position) clone() Position {
	return p
}
