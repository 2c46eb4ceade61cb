package chess

import "fmt"

// Outcome mirrors the chess template's `outcome` field (spec §4.4).
type Outcome string

const (
	OutcomeNone       Outcome = ""
	OutcomeWhiteWins  Outcome = "white_wins"
	OutcomeBlackWins  Outcome = "black_wins"
	OutcomeDraw       Outcome = "draw"
)

// Oracle is the external chess legality oracle the template delegates to
// (spec §4.4, §9 "Chess legality oracle"). It knows nothing about sessions,
// roles, or the arbiter; it only understands positions and UCI moves. This
// implementation generates moves natively, per spec §9's explicit fallback
// when no chess library is available in the dependency pack.
type Oracle struct{}

// NewOracle returns the native move-generation oracle.
func NewOracle() Oracle { return Oracle{} }

// LegalMoves returns the legal UCI moves available to the side to move in
// pos. Empty when that side is checkmated or stalemated; a position drawn
// by insufficient material still lists its moves.
func (Oracle) LegalMoves(pos Position) []string {
	moves := legalMoves(pos)
	ucis := make([]string, 0, len(moves))
	for _, m := range moves {
		ucis = append(ucis, m.UCI())
	}
	return ucis
}

// Apply plays uci against pos and returns the resulting position plus any
// terminal outcome. It fails if uci is not currently legal.
func (o Oracle) Apply(pos Position, uci string) (Position, Outcome, error) {
	candidate, err := parseUCI(pos, uci)
	if err != nil {
		return Position{}, OutcomeNone, err
	}

	var matched *Move
	for _, m := range legalMoves(pos) {
		if m.UCI() == candidate.UCI() {
			mCopy := m
			matched = &mCopy
			break
		}
	}
	if matched == nil {
		return Position{}, OutcomeNone, fmt.Errorf("chess: %q is not a legal move", uci)
	}

	next := applyMove(pos, *matched)
	outcome := o.outcomeFor(next)
	return next, outcome, nil
}

// outcomeFor reports the terminal outcome for next, or OutcomeNone if play
// continues. next.ToMove is the side about to move in the new position.
func (o Oracle) outcomeFor(next Position) Outcome {
	mover := next.ToMove
	if len(legalMoves(next)) == 0 {
		if inCheck(next, mover) {
			if mover == White {
				return OutcomeBlackWins
			}
			return OutcomeWhiteWins
		}
		return OutcomeDraw
	}
	if insufficientMaterial(next) {
		return OutcomeDraw
	}
	return OutcomeNone
}
