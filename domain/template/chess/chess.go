// Package chess implements the sequential chess template (spec §4.4,
// "Sequential (Chess)"), delegating move generation and legality to an
// in-package native oracle (oracle.go) behind the interface spec §9
// describes.
package chess

import (
	"encoding/json"
	"fmt"

	"github.com/arbiter-games/coordinator/domain/engine"
)

// TemplateID is the stable registry key for this template.
const TemplateID = "chess.v1"

const (
	RoleWhite = "white"
	RoleBlack = "black"
)

// gameState is the concrete state document for chess.v1.
type gameState struct {
	Position string `json:"position"`
	Turn     string `json:"turn"`
	Outcome  string `json:"outcome,omitempty"`
}

// Template implements engine.Template for chess.
type Template struct {
	oracle Oracle
}

// New returns the chess.v1 template with the package's native oracle.
func New() Template { return Template{oracle: NewOracle()} }

func (Template) TemplateID() string { return TemplateID }

func (Template) Roles() []string { return []string{RoleWhite, RoleBlack} }

func (Template) InitialState() engine.State {
	start := StartingPosition()
	return gameState{Position: start.FEN(), Turn: string(start.ToMove)}
}

func asState(s engine.State) gameState {
	gs, ok := s.(gameState)
	if !ok {
		panic(fmt.Sprintf("chess: unexpected state type %T", s))
	}
	return gs
}

func (t Template) LegalActions(state engine.State, role string) []string {
	gs := asState(state)
	if gs.Outcome != "" || role != gs.Turn {
		return nil
	}
	pos, err := ParseFEN(gs.Position)
	if err != nil {
		return nil
	}
	return t.oracle.LegalMoves(pos)
}

func (t Template) ApplyAction(state engine.State, role string, action string) (engine.State, error) {
	gs := asState(state)
	if !contains(t.LegalActions(gs, role), action) {
		return nil, fmt.Errorf("chess: action %q not legal for %s", action, role)
	}

	pos, err := ParseFEN(gs.Position)
	if err != nil {
		return nil, fmt.Errorf("chess: decode position: %w", err)
	}
	next, outcome, err := t.oracle.Apply(pos, action)
	if err != nil {
		return nil, err
	}

	return gameState{
		Position: next.FEN(),
		Turn:     string(next.ToMove),
		Outcome:  string(outcome),
	}, nil
}

func (Template) IsTerminal(state engine.State) bool {
	return asState(state).Outcome != ""
}

// ViewState is the identity function: chess is perfect-information.
func (Template) ViewState(state engine.State, _ string) engine.State {
	return state
}

func (Template) EncodeState(state engine.State) (json.RawMessage, error) {
	return json.Marshal(asState(state))
}

func (Template) DecodeState(doc json.RawMessage) (engine.State, error) {
	var gs gameState
	if err := json.Unmarshal(doc, &gs); err != nil {
		return nil, fmt.Errorf("chess: decode state: %w", err)
	}
	return gs, nil
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

var _ engine.Template = Template{}
