// Package rps implements the simultaneous rock-paper-scissors template
// (spec §4.4, "Simultaneous (RPS)").
package rps

import (
	"encoding/json"
	"fmt"

	"github.com/arbiter-games/coordinator/domain/engine"
)

// TemplateID is the stable registry key for this template.
const TemplateID = "rps.v1"

const (
	RolePlayer1 = "player_1"
	RolePlayer2 = "player_2"
)

const (
	PhaseCommit = "commit"
	PhaseReveal = "reveal"
)

const (
	ChoiceRock     = "rock"
	ChoicePaper    = "paper"
	ChoiceScissors = "scissors"
	choiceHidden   = "hidden"
)

const (
	ResultPlayer1Wins = "player_1_wins"
	ResultPlayer2Wins = "player_2_wins"
	ResultDraw        = "draw"
)

// gameState is the concrete state document for rps.v1.
type gameState struct {
	Phase   string            `json:"phase"`
	Choices map[string]string `json:"choices"`
	Result  string            `json:"result,omitempty"`
}

func (g gameState) clone() gameState {
	choices := make(map[string]string, len(g.Choices))
	for k, v := range g.Choices {
		choices[k] = v
	}
	return gameState{Phase: g.Phase, Choices: choices, Result: g.Result}
}

// Template implements engine.Template for rock-paper-scissors.
type Template struct{}

// New returns the rps.v1 template.
func New() Template { return Template{} }

func (Template) TemplateID() string { return TemplateID }

func (Template) Roles() []string { return []string{RolePlayer1, RolePlayer2} }

func (Template) InitialState() engine.State {
	return gameState{Phase: PhaseCommit, Choices: map[string]string{}}
}

func asState(s engine.State) gameState {
	gs, ok := s.(gameState)
	if !ok {
		panic(fmt.Sprintf("rps: unexpected state type %T", s))
	}
	return gs
}

func (Template) LegalActions(state engine.State, role string) []string {
	gs := asState(state)
	if gs.Phase != PhaseCommit {
		return nil
	}
	if _, acted := gs.Choices[role]; acted {
		return nil
	}
	return []string{ChoiceRock, ChoicePaper, ChoiceScissors}
}

func (t Template) ApplyAction(state engine.State, role string, action string) (engine.State, error) {
	gs := asState(state)
	legal := t.LegalActions(gs, role)
	if !contains(legal, action) {
		return nil, fmt.Errorf("rps: action %q not legal for %s", action, role)
	}

	next := gs.clone()
	next.Choices[role] = action

	if len(next.Choices) == 2 {
		next.Phase = PhaseReveal
		next.Result = resolve(next.Choices[RolePlayer1], next.Choices[RolePlayer2])
	}
	return next, nil
}

func resolve(p1, p2 string) string {
	if p1 == p2 {
		return ResultDraw
	}
	beats := map[string]string{
		ChoiceRock:     ChoiceScissors,
		ChoiceScissors: ChoicePaper,
		ChoicePaper:    ChoiceRock,
	}
	if beats[p1] == p2 {
		return ResultPlayer1Wins
	}
	return ResultPlayer2Wins
}

func (Template) IsTerminal(state engine.State) bool {
	return asState(state).Result != ""
}

func (Template) ViewState(state engine.State, role string) engine.State {
	gs := asState(state).clone()
	if gs.Phase != PhaseCommit {
		return gs
	}
	opponent := RolePlayer2
	if role == RolePlayer2 {
		opponent = RolePlayer1
	}
	if _, present := gs.Choices[opponent]; present {
		gs.Choices[opponent] = choiceHidden
	}
	return gs
}

func (Template) EncodeState(state engine.State) (json.RawMessage, error) {
	return json.Marshal(asState(state))
}

func (Template) DecodeState(doc json.RawMessage) (engine.State, error) {
	var gs gameState
	if err := json.Unmarshal(doc, &gs); err != nil {
		return nil, fmt.Errorf("rps: decode state: %w", err)
	}
	if gs.Choices == nil {
		gs.Choices = map[string]string{}
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
