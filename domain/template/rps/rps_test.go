package rps

import "testing"

func TestInitialStateIsCommitPhase(t *testing.T) {
	tpl := New()
	st := tpl.InitialState()
	if tpl.IsTerminal(st) {
		t.Fatal("initial state must not be terminal")
	}
	for _, role := range tpl.Roles() {
		if len(tpl.LegalActions(st, role)) != 3 {
			t.Fatalf("expected 3 legal actions for %s, got %v", role, tpl.LegalActions(st, role))
		}
	}
}

func TestHappyPath(t *testing.T) {
	tpl := New()
	st := tpl.InitialState()

	st, err := tpl.ApplyAction(st, RolePlayer1, ChoiceRock)
	if err != nil {
		t.Fatalf("player_1 rock: %v", err)
	}
	if tpl.IsTerminal(st) {
		t.Fatal("must not be terminal after one commit")
	}
	if len(tpl.LegalActions(st, RolePlayer1)) != 0 {
		t.Fatal("player_1 must have no legal actions after committing")
	}
	view2 := tpl.ViewState(st, RolePlayer2)
	if view2.(gameState).Choices[RolePlayer1] != choiceHidden {
		t.Fatalf("player_2 must not see player_1's committed choice, got %v", view2)
	}

	st, err = tpl.ApplyAction(st, RolePlayer2, ChoiceScissors)
	if err != nil {
		t.Fatalf("player_2 scissors: %v", err)
	}
	if !tpl.IsTerminal(st) {
		t.Fatal("must be terminal once both choices are revealed")
	}
	gs := st.(gameState)
	if gs.Phase != PhaseReveal {
		t.Fatalf("phase = %s, want reveal", gs.Phase)
	}
	if gs.Result != ResultPlayer1Wins {
		t.Fatalf("result = %s, want %s (rock beats scissors)", gs.Result, ResultPlayer1Wins)
	}
}

func TestDoubleSubmitFails(t *testing.T) {
	tpl := New()
	st := tpl.InitialState()

	st, err := tpl.ApplyAction(st, RolePlayer1, ChoiceRock)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := tpl.ApplyAction(st, RolePlayer1, ChoicePaper); err == nil {
		t.Fatal("expected second submission by the same role to fail")
	}
	// State must be unchanged by the rejected attempt.
	gs := st.(gameState)
	if gs.Choices[RolePlayer1] != ChoiceRock {
		t.Fatalf("choice mutated by rejected action: %v", gs.Choices)
	}
}

func TestDraw(t *testing.T) {
	tpl := New()
	st := tpl.InitialState()
	st, _ = tpl.ApplyAction(st, RolePlayer1, ChoicePaper)
	st, _ = tpl.ApplyAction(st, RolePlayer2, ChoicePaper)
	gs := st.(gameState)
	if gs.Result != ResultDraw {
		t.Fatalf("result = %s, want draw", gs.Result)
	}
	if !tpl.IsTerminal(st) {
		t.Fatal("draw must be terminal; no auto-replay at the template level")
	}
	if len(tpl.LegalActions(st, RolePlayer1)) != 0 || len(tpl.LegalActions(st, RolePlayer2)) != 0 {
		t.Fatal("terminal state must have no legal actions for any role")
	}
}

func TestViewStateIdempotent(t *testing.T) {
	tpl := New()
	st := tpl.InitialState()
	st, _ = tpl.ApplyAction(st, RolePlayer1, ChoiceRock)

	once := tpl.ViewState(st, RolePlayer2)
	twice := tpl.ViewState(once, RolePlayer2)
	g1 := once.(gameState)
	g2 := twice.(gameState)
	if g1.Choices[RolePlayer1] != g2.Choices[RolePlayer1] || g1.Phase != g2.Phase {
		t.Fatalf("ViewState not idempotent: %v vs %v", g1, g2)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tpl := New()
	st := tpl.InitialState()
	st, _ = tpl.ApplyAction(st, RolePlayer1, ChoiceRock)

	doc, err := tpl.EncodeState(st)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := tpl.DecodeState(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.(gameState).Choices[RolePlayer1] != ChoiceRock {
		t.Fatalf("round trip lost data: %v", decoded)
	}
}
