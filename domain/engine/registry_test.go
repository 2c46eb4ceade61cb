package engine

import (
	"encoding/json"
	"testing"
)

type stubTemplate struct{ id string }

func (s stubTemplate) TemplateID() string                    { return s.id }
func (s stubTemplate) Roles() []string                       { return []string{"a", "b"} }
func (s stubTemplate) InitialState() State                   { return nil }
func (s stubTemplate) LegalActions(State, string) []string    { return nil }
func (s stubTemplate) ApplyAction(st State, _, _ string) (State, error) { return st, nil }
func (s stubTemplate) IsTerminal(State) bool                  { return false }
func (s stubTemplate) ViewState(st State, _ string) State     { return st }
func (s stubTemplate) EncodeState(State) (json.RawMessage, error) { return nil, nil }
func (s stubTemplate) DecodeState(json.RawMessage) (State, error) { return nil, nil }

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(stubTemplate{id: "rps.v1"}, stubTemplate{id: "chess.v1"})

	if _, ok := reg.Lookup("rps.v1"); !ok {
		t.Fatal("expected rps.v1 to resolve")
	}
	if _, ok := reg.Lookup("unknown"); ok {
		t.Fatal("expected unknown template id to miss")
	}
	if len(reg.IDs()) != 2 {
		t.Fatalf("IDs() length = %d, want 2", len(reg.IDs()))
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate template id")
		}
	}()
	NewRegistry(stubTemplate{id: "dup"}, stubTemplate{id: "dup"})
}

func TestRoleSet(t *testing.T) {
	set := RoleSet(stubTemplate{id: "x"})
	if _, ok := set["a"]; !ok {
		t.Fatal("expected role a in set")
	}
	if _, ok := set["missing"]; ok {
		t.Fatal("did not expect role missing in set")
	}
}
