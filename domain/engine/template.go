// Package engine defines the state-machine contract every game template
// satisfies (spec §4.3) and the registry that resolves a template id to an
// implementation (spec §4.2).
package engine

import "encoding/json"

// State is an opaque, template-defined document. The arbiter and session
// store only ever move State values between a Template and the persistence
// layer; they never inspect or mutate one. Each Template implementation
// defines its own concrete type satisfying State and knows how to encode and
// decode it at the storage boundary (spec §9, "dynamic state documents").
type State interface{}

// Template is the capability set every game template satisfies. All methods
// are pure: same input always produces the same output, no I/O, no mutation
// of the state passed in.
type Template interface {
	// TemplateID returns the stable string this template is registered under.
	TemplateID() string

	// Roles returns the fixed, ordered set of role names for this template.
	Roles() []string

	// InitialState returns a fresh, deterministic starting state.
	InitialState() State

	// LegalActions returns the actions role may take in state. Empty means
	// role cannot act right now. Order is deterministic but not meaningful.
	LegalActions(state State, role string) []string

	// ApplyAction returns the successor state after role takes action. It
	// fails if action is not currently legal for role.
	ApplyAction(state State, role string, action string) (State, error)

	// IsTerminal reports whether state is a final position.
	IsTerminal(state State) bool

	// ViewState hides information role should not see. Idempotent:
	// ViewState(ViewState(s, r), r) == ViewState(s, r).
	ViewState(state State, role string) State

	// EncodeState serializes state to the document stored alongside the
	// session row.
	EncodeState(state State) (json.RawMessage, error)

	// DecodeState parses a previously-encoded document back into this
	// template's concrete state type.
	DecodeState(doc json.RawMessage) (State, error)
}

// RoleSet returns template's declared roles as a set, for membership checks.
func RoleSet(t Template) map[string]struct{} {
	set := make(map[string]struct{}, len(t.Roles()))
	for _, r := range t.Roles() {
		set[r] = struct{}{}
	}
	return set
}
