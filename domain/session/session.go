// Package session implements the session store (spec §4.5): session and
// participant persistence, the action log, and the read-side operations
// that compose a stored state document with a template's view_state and
// legal_actions.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arbiter-games/coordinator/domain/engine"
)

// Status mirrors a session row's `status` column.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is a row in the sessions table, with State left as the raw
// encoded document; callers that need a decoded engine.State go through
// a Template's DecodeState.
type Session struct {
	ID         string
	TemplateID string
	State      json.RawMessage
	Status     Status
	Tick       int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Participant binds one agent to one role within a session.
type Participant struct {
	SessionID string
	AgentID   string
	Role      string
}

// LogEntry is an immutable, append-only row in the actions table.
type LogEntry struct {
	ActionID  string
	SessionID string
	AgentID   string
	Role      string
	Action    json.RawMessage
	Tick      int64
	CreatedAt time.Time
}

// Store is the transactional persistence boundary for sessions,
// participants, and the action log (spec §4.5). Every method is atomic;
// Store implementations do not know about templates.
type Store interface {
	// CreateSession inserts a session row plus its participant bindings in
	// one transaction. bindings maps role name to a bound agent id, or ""
	// for a role left open. initialState and templateID are supplied by
	// the caller, which has already consulted the template registry.
	CreateSession(ctx context.Context, templateID string, initialState json.RawMessage, bindings map[string]string) (Session, error)

	// JoinSession binds an open role to an agent. roleCount is the total
	// number of roles the session's template declares, supplied by the
	// caller (which has access to the template registry) so the store
	// can decide whether every role is now bound. Returns the updated
	// session and whether status transitioned to active as a result.
	JoinSession(ctx context.Context, sessionID, agentID, role string, roleCount int) (Session, bool, error)

	// GetSession loads a session row by id.
	GetSession(ctx context.Context, sessionID string) (Session, error)

	// Participants returns every participant binding for a session.
	Participants(ctx context.Context, sessionID string) ([]Participant, error)

	// RoleOf returns the role agentID holds in sessionID, or ok=false if
	// the agent is not a participant.
	RoleOf(ctx context.Context, sessionID, agentID string) (role string, ok bool, err error)

	// ListForAgent returns sessions the agent is bound to, most recently
	// updated first.
	ListForAgent(ctx context.Context, agentID string) ([]Session, error)

	// ReadLog returns log entries for a session ordered by ascending tick.
	ReadLog(ctx context.Context, sessionID string) ([]LogEntry, error)

	// CommitAction applies the arbiter's decided transition atomically:
	// updates state/tick/status and appends the log entry, in one
	// transaction. oldTick is the tick the caller observed and must still
	// match the stored tick, or a CONFLICT error is returned (the arbiter
	// holds the per-session lock so this should never race in practice;
	// it exists as a defensive invariant check).
	CommitAction(ctx context.Context, sessionID string, oldTick int64, newState json.RawMessage, terminal bool, entry LogEntry) (Session, error)
}

// RoleSet returns the set of roles a template declares, for validating
// CreateSession bindings against engine.Template.Roles().
func RoleSet(t engine.Template) map[string]struct{} {
	return engine.RoleSet(t)
}
