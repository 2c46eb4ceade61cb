// Package arbiter implements the submission path (spec §4.6): the one
// operation that touches every invariant in the system. Submit executes
// the ten-step sequence under a per-session exclusive lock.
package arbiter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arbiter-games/coordinator/applications/notifier"
	"github.com/arbiter-games/coordinator/domain/engine"
	"github.com/arbiter-games/coordinator/domain/identity"
	"github.com/arbiter-games/coordinator/domain/session"
	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
)

// Arbiter wires together the identity store, session store, template
// registry, lock table, and notifier that Submit coordinates.
type Arbiter struct {
	identity   identity.Store
	sessions   session.Store
	registry   *engine.Registry
	notify     *notifier.Notifier
	locks      *lockTable
	sequential map[string]struct{}
}

// New builds an Arbiter. shardCount sizes the per-session lock table
// (spec §5); it need not relate to expected session count, only to
// acceptable lock contention. sequentialTemplateIDs lists the templates
// that require expected_tick (spec §4.6 step 5); templates not listed
// are treated as simultaneous, relying on legal_actions for
// duplicate-submission detection instead.
func New(identityStore identity.Store, sessionStore session.Store, registry *engine.Registry, notify *notifier.Notifier, shardCount int, sequentialTemplateIDs ...string) *Arbiter {
	seq := make(map[string]struct{}, len(sequentialTemplateIDs))
	for _, id := range sequentialTemplateIDs {
		seq[id] = struct{}{}
	}
	return &Arbiter{
		identity:   identityStore,
		sessions:   sessionStore,
		registry:   registry,
		notify:     notify,
		locks:      newLockTable(shardCount),
		sequential: seq,
	}
}

// Result is Submit's successful outcome (step 10, "Respond").
type Result struct {
	Tick   int64
	State  engine.State
	Status session.Status
}

// Submit runs the full authenticate→respond sequence for one action
// submission. expectedTick is nil for simultaneous templates, where it
// is ignored; sequential templates require it to match the session's
// current tick exactly.
func (a *Arbiter) Submit(ctx context.Context, bearerSecret, sessionID, action string, expectedTick *int64) (Result, error) {
	// 1. Authenticate.
	if bearerSecret == "" {
		return Result{}, apperrors.NewUnauthorized("missing bearer secret")
	}
	agentID, ok, err := a.identity.Resolve(ctx, bearerSecret)
	if err != nil {
		return Result{}, fmt.Errorf("arbiter: resolve bearer: %w", err)
	}
	if !ok {
		return Result{}, apperrors.NewUnauthorized("bearer secret does not resolve to an agent")
	}

	unlock := a.locks.Lock(sessionID)
	defer unlock()

	// 2. Load.
	sess, err := a.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	// 3. Authorize.
	role, bound, err := a.sessions.RoleOf(ctx, sessionID, agentID)
	if err != nil {
		return Result{}, fmt.Errorf("arbiter: role lookup: %w", err)
	}
	if !bound {
		return Result{}, apperrors.NewForbidden("agent is not a participant in this session")
	}

	// 4. Liveness.
	switch sess.Status {
	case session.StatusCompleted:
		return Result{}, apperrors.NewInvalidAction("session is terminal")
	case session.StatusWaiting:
		return Result{}, apperrors.NewInvalidAction("session has not started")
	}

	tpl, ok := a.registry.Lookup(sess.TemplateID)
	if !ok {
		return Result{}, apperrors.NewNotFound("template", sess.TemplateID)
	}
	state, err := tpl.DecodeState(sess.State)
	if err != nil {
		return Result{}, fmt.Errorf("arbiter: decode state: %w", err)
	}

	// 5. Concurrency precondition.
	if a.isSequential(sess.TemplateID) {
		if expectedTick == nil || *expectedTick != sess.Tick {
			return Result{}, apperrors.NewConflict("expected_tick does not match the current tick")
		}
	} else {
		legal := tpl.LegalActions(state, role)
		if len(legal) == 0 {
			return Result{}, apperrors.NewAlreadyActed(role)
		}
	}

	// 6. Legality.
	legal := tpl.LegalActions(state, role)
	if !containsAction(legal, action) {
		return Result{}, apperrors.NewInvalidAction(fmt.Sprintf("action %q is not legal for role %q", action, role))
	}

	// 7. Transition.
	newState, err := tpl.ApplyAction(state, role, action)
	if err != nil {
		return Result{}, apperrors.NewInvalidAction(fmt.Sprintf("template rejected action: %v", err))
	}
	terminal := tpl.IsTerminal(newState)

	newDoc, err := tpl.EncodeState(newState)
	if err != nil {
		return Result{}, fmt.Errorf("arbiter: encode new state: %w", err)
	}

	// 8. Commit.
	actionDoc, err := json.Marshal(action)
	if err != nil {
		return Result{}, fmt.Errorf("arbiter: encode action: %w", err)
	}
	updated, err := a.sessions.CommitAction(ctx, sessionID, sess.Tick, newDoc, terminal, session.LogEntry{
		AgentID: agentID,
		Role:    role,
		Action:  actionDoc,
	})
	if err != nil {
		return Result{}, err
	}

	// 9. Notify. Outside the transaction; never rolls back the commit.
	a.notify.Publish(sessionID)

	// 10. Respond.
	return Result{
		Tick:   updated.Tick,
		State:  tpl.ViewState(newState, role),
		Status: updated.Status,
	}, nil
}

func (a *Arbiter) isSequential(templateID string) bool {
	_, ok := a.sequential[templateID]
	return ok
}

func containsAction(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
