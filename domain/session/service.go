package session

import (
	"context"
	"fmt"

	"github.com/arbiter-games/coordinator/domain/engine"
	"github.com/arbiter-games/coordinator/domain/identity"
	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
)

// View is the read-side projection of a session returned to a single
// agent: the raw status/tick plus the template's role-scoped view of the
// state document and that role's currently legal actions.
type View struct {
	SessionID    string
	TemplateID   string
	Status       Status
	Tick         int64
	Role         string
	State        engine.State
	LegalActions []string
}

// Service composes a Store with the template registry to implement the
// session-store operations of spec §4.5 other than action submission,
// which is the arbiter's responsibility (applications/arbiter).
type Service struct {
	store    Store
	registry *engine.Registry
	identity identity.Store
}

// NewService builds a session Service over store using the templates
// registered in registry. identity is consulted to reject unknown
// participant agent ids with NOT_FOUND before they ever reach the store.
func NewService(store Store, registry *engine.Registry, identityStore identity.Store) *Service {
	return &Service{store: store, registry: registry, identity: identityStore}
}

// Create validates the template and participant bindings and inserts a
// new session. bindings maps role -> agent id, or "" for an open role.
// callerAgentID must be one of the bound agents.
func (s *Service) Create(ctx context.Context, templateID string, bindings map[string]string, callerAgentID string) (Session, error) {
	tpl, ok := s.registry.Lookup(templateID)
	if !ok {
		return Session{}, apperrors.NewNotFound("template", templateID)
	}

	roles := RoleSet(tpl)
	if len(bindings) != len(roles) {
		return Session{}, apperrors.NewInvalidRequest("participants must list exactly the template's roles")
	}
	seenAgents := make(map[string]struct{})
	callerBound := false
	for role, agentID := range bindings {
		if _, ok := roles[role]; !ok {
			return Session{}, apperrors.NewInvalidRequest(fmt.Sprintf("unknown role %q for template %q", role, templateID))
		}
		if agentID == "" {
			continue
		}
		if _, dup := seenAgents[agentID]; dup {
			return Session{}, apperrors.NewInvalidRequest("an agent may not hold more than one role in a session")
		}
		seenAgents[agentID] = struct{}{}
		if agentID == callerAgentID {
			callerBound = true
		}
	}
	if !callerBound {
		return Session{}, apperrors.NewForbidden("caller must be one of the session's listed participants")
	}
	for agentID := range seenAgents {
		ok, err := s.identity.Exists(ctx, agentID)
		if err != nil {
			return Session{}, fmt.Errorf("session: check agent exists: %w", err)
		}
		if !ok {
			return Session{}, apperrors.NewNotFound("agent", agentID)
		}
	}

	doc, err := tpl.EncodeState(tpl.InitialState())
	if err != nil {
		return Session{}, fmt.Errorf("session: encode initial state: %w", err)
	}

	return s.store.CreateSession(ctx, templateID, doc, bindings)
}

// Join binds an open role to an agent. role must be one of the session's
// template's declared roles, or INVALID_REQUEST is returned before the
// binding ever reaches the store.
func (s *Service) Join(ctx context.Context, sessionID, agentID, role string) (Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	tpl, ok := s.registry.Lookup(sess.TemplateID)
	if !ok {
		return Session{}, apperrors.NewNotFound("template", sess.TemplateID)
	}
	if _, ok := RoleSet(tpl)[role]; !ok {
		return Session{}, apperrors.NewInvalidRequest(fmt.Sprintf("unknown role %q for template %q", role, sess.TemplateID))
	}

	joined, _, err := s.store.JoinSession(ctx, sessionID, agentID, role, len(tpl.Roles()))
	return joined, err
}

// Read returns agentID's view of a session: its role, the role-masked
// state, and that role's legal actions.
func (s *Service) Read(ctx context.Context, sessionID, agentID string) (View, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	role, ok, err := s.store.RoleOf(ctx, sessionID, agentID)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, apperrors.NewForbidden("agent is not a participant in this session")
	}

	tpl, ok := s.registry.Lookup(sess.TemplateID)
	if !ok {
		return View{}, apperrors.NewNotFound("template", sess.TemplateID)
	}
	state, err := tpl.DecodeState(sess.State)
	if err != nil {
		return View{}, fmt.Errorf("session: decode state: %w", err)
	}

	return View{
		SessionID:    sess.ID,
		TemplateID:   sess.TemplateID,
		Status:       sess.Status,
		Tick:         sess.Tick,
		Role:         role,
		State:        tpl.ViewState(state, role),
		LegalActions: tpl.LegalActions(state, role),
	}, nil
}

// List returns sessions agentID is bound to, most recently updated first.
func (s *Service) List(ctx context.Context, agentID string) ([]Session, error) {
	return s.store.ListForAgent(ctx, agentID)
}

// ReadLog returns the ordered action log for a session, after verifying
// agentID is a participant.
func (s *Service) ReadLog(ctx context.Context, sessionID, agentID string) ([]LogEntry, error) {
	_, ok, err := s.store.RoleOf(ctx, sessionID, agentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewForbidden("agent is not a participant in this session")
	}
	return s.store.ReadLog(ctx, sessionID)
}
