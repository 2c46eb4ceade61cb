package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiter-games/coordinator/domain/engine"
	"github.com/arbiter-games/coordinator/domain/template/rps"
	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
)

// fakeStore is an in-memory Store sufficient to exercise Service's
// validation logic without a database.
type fakeStore struct {
	sessions     map[string]Session
	participants map[string][]Participant
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:     make(map[string]Session),
		participants: make(map[string][]Participant),
	}
}

func (f *fakeStore) CreateSession(ctx context.Context, templateID string, initialState json.RawMessage, bindings map[string]string) (Session, error) {
	sess := Session{ID: "sess-1", TemplateID: templateID, State: initialState, Status: StatusWaiting}
	for _, agentID := range bindings {
		if agentID == "" {
			continue
		}
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeStore) JoinSession(ctx context.Context, sessionID, agentID, role string, roleCount int) (Session, bool, error) {
	f.participants[sessionID] = append(f.participants[sessionID], Participant{SessionID: sessionID, AgentID: agentID, Role: role})
	sess := f.sessions[sessionID]
	became := len(f.participants[sessionID]) >= roleCount
	if became {
		sess.Status = StatusActive
		f.sessions[sessionID] = sess
	}
	return sess, became, nil
}

func (f *fakeStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return Session{}, apperrors.NewNotFound("session", sessionID)
	}
	return sess, nil
}

func (f *fakeStore) Participants(ctx context.Context, sessionID string) ([]Participant, error) {
	return f.participants[sessionID], nil
}

func (f *fakeStore) RoleOf(ctx context.Context, sessionID, agentID string) (string, bool, error) {
	for _, p := range f.participants[sessionID] {
		if p.AgentID == agentID {
			return p.Role, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeStore) ListForAgent(ctx context.Context, agentID string) ([]Session, error) {
	return nil, nil
}

func (f *fakeStore) ReadLog(ctx context.Context, sessionID string) ([]LogEntry, error) {
	return nil, nil
}

func (f *fakeStore) CommitAction(ctx context.Context, sessionID string, oldTick int64, newState json.RawMessage, terminal bool, entry LogEntry) (Session, error) {
	return Session{}, nil
}

var _ Store = (*fakeStore)(nil)

// fakeIdentity reports a fixed set of known agent ids.
type fakeIdentity struct {
	known map[string]struct{}
}

func (f *fakeIdentity) Register(ctx context.Context) (string, string, error) { return "", "", nil }
func (f *fakeIdentity) Claim(ctx context.Context, agentID, claimSecret string) (string, error) {
	return "", nil
}
func (f *fakeIdentity) Resolve(ctx context.Context, bearerSecret string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) Exists(ctx context.Context, agentID string) (bool, error) {
	_, ok := f.known[agentID]
	return ok, nil
}

func TestCreateRejectsUnknownParticipantAgent(t *testing.T) {
	registry := engine.NewRegistry(rps.Template{})
	store := newFakeStore()
	ids := &fakeIdentity{known: map[string]struct{}{"agent-1": {}}}
	svc := NewService(store, registry, ids)

	_, err := svc.Create(context.Background(), rps.TemplateID, map[string]string{
		rps.RolePlayer1: "agent-1",
		rps.RolePlayer2: "agent-ghost",
	}, "agent-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.NotFound), "expected NOT_FOUND for unregistered agent, got %v", err)
}

func TestCreateSucceedsWhenAllAgentsKnown(t *testing.T) {
	registry := engine.NewRegistry(rps.Template{})
	store := newFakeStore()
	ids := &fakeIdentity{known: map[string]struct{}{"agent-1": {}, "agent-2": {}}}
	svc := NewService(store, registry, ids)

	sess, err := svc.Create(context.Background(), rps.TemplateID, map[string]string{
		rps.RolePlayer1: "agent-1",
		rps.RolePlayer2: "agent-2",
	}, "agent-1")

	require.NoError(t, err)
	assert.Equal(t, rps.TemplateID, sess.TemplateID)
}

func TestJoinRejectsRoleOutsideTemplate(t *testing.T) {
	registry := engine.NewRegistry(rps.Template{})
	store := newFakeStore()
	store.sessions["sess-1"] = Session{ID: "sess-1", TemplateID: rps.TemplateID, Status: StatusWaiting}
	store.participants["sess-1"] = []Participant{{SessionID: "sess-1", AgentID: "agent-1", Role: rps.RolePlayer1}}
	ids := &fakeIdentity{known: map[string]struct{}{"agent-1": {}, "agent-2": {}}}
	svc := NewService(store, registry, ids)

	_, err := svc.Join(context.Background(), "sess-1", "agent-2", "purple")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.InvalidReq), "expected INVALID_REQUEST for unknown role, got %v", err)
	assert.Len(t, store.participants["sess-1"], 1, "an invalid role must never reach the store")
}

func TestJoinBindsValidRoleAndActivates(t *testing.T) {
	registry := engine.NewRegistry(rps.Template{})
	store := newFakeStore()
	store.sessions["sess-1"] = Session{ID: "sess-1", TemplateID: rps.TemplateID, Status: StatusWaiting}
	store.participants["sess-1"] = []Participant{{SessionID: "sess-1", AgentID: "agent-1", Role: rps.RolePlayer1}}
	ids := &fakeIdentity{known: map[string]struct{}{"agent-1": {}, "agent-2": {}}}
	svc := NewService(store, registry, ids)

	sess, err := svc.Join(context.Background(), "sess-1", "agent-2", rps.RolePlayer2)

	require.NoError(t, err)
	assert.Equal(t, StatusActive, sess.Status)
}
