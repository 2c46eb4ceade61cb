package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
)

// Postgres is the database/sql-backed Store implementation.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open connection pool as a Store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) CreateSession(ctx context.Context, templateID string, initialState json.RawMessage, bindings map[string]string) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		State:      initialState,
		Tick:       0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sess.Status = StatusActive
	for _, agentID := range bindings {
		if agentID == "" {
			sess.Status = StatusWaiting
			break
		}
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, template, state, status, tick, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sess.ID, sess.TemplateID, []byte(sess.State), string(sess.Status), sess.Tick, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return Session{}, err
	}

	for role, agentID := range bindings {
		if agentID == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO participants (session_id, agent_id, role)
			VALUES ($1, $2, $3)
		`, sess.ID, agentID, role)
		if err != nil {
			return Session{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (p *Postgres) JoinSession(ctx context.Context, sessionID, agentID, role string, roleCount int) (Session, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, false, err
	}
	defer tx.Rollback()

	sess, err := scanSessionRow(tx.QueryRowContext(ctx, `
		SELECT session_id, template, state, status, tick, created_at, updated_at
		FROM sessions WHERE session_id = $1 FOR UPDATE
	`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, apperrors.NewNotFound("session", sessionID)
	}
	if err != nil {
		return Session{}, false, err
	}
	if sess.Status != StatusWaiting {
		return Session{}, false, apperrors.NewForbidden("session is not waiting for participants")
	}

	var existingRole string
	err = tx.QueryRowContext(ctx, `
		SELECT role FROM participants WHERE session_id = $1 AND agent_id = $2
	`, sessionID, agentID).Scan(&existingRole)
	if err == nil {
		return Session{}, false, apperrors.NewForbidden("agent is already bound to a role in this session")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, err
	}

	var filled string
	err = tx.QueryRowContext(ctx, `
		SELECT agent_id FROM participants WHERE session_id = $1 AND role = $2
	`, sessionID, role).Scan(&filled)
	if err == nil {
		return Session{}, false, apperrors.NewConflict("role is already filled")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO participants (session_id, agent_id, role) VALUES ($1, $2, $3)
	`, sessionID, agentID, role)
	if err != nil {
		return Session{}, false, err
	}

	var boundRoles int
	err = tx.QueryRowContext(ctx, `
		SELECT count(*) FROM participants WHERE session_id = $1
	`, sessionID).Scan(&boundRoles)
	if err != nil {
		return Session{}, false, err
	}

	becameActive := false
	if boundRoles >= roleCount {
		sess.Status = StatusActive
		becameActive = true
		_, err = tx.ExecContext(ctx, `
			UPDATE sessions SET status = $1, updated_at = $2 WHERE session_id = $3
		`, string(StatusActive), time.Now().UTC(), sessionID)
		if err != nil {
			return Session{}, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Session{}, false, err
	}
	return sess, becameActive, nil
}

func (p *Postgres) GetSession(ctx context.Context, sessionID string) (Session, error) {
	sess, err := scanSessionRow(p.db.QueryRowContext(ctx, `
		SELECT session_id, template, state, status, tick, created_at, updated_at
		FROM sessions WHERE session_id = $1
	`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, apperrors.NewNotFound("session", sessionID)
	}
	return sess, err
}

func (p *Postgres) Participants(ctx context.Context, sessionID string) ([]Participant, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT session_id, agent_id, role FROM participants WHERE session_id = $1
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var pt Participant
		if err := rows.Scan(&pt.SessionID, &pt.AgentID, &pt.Role); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (p *Postgres) RoleOf(ctx context.Context, sessionID, agentID string) (string, bool, error) {
	var role string
	err := p.db.QueryRowContext(ctx, `
		SELECT role FROM participants WHERE session_id = $1 AND agent_id = $2
	`, sessionID, agentID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

func (p *Postgres) ListForAgent(ctx context.Context, agentID string) ([]Session, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT s.session_id, s.template, s.state, s.status, s.tick, s.created_at, s.updated_at
		FROM sessions s
		JOIN participants pt ON pt.session_id = s.session_id
		WHERE pt.agent_id = $1
		ORDER BY s.updated_at DESC
	`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (p *Postgres) ReadLog(ctx context.Context, sessionID string) ([]LogEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT action_id, session_id, agent_id, role, action, tick, created_at
		FROM actions WHERE session_id = $1 ORDER BY tick ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var action []byte
		if err := rows.Scan(&e.ActionID, &e.SessionID, &e.AgentID, &e.Role, &action, &e.Tick, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = action
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) CommitAction(ctx context.Context, sessionID string, oldTick int64, newState json.RawMessage, terminal bool, entry LogEntry) (Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	status := StatusActive
	if terminal {
		status = StatusCompleted
	}
	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET state = $1, tick = $2, status = $3, updated_at = $4
		WHERE session_id = $5 AND tick = $6
	`, []byte(newState), oldTick+1, string(status), now, sessionID, oldTick)
	if err != nil {
		return Session{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Session{}, apperrors.NewConflict("session tick changed concurrently")
	}

	if entry.ActionID == "" {
		entry.ActionID = uuid.NewString()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO actions (action_id, session_id, agent_id, role, action, tick, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ActionID, sessionID, entry.AgentID, entry.Role, []byte(entry.Action), oldTick, now)
	if err != nil {
		return Session{}, err
	}

	if err := tx.Commit(); err != nil {
		return Session{}, err
	}

	return Session{
		ID:         sessionID,
		TemplateID: "",
		State:      newState,
		Status:     status,
		Tick:       oldTick + 1,
		UpdatedAt:  now,
	}, nil
}

// row is satisfied by both *sql.Row and *sql.Rows.
type row interface {
	Scan(dest ...any) error
}

func scanSessionRow(r row) (Session, error) {
	var sess Session
	var state []byte
	var status string
	if err := r.Scan(&sess.ID, &sess.TemplateID, &state, &status, &sess.Tick, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return Session{}, err
	}
	sess.State = state
	sess.Status = Status(status)
	return sess, nil
}

var _ Store = (*Postgres)(nil)
