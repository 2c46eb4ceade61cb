package identity

import (
	"context"
	"database/sql"
	"errors"

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

func (p *Postgres) Register(ctx context.Context) (string, string, error) {
	agentID := uuid.NewString()
	claimSecret, err := newSecret()
	if err != nil {
		return "", "", err
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO agents (agent_id, claim_secret, claimed)
		VALUES ($1, $2, false)
	`, agentID, claimSecret)
	if err != nil {
		return "", "", err
	}
	return agentID, claimSecret, nil
}

func (p *Postgres) Claim(ctx context.Context, agentID, claimSecret string) (string, error) {
	bearerSecret, err := newSecret()
	if err != nil {
		return "", err
	}
	// The used claim secret is overwritten with a fresh random value that is
	// never handed out, since claim_secret is NOT NULL and UNIQUE.
	retiredClaim, err := newSecret()
	if err != nil {
		return "", err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var storedClaim string
	var claimed bool
	err = tx.QueryRowContext(ctx, `
		SELECT claim_secret, claimed FROM agents WHERE agent_id = $1 FOR UPDATE
	`, agentID).Scan(&storedClaim, &claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NewUnauthorized("unknown agent")
	}
	if err != nil {
		return "", err
	}
	if claimed || storedClaim != claimSecret {
		return "", apperrors.NewUnauthorized("claim secret invalid or already used")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE agents
		SET claimed = true, claim_secret = $1, bearer_secret = $2
		WHERE agent_id = $3
	`, retiredClaim, bearerSecret, agentID)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return bearerSecret, nil
}

func (p *Postgres) Resolve(ctx context.Context, bearerSecret string) (string, bool, error) {
	if bearerSecret == "" {
		return "", false, nil
	}
	var agentID string
	err := p.db.QueryRowContext(ctx, `
		SELECT agent_id FROM agents WHERE bearer_secret = $1
	`, bearerSecret).Scan(&agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return agentID, true, nil
}

func (p *Postgres) Exists(ctx context.Context, agentID string) (bool, error) {
	var found int
	err := p.db.QueryRowContext(ctx, `
		SELECT 1 FROM agents WHERE agent_id = $1
	`, agentID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ Store = (*Postgres)(nil)
