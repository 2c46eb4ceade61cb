// Package identity implements the agent identity store (spec §4.1):
// registration, one-time claiming, and bearer-secret resolution.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Agent is a row in the agents table.
type Agent struct {
	ID           string
	ClaimSecret  string
	BearerSecret string
	Claimed      bool
	CreatedAt    time.Time
}

// Store is the persistence boundary for agent identities.
type Store interface {
	// Register inserts a new unclaimed agent and returns its id and
	// one-time claim secret.
	Register(ctx context.Context) (agentID, claimSecret string, err error)

	// Claim atomically exchanges a still-valid claim secret for a bearer
	// secret. Returns an UNAUTHORIZED error (infrastructure/errors) if the
	// agent does not exist, is already claimed, or claimSecret mismatches.
	Claim(ctx context.Context, agentID, claimSecret string) (bearerSecret string, err error)

	// Resolve maps a bearer secret to an agent id. ok is false on any
	// miss; callers must not distinguish "no such secret" from "agent
	// unclaimed" in their response.
	Resolve(ctx context.Context, bearerSecret string) (agentID string, ok bool, err error)

	// Exists reports whether agentID has been registered, claimed or not.
	// Callers use this to reject unknown participant ids with NOT_FOUND
	// instead of letting them surface as a foreign-key violation.
	Exists(ctx context.Context, agentID string) (bool, error)
}

// newSecret returns a cryptographically random, hex-encoded token. 32
// random bytes yields a 64-character string, unguessable and safely
// unique in a UNIQUE column.
func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
