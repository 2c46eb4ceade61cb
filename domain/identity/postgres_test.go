package identity

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
)

func TestRegisterInsertsUnclaimedRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO agents").WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewPostgres(db)
	agentID, claimSecret, err := store.Register(context.Background())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if agentID == "" || claimSecret == "" {
		t.Fatal("expected non-empty agent id and claim secret")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimSucceedsOnMatchingSecret(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT claim_secret, claimed FROM agents").
		WithArgs("agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"claim_secret", "claimed"}).AddRow("secret-1", false))
	mock.ExpectExec("UPDATE agents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPostgres(db)
	bearer, err := store.Claim(context.Background(), "agent-1", "secret-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if bearer == "" {
		t.Fatal("expected non-empty bearer secret")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRejectsMismatchedSecret(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT claim_secret, claimed FROM agents").
		WithArgs("agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"claim_secret", "claimed"}).AddRow("secret-1", false))
	mock.ExpectRollback()

	store := NewPostgres(db)
	_, err = store.Claim(context.Background(), "agent-1", "wrong-secret")
	if !apperrors.Is(err, apperrors.Unauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestClaimRejectsAlreadyClaimed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT claim_secret, claimed FROM agents").
		WithArgs("agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"claim_secret", "claimed"}).AddRow("secret-1", true))
	mock.ExpectRollback()

	store := NewPostgres(db)
	_, err = store.Claim(context.Background(), "agent-1", "secret-1")
	if !apperrors.Is(err, apperrors.Unauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestResolveMissReturnsNotOK(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT agent_id FROM agents").
		WithArgs("bad-secret").
		WillReturnRows(sqlmock.NewRows([]string{"agent_id"}))

	store := NewPostgres(db)
	_, ok, err := store.Resolve(context.Background(), "bad-secret")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ok {
		t.Fatal("expected miss for unknown bearer secret")
	}
}

func TestExistsTrueForKnownAgent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM agents").
		WithArgs("agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	store := NewPostgres(db)
	ok, err := store.Exists(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatal("expected agent-1 to exist")
	}
}

func TestExistsFalseForUnknownAgent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM agents").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	store := NewPostgres(db)
	ok, err := store.Exists(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("expected ghost agent to not exist")
	}
}
