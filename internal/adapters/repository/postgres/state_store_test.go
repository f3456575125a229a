package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hrnet/internal/adapters/repository/localstate"
	"github.com/ogurasousui/hrnet/internal/core/employee"
	pgdb "github.com/ogurasousui/hrnet/internal/platform/db/postgres"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var (
	selectQuery       = regexp.QuoteMeta(`SELECT value FROM app_state WHERE key = $1`)
	selectLockedQuery = regexp.QuoteMeta(`SELECT value FROM app_state WHERE key = $1 FOR UPDATE`)
	upsertQuery       = `INSERT INTO app_state \(key, value, updated_at\)`
	advisoryLockQuery = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)
)

func newStore(t *testing.T) (*StateStore, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	store := NewStateStore(mock, pgdb.NewTransactionManager(mock))
	store.now = func() time.Time { return now }
	return store, mock, now
}

func TestStateStore_Get(t *testing.T) {
	t.Parallel()

	store, mock, _ := newStore(t)

	mock.ExpectQuery(selectQuery).
		WithArgs("reduxState").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"employees":{"employees":[]}}`)))

	got, err := store.Get(context.Background(), "reduxState")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != `{"employees":{"employees":[]}}` {
		t.Fatalf("unexpected value: %s", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateStore_GetMissingKey(t *testing.T) {
	t.Parallel()

	store, mock, _ := newStore(t)

	mock.ExpectQuery(selectQuery).WithArgs("absent").WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), "absent")
	if !errors.Is(err, localstate.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestStateStore_Set(t *testing.T) {
	t.Parallel()

	store, mock, now := newStore(t)
	value := []byte(`{"a":1}`)

	mock.ExpectExec(upsertQuery).
		WithArgs("reduxState", value, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Set(context.Background(), "reduxState", value); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateStore_UpdateRunsInTransaction(t *testing.T) {
	t.Parallel()

	store, mock, now := newStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectExec(advisoryLockQuery).WithArgs("reduxState").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(selectLockedQuery).
		WithArgs("reduxState").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"old":true}`)))
	mock.ExpectExec(upsertQuery).
		WithArgs("reduxState", []byte(`{"new":true}`), now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), "reduxState", func(current []byte, found bool) ([]byte, error) {
		if !found || string(current) != `{"old":true}` {
			t.Fatalf("unexpected current value: %s found=%t", current, found)
		}
		return []byte(`{"new":true}`), nil
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateStore_UpdateMissingRow(t *testing.T) {
	t.Parallel()

	store, mock, now := newStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectExec(advisoryLockQuery).WithArgs("reduxState").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(selectLockedQuery).WithArgs("reduxState").WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(upsertQuery).
		WithArgs("reduxState", []byte(`{}`), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), "reduxState", func(current []byte, found bool) ([]byte, error) {
		if found {
			t.Fatal("expected missing row")
		}
		return []byte(`{}`), nil
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateStore_UpdateRollsBackOnCallbackError(t *testing.T) {
	t.Parallel()

	store, mock, _ := newStore(t)
	cbErr := errors.New("encode failed")

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectExec(advisoryLockQuery).WithArgs("reduxState").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(selectLockedQuery).WithArgs("reduxState").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := store.Update(context.Background(), "reduxState", func([]byte, bool) ([]byte, error) {
		return nil, cbErr
	})
	if !errors.Is(err, cbErr) {
		t.Fatalf("expected callback error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateStore_UpdateLockFailure(t *testing.T) {
	t.Parallel()

	store, mock, _ := newStore(t)
	lockErr := &pgconn.PgError{Code: "55P03", Message: "lock not available"}

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectExec(advisoryLockQuery).WithArgs("reduxState").WillReturnError(lockErr)
	mock.ExpectRollback()

	err := store.Update(context.Background(), "reduxState", func([]byte, bool) ([]byte, error) {
		t.Fatal("callback must not run without the lock")
		return nil, nil
	})
	if !errors.Is(err, lockErr) {
		t.Fatalf("expected lock error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateStore_WithRepository(t *testing.T) {
	t.Parallel()

	store, mock, _ := newStore(t)
	repo := localstate.NewRepository(store, "")

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectExec(advisoryLockQuery).WithArgs("reduxState").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(selectLockedQuery).
		WithArgs("reduxState").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"theme":"dark"}`)))
	mock.ExpectExec(upsertQuery).
		WithArgs("reduxState", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := repo.Save(context.Background(), []employee.Employee{}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranslateStatePgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateStatePgError(pgx.ErrNoRows), localstate.ErrKeyNotFound) {
		t.Fatal("expected no rows to map to ErrKeyNotFound")
	}

	missing := &pgconn.PgError{Code: undefinedTableCode}
	if !errors.Is(translateStatePgError(missing), ErrStateTableMissing) {
		t.Fatal("expected undefined table to map to ErrStateTableMissing")
	}

	badJSON := &pgconn.PgError{Code: invalidTextReprCode, Message: "invalid input syntax for type json"}
	if !errors.Is(translateStatePgError(badJSON), ErrInvalidDocument) {
		t.Fatal("expected invalid json to map to ErrInvalidDocument")
	}

	other := errors.New("other")
	if translateStatePgError(other) != other {
		t.Fatal("unexpected translation for generic error")
	}
	if translateStatePgError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
