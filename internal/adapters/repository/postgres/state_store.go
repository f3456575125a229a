package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hrnet/internal/adapters/repository/localstate"
	pgdb "github.com/ogurasousui/hrnet/internal/platform/db/postgres"
)

const (
	undefinedTableCode   = "42P01"
	invalidTextReprCode  = "22P02"
	invalidJSONTextCode  = "22032"
	stringTooLongCode    = "22001"
	stateTableMigrateTip = "run `migrate up` to create app_state"
)

var (
	// ErrStateTableMissing は app_state テーブルが存在しない場合のエラーです。
	ErrStateTableMissing = errors.New("postgres: app_state table does not exist")
	// ErrInvalidDocument は状態文書が JSON として受理されなかった場合のエラーです。
	ErrInvalidDocument = errors.New("postgres: state document rejected")
)

// StateStore は app_state テーブルを利用した localstate.KeyValue の実装です。
type StateStore struct {
	pool pgdb.Queryer
	tx   *pgdb.TransactionManager
	now  func() time.Time
}

// NewStateStore は StateStore を生成します。tx が nil の場合 Update はトランザクションを張りません。
func NewStateStore(pool pgdb.Queryer, tx *pgdb.TransactionManager) *StateStore {
	return &StateStore{pool: pool, tx: tx, now: time.Now}
}

// Get はキーに対応する状態文書を取得します。
func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	row := exec.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1`, key)

	var value []byte
	if err := row.Scan(&value); err != nil {
		return nil, translateStatePgError(err)
	}
	return value, nil
}

// Set は状態文書を upsert します。
func (s *StateStore) Set(ctx context.Context, key string, value []byte) error {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO app_state (key, value, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE
           SET value = EXCLUDED.value,
               updated_at = EXCLUDED.updated_at
    `, key, value, s.now().UTC())
	if err != nil {
		return translateStatePgError(err)
	}
	return nil
}

// Update は行ロックを取得したうえで fn の結果を書き戻します。
func (s *StateStore) Update(ctx context.Context, key string, fn localstate.UpdateFunc) error {
	return s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		exec := pgdb.QueryerFromContext(ctx, s.pool)
		// 行が未作成の場合は FOR UPDATE がロックを取らないため、キー単位のアドバイザリロックで直列化する
		if _, err := exec.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return translateStatePgError(err)
		}
		row := exec.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1 FOR UPDATE`, key)

		var current []byte
		found := true
		if err := row.Scan(&current); err != nil {
			translated := translateStatePgError(err)
			if !errors.Is(translated, localstate.ErrKeyNotFound) {
				return translated
			}
			found = false
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}
		return s.Set(ctx, key, next)
	})
}

func translateStatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return localstate.ErrKeyNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case undefinedTableCode:
			return fmt.Errorf("%w (%s)", ErrStateTableMissing, stateTableMigrateTip)
		case invalidTextReprCode, invalidJSONTextCode, stringTooLongCode:
			return fmt.Errorf("%w: %s", ErrInvalidDocument, pgErr.Message)
		}
	}
	return err
}
