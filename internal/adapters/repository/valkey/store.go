// Package valkey は Valkey を利用した localstate.KeyValue の実装です。
package valkey

import (
	"context"
	"errors"
	"fmt"

	"github.com/ogurasousui/hrnet/internal/adapters/repository/localstate"
	"github.com/valkey-io/valkey-go"
)

const maxUpdateAttempts = 5

// ErrConflict は楽観ロックの再試行回数を超えた場合のエラーです。
var ErrConflict = errors.New("valkey: concurrent update conflict")

// Options は接続設定です。
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store は Valkey に状態文書を保存します。
type Store struct {
	client valkey.Client
}

// Open は Valkey へ接続します。
func Open(opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("valkey: address is empty")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{opts.Addr},
		Password:     opts.Password,
		SelectDB:     opts.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey: connect %s: %w", opts.Addr, err)
	}
	return &Store{client: client}, nil
}

// Get はキーの値を返します。
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, localstate.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("valkey: get %s: %w", key, err)
	}
	return b, nil
}

// Set はキーへ値を保存します。
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey: set %s: %w", key, err)
	}
	return nil
}

// Update は WATCH と MULTI による楽観ロックで読み込みと書き込みを行います。
func (s *Store) Update(ctx context.Context, key string, fn localstate.UpdateFunc) error {
	for range maxUpdateAttempts {
		committed := false
		err := s.client.Dedicated(func(c valkey.DedicatedClient) error {
			if err := c.Do(ctx, c.B().Watch().Key(key).Build()).Error(); err != nil {
				return fmt.Errorf("valkey: watch %s: %w", key, err)
			}

			current, err := c.Do(ctx, c.B().Get().Key(key).Build()).AsBytes()
			found := err == nil
			if err != nil && !valkey.IsValkeyNil(err) {
				return fmt.Errorf("valkey: get %s: %w", key, err)
			}

			next, err := fn(current, found)
			if err != nil {
				_ = c.Do(ctx, c.B().Unwatch().Build()).Error()
				return err
			}

			resps := c.DoMulti(ctx,
				c.B().Multi().Build(),
				c.B().Set().Key(key).Value(valkey.BinaryString(next)).Build(),
				c.B().Exec().Build(),
			)
			exec := resps[len(resps)-1]
			if err := exec.Error(); err != nil {
				// EXEC が nil を返した場合は監視中のキーが変更された
				if valkey.IsValkeyNil(err) {
					return nil
				}
				return fmt.Errorf("valkey: exec: %w", err)
			}
			committed = true
			return nil
		})
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
	}
	return ErrConflict
}

// Close は接続を閉じます。
func (s *Store) Close() {
	s.client.Close()
}
