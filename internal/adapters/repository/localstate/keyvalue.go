// Package localstate はアプリケーション状態を単一キーの JSON 文書として
// キーバリューストアへ保存する employee.Repository の実装です。
package localstate

import (
	"context"
	"errors"
	"sync"
)

// ErrKeyNotFound はキーが存在しない場合に KeyValue が返すエラーです。
var ErrKeyNotFound = errors.New("localstate: key not found")

// KeyValue は状態文書を保持するバックエンドの抽象です。
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// UpdateFunc は現在値から新しい値を求めます。found はキーが存在したかを表します。
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Updater は読み込みから書き込みまでを不可分に実行できる KeyValue です。
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// MemoryKeyValue はプロセス内のみで保持する KeyValue です。
type MemoryKeyValue struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKeyValue は空の MemoryKeyValue を生成します。
func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{values: make(map[string][]byte)}
}

// Get はキーの値のコピーを返します。
func (m *MemoryKeyValue) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Update はロックを保持したまま fn の結果を保存します。
func (m *MemoryKeyValue) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, found := m.values[key]
	next, err := fn(append([]byte(nil), current...), found)
	if err != nil {
		return err
	}
	m.values[key] = append([]byte(nil), next...)
	return nil
}

// Set はキーへ値のコピーを保存します。
func (m *MemoryKeyValue) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}
