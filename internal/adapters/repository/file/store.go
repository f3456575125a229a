// Package file はローカルファイルに状態文書を保存する localstate.KeyValue の実装です。
// ファイルはキーから JSON 文書への対応表で、書き込みは一時ファイルの rename で置き換えます。
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ogurasousui/hrnet/internal/adapters/repository/localstate"
)

// ErrNotJSON は JSON ではない値を保存しようとした場合のエラーです。
var ErrNotJSON = errors.New("file: value must be a JSON document")

var errCorrupt = errors.New("file: corrupt state file")

// Store はファイルを使った KeyValue です。
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore は Store を生成します。ファイルは最初の書き込み時に作成されます。
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path は保存先のパスを返します。
func (s *Store) Path() string {
	return s.path
}

// Get はキーの値を返します。
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	v, ok := entries[key]
	if !ok {
		return nil, localstate.ErrKeyNotFound
	}
	return v, nil
}

// Set はキーへ値を保存します。
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.Update(ctx, key, func([]byte, bool) ([]byte, error) { return value, nil })
}

// Update はファイルのロックを保持したまま fn の結果を保存します。
func (s *Store) Update(_ context.Context, key string, fn localstate.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if errors.Is(err, errCorrupt) {
		// JSON として解釈できないファイルは新しい内容で置き換える
		entries = map[string]json.RawMessage{}
	} else if err != nil {
		return err
	}

	current, found := entries[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	if !json.Valid(next) {
		return ErrNotJSON
	}
	entries[key] = next

	return s.write(entries)
}

func (s *Store) read() (map[string]json.RawMessage, error) {
	entries := map[string]json.RawMessage{}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file: read %s: %w", s.path, err)
	}
	if len(b) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errCorrupt, s.path, err)
	}
	return entries, nil
}

func (s *Store) write(entries map[string]json.RawMessage) (err error) {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("file: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file: write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file: sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("file: close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("file: replace %s: %w", s.path, err)
	}
	return nil
}
