package employee

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Store は挿入順を保持する社員レコードの正本です。
// 変更は単一ライタロックで直列化され、成功した変更のたびに全件が Repository へ保存されます。
// 保存はバックグラウンドで行われ、呼び出し元を待たせません。未保存の状態は最新の全件のみ保持します。
type Store struct {
	mu        sync.RWMutex
	employees []Employee
	index     map[string]int

	repo   Repository
	logger *slog.Logger

	saveMu     sync.Mutex
	saveIdle   *sync.Cond
	pending    []Employee
	hasPending bool
	saving     bool

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSubID   int
}

// NewStore は Repository から状態を読み込んで Store を生成します。
// 読み込みに失敗した場合はログを出力し、空の状態で開始します。
func NewStore(ctx context.Context, repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		index:       make(map[string]int),
		repo:        repo,
		logger:      logger,
		subscribers: make(map[int]func()),
	}
	s.saveIdle = sync.NewCond(&s.saveMu)

	if repo == nil {
		return s
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		logger.Error("failed to load employees, starting empty", "error", err)
		return s
	}

	for _, e := range loaded {
		if _, dup := s.index[e.ID]; dup || strings.TrimSpace(e.ID) == "" {
			logger.Warn("skipping persisted employee with blank or duplicate id", "id", e.ID)
			continue
		}
		s.index[e.ID] = len(s.employees)
		s.employees = append(s.employees, e)
	}
	return s
}

// Add は新しいレコードを末尾に追加します。
func (s *Store) Add(ctx context.Context, e Employee) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	if err := checkRequired(e); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.index[e.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", e.ID, ErrDuplicateID)
	}
	s.index[e.ID] = len(s.employees)
	s.employees = append(s.employees, e)
	s.commit(ctx)
	return nil
}

// Edit は id のレコードを同じ位置のまま置き換えます。
func (s *Store) Edit(ctx context.Context, id string, e Employee) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	if err := checkRequired(e); err != nil {
		return err
	}
	e.ID = id

	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrEmployeeNotFound)
	}
	s.employees[pos] = e
	s.commit(ctx)
	return nil
}

// Delete は id のレコードを削除します。存在しない id は ErrEmployeeNotFound を返します。
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrEmployeeNotFound)
	}

	next := make([]Employee, 0, len(s.employees)-1)
	next = append(next, s.employees[:pos]...)
	next = append(next, s.employees[pos+1:]...)
	s.employees = next

	delete(s.index, id)
	for i := pos; i < len(s.employees); i++ {
		s.index[s.employees[i].ID] = i
	}
	s.commit(ctx)
	return nil
}

// Get は id のレコードを返します。
func (s *Store) Get(id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return Employee{}, fmt.Errorf("%s: %w", id, ErrEmployeeNotFound)
	}
	return s.employees[pos], nil
}

// Snapshot は現時点のレコード列のコピーを返します。
func (s *Store) Snapshot() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len は保持しているレコード数を返します。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.employees)
}

// Subscribe は変更通知を受け取るコールバックを登録し、登録解除関数を返します。
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) snapshotLocked() []Employee {
	out := make([]Employee, len(s.employees))
	copy(out, s.employees)
	return out
}

// commit は書き込みロックを保持した状態で呼ばれます。
// 保存要求はロック中に積むため、最後に保存されるのは常に最新の状態です。
func (s *Store) commit(ctx context.Context) {
	s.enqueueSave(ctx, s.snapshotLocked())
	s.mu.Unlock()

	s.notify()
}

func (s *Store) enqueueSave(ctx context.Context, snapshot []Employee) {
	if s.repo == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.pending = snapshot
	s.hasPending = true
	if !s.saving {
		s.saving = true
		go s.drainSaves(context.WithoutCancel(ctx))
	}
}

// drainSaves は保存待ちがなくなるまで最新の状態を保存し続けます。
func (s *Store) drainSaves(ctx context.Context) {
	for {
		s.saveMu.Lock()
		if !s.hasPending {
			s.saving = false
			s.saveIdle.Broadcast()
			s.saveMu.Unlock()
			return
		}
		snapshot := s.pending
		s.pending, s.hasPending = nil, false
		s.saveMu.Unlock()

		s.persist(ctx, snapshot)
	}
}

// Flush は実行中および保存待ちの保存が完了するまで待ちます。
func (s *Store) Flush() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	for s.saving {
		s.saveIdle.Wait()
	}
}

func (s *Store) persist(ctx context.Context, snapshot []Employee) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.logger.Error("failed to persist employees",
			"error", fmt.Errorf("%w: %w", ErrPersistence, err),
			"count", len(snapshot),
		)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subscribers))
	for id := 0; id < s.nextSubID; id++ {
		if fn, ok := s.subscribers[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
