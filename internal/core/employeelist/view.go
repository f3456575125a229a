package employeelist

import (
	"fmt"
	"sync"

	"github.com/ogurasousui/hrnet/internal/core/employee"
)

// Source は一覧の元となるスナップショットを提供します。
type Source interface {
	Snapshot() []employee.Employee
}

// Notifier は変更通知の購読を提供します。employee.Store が実装します。
type Notifier interface {
	Subscribe(fn func()) func()
}

// View は ViewState を保持し、入力が変わるたびに Source の全件から Page を再計算します。
type View struct {
	mu     sync.Mutex
	source Source
	state  ViewState

	subMu       sync.Mutex
	subscribers map[int]func(Page)
	nextSubID   int
}

// NewView は View を生成します。pageSize が 0 以下の場合は既定値を使用します。
func NewView(source Source, pageSize int) *View {
	state := DefaultViewState()
	if pageSize > 0 {
		state.PageSize = pageSize
	}
	return &View{
		source:      source,
		state:       state,
		subscribers: make(map[int]func(Page)),
	}
}

// Bind は Notifier の変更通知ごとに Refresh を呼び出すよう登録し、解除関数を返します。
func (v *View) Bind(n Notifier) func() {
	return n.Subscribe(func() { v.Refresh() })
}

// Subscribe は Page の再計算結果を受け取るコールバックを登録し、解除関数を返します。
func (v *View) Subscribe(fn func(Page)) func() {
	v.subMu.Lock()
	defer v.subMu.Unlock()

	id := v.nextSubID
	v.nextSubID++
	v.subscribers[id] = fn

	return func() {
		v.subMu.Lock()
		defer v.subMu.Unlock()
		delete(v.subscribers, id)
	}
}

// State は現在の ViewState を返します。
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Current は現在の ViewState で Page を計算します。購読者には通知しません。
func (v *View) Current() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Compute(v.source.Snapshot(), v.state)
}

// Matching は現在の検索と並べ替えを全件に適用した結果をページ分割せずに返します。
func (v *View) Matching() []employee.Employee {
	v.mu.Lock()
	state := v.state
	v.mu.Unlock()
	return Sort(Filter(v.source.Snapshot(), state.SearchQuery), state.SortKey, state.SortDirection)
}

// Refresh はストア変更後に再計算し、ページ番号を丸めて購読者へ通知します。
func (v *View) Refresh() Page {
	return v.update(func(s *ViewState) error { return nil })
}

// SetSearch は検索文字列を変更し、ページを 1 に戻します。
func (v *View) SetSearch(query string) Page {
	return v.update(func(s *ViewState) error {
		s.SearchQuery = query
		s.CurrentPage = firstPage
		return nil
	})
}

// RequestSort は列見出しのクリックとして並べ替えを切り替えます。ページは維持されます。
func (v *View) RequestSort(key SortKey) (Page, error) {
	if _, err := ParseSortKey(string(key)); err != nil || key == SortNone {
		return v.Current(), fmt.Errorf("%q: %w", key, ErrInvalidSortKey)
	}
	return v.updateErr(func(s *ViewState) error {
		*s = s.ToggleSort(key)
		return nil
	})
}

// SetSort は並べ替えの列と方向を直接指定します。SortNone で並べ替えを解除します。
func (v *View) SetSort(key SortKey, direction SortDirection) (Page, error) {
	if _, err := ParseSortKey(string(key)); err != nil {
		return v.Current(), err
	}
	if _, err := ParseSortDirection(string(direction)); err != nil {
		return v.Current(), err
	}
	return v.updateErr(func(s *ViewState) error {
		s.SortKey = key
		s.SortDirection = direction
		return nil
	})
}

// SetPageSize は表示件数を変更し、ページを 1 に戻します。
func (v *View) SetPageSize(size int) (Page, error) {
	if size <= 0 {
		return v.Current(), fmt.Errorf("%d: %w", size, ErrInvalidPageSize)
	}
	return v.updateErr(func(s *ViewState) error {
		s.PageSize = size
		s.CurrentPage = firstPage
		return nil
	})
}

// SetPage は指定ページへ移動します。範囲外の値は丸められます。
func (v *View) SetPage(page int) Page {
	return v.update(func(s *ViewState) error {
		s.CurrentPage = page
		return nil
	})
}

// NextPage は次のページへ移動します。最終ページでは何もしません。
func (v *View) NextPage() Page {
	return v.update(func(s *ViewState) error {
		s.CurrentPage++
		return nil
	})
}

// PreviousPage は前のページへ移動します。1 ページ目では何もしません。
func (v *View) PreviousPage() Page {
	return v.update(func(s *ViewState) error {
		s.CurrentPage--
		return nil
	})
}

func (v *View) update(fn func(*ViewState) error) Page {
	page, _ := v.updateErr(fn)
	return page
}

// updateErr は ViewState を変更して全件から再計算し、丸めたページ番号を保存してから通知します。
func (v *View) updateErr(fn func(*ViewState) error) (Page, error) {
	v.mu.Lock()
	next := v.state
	if err := fn(&next); err != nil {
		page := Compute(v.source.Snapshot(), v.state)
		v.mu.Unlock()
		return page, err
	}

	page := Compute(v.source.Snapshot(), next)
	next.CurrentPage = page.CurrentPage
	next.PageSize = page.PageSize
	v.state = next
	v.mu.Unlock()

	v.notify(page)
	return page, nil
}

func (v *View) notify(page Page) {
	v.subMu.Lock()
	fns := make([]func(Page), 0, len(v.subscribers))
	for id := 0; id < v.nextSubID; id++ {
		if fn, ok := v.subscribers[id]; ok {
			fns = append(fns, fn)
		}
	}
	v.subMu.Unlock()

	for _, fn := range fns {
		fn(page)
	}
}
