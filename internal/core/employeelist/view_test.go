package employeelist

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/ogurasousui/hrnet/internal/core/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	records []employee.Employee
}

func (s *staticSource) Snapshot() []employee.Employee {
	return slices.Clone(s.records)
}

func TestView_Defaults(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(3)}, 0)
	state := v.State()

	assert.Equal(t, "", state.SearchQuery)
	assert.Equal(t, SortNone, state.SortKey)
	assert.Equal(t, Ascending, state.SortDirection)
	assert.Equal(t, DefaultPageSize, state.PageSize)
	assert.Equal(t, 1, state.CurrentPage)
}

func TestView_NavigationBounds(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(25)}, 10)

	page := v.PreviousPage()
	assert.Equal(t, 1, page.CurrentPage, "previous at page 1 is a no-op")

	v.NextPage()
	page = v.NextPage()
	assert.Equal(t, 3, page.CurrentPage)
	assert.Len(t, page.Rows, 5)

	page = v.NextPage()
	assert.Equal(t, 3, page.CurrentPage, "next at last page is a no-op")
	assert.Equal(t, 3, v.State().CurrentPage)

	page = v.PreviousPage()
	assert.Equal(t, 2, page.CurrentPage)
}

func TestView_SearchAndPageSizeResetPage(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(60)}, 10)
	v.SetPage(4)
	require.Equal(t, 4, v.State().CurrentPage)

	page := v.SetSearch("first")
	assert.Equal(t, 1, page.CurrentPage)

	v.SetPage(3)
	page, err := v.SetPageSize(25)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 25, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
}

func TestView_SortKeepsPage(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(30)}, 10)
	v.SetPage(2)

	page, err := v.RequestSort(SortFirstName)
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)

	page, err = v.RequestSort(SortFirstName)
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, Descending, v.State().SortDirection)
	assert.Equal(t, "First19", page.Rows[0].FirstName)
}

func TestView_DoubleToggleEqualsSingleAscending(t *testing.T) {
	t.Parallel()

	records := []employee.Employee{
		record("1", "A", "Miller", "Sales", "X", "CA"),
		record("2", "B", "Baker", "Sales", "X", "CA"),
		record("3", "C", "Young", "Sales", "X", "CA"),
	}

	single := NewView(&staticSource{records: records}, 10)
	ascending, err := single.RequestSort(SortLastName)
	require.NoError(t, err)

	triple := NewView(&staticSource{records: records}, 10)
	_, _ = triple.RequestSort(SortLastName)
	descending, err := triple.RequestSort(SortLastName)
	require.NoError(t, err)
	back, err := triple.RequestSort(SortLastName)
	require.NoError(t, err)

	assert.Equal(t, ids(ascending.Rows), ids(back.Rows))
	assert.Equal(t, Ascending, triple.State().SortDirection)

	reversed := ids(descending.Rows)
	slices.Reverse(reversed)
	assert.Equal(t, ids(ascending.Rows), reversed)
}

func TestView_RequestSortRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(3)}, 10)

	_, err := v.RequestSort("salary")
	assert.ErrorIs(t, err, ErrInvalidSortKey)
	_, err = v.RequestSort(SortNone)
	assert.ErrorIs(t, err, ErrInvalidSortKey)
	assert.Equal(t, SortNone, v.State().SortKey)
}

func TestView_SetPageSizeRejectsNonPositive(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(3)}, 10)

	_, err := v.SetPageSize(0)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	assert.Equal(t, 10, v.State().PageSize)
}

func TestView_SetSortExplicitAndClear(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(3)}, 10)

	page, err := v.SetSort(SortFirstName, Descending)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "0"}, ids(page.Rows))

	page, err = v.SetSort(SortNone, Ascending)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, ids(page.Rows))
}

func TestView_RecomputesOnStoreMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := employee.NewStore(ctx, nil, nil)
	for _, r := range numbered(21) {
		require.NoError(t, store.Add(ctx, r))
	}

	v := NewView(store, 10)
	unbind := v.Bind(store)
	defer unbind()

	var pages []Page
	unsubscribe := v.Subscribe(func(p Page) { pages = append(pages, p) })
	defer unsubscribe()

	v.SetPage(3)
	require.Equal(t, 3, v.State().CurrentPage)

	// 3 ページ目の唯一の行を消すとページ番号が丸められる
	require.NoError(t, store.Delete(ctx, "20"))

	require.Len(t, pages, 2)
	last := pages[len(pages)-1]
	assert.Equal(t, 2, last.CurrentPage)
	assert.Equal(t, 2, last.TotalPages)
	assert.Equal(t, 20, last.TotalFiltered)
	assert.Equal(t, 2, v.State().CurrentPage)

	require.NoError(t, store.Add(ctx, record("new", "Newbie", "Doe", "Legal", "Town", "NY")))
	assert.Equal(t, 21, v.Current().TotalFiltered)
	assert.Len(t, pages, 3)
}

func TestView_SubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(5)}, 10)

	calls := 0
	unsubscribe := v.Subscribe(func(Page) { calls++ })
	v.SetSearch("first0")
	unsubscribe()
	v.SetSearch("")

	assert.Equal(t, 1, calls)
}

func ExampleCompute() {
	records := []employee.Employee{
		record("1", "John", "Doe", "IT", "Anytown", "CA"),
		record("2", "Jane", "Roe", "Legal", "Boston", "MA"),
	}
	state := DefaultViewState()
	state.SearchQuery = "doe"

	page := Compute(records, state)
	fmt.Println(page.TotalFiltered, page.Rows[0].FirstName, page.TotalPages)
	// Output: 1 John 1
}

func TestView_MatchingIgnoresPagination(t *testing.T) {
	t.Parallel()

	v := NewView(&staticSource{records: numbered(30)}, 10)
	v.SetSearch("first1")
	_, err := v.SetSort(SortFirstName, Descending)
	require.NoError(t, err)

	got := v.Matching()
	assert.Equal(t, []string{"19", "18", "17", "16", "15", "14", "13", "12", "11", "10"}, ids(got))
}
