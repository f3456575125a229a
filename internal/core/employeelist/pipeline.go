package employeelist

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/ogurasousui/hrnet/internal/core/employee"
)

// Page はページングされた一覧の 1 ページ分とメタデータです。
type Page struct {
	Rows          []employee.Employee
	TotalFiltered int
	CurrentPage   int
	TotalPages    int
	PageSize      int
}

// Empty は表示すべき行が存在しないかを返します ("No data available in table")。
func (p Page) Empty() bool {
	return len(p.Rows) == 0
}

// FirstEntry は表示中の先頭行の 1 始まりの番号です。行がない場合は 0 です。
func (p Page) FirstEntry() int {
	if p.Empty() {
		return 0
	}
	return (p.CurrentPage-1)*p.PageSize + 1
}

// LastEntry は表示中の末尾行の 1 始まりの番号です。
func (p Page) LastEntry() int {
	if p.Empty() {
		return 0
	}
	return p.FirstEntry() + len(p.Rows) - 1
}

// HasPrevious は前ページへ移動できるかを返します。
func (p Page) HasPrevious() bool {
	return p.CurrentPage > firstPage
}

// HasNext は次ページへ移動できるかを返します。
func (p Page) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// Compute はスナップショットと ViewState から絞り込み・並べ替え・ページングを行います。
// 出力は入力のみから決まり、CurrentPage は [1, TotalPages] に丸められます。
func Compute(snapshot []employee.Employee, state ViewState) Page {
	state = state.normalized()

	filtered := Filter(snapshot, state.SearchQuery)
	sorted := Sort(filtered, state.SortKey, state.SortDirection)

	total := TotalPages(len(sorted), state.PageSize)
	current := ClampPage(state.CurrentPage, total)

	return Page{
		Rows:          Paginate(sorted, state.PageSize, current),
		TotalFiltered: len(sorted),
		CurrentPage:   current,
		TotalPages:    total,
		PageSize:      state.PageSize,
	}
}

// Filter は名・姓・部署・市・州のいずれかに大文字小文字を区別せず query を含むレコードを返します。
func Filter(records []employee.Employee, query string) []employee.Employee {
	out := make([]employee.Employee, 0, len(records))
	if query == "" {
		return append(out, records...)
	}

	needle := strings.ToLower(query)
	for _, r := range records {
		if matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r employee.Employee, needle string) bool {
	for _, field := range []string{r.FirstName, r.LastName, string(r.Department), r.City, r.State} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Sort は key による安定ソートを行った新しいスライスを返します。key が空なら順序を保持します。
func Sort(records []employee.Employee, key SortKey, direction SortDirection) []employee.Employee {
	out := slices.Clone(records)
	compare := comparator(key)
	if compare == nil {
		return out
	}

	if direction == Descending {
		slices.SortStableFunc(out, func(a, b employee.Employee) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(key SortKey) func(a, b employee.Employee) int {
	byString := func(get func(employee.Employee) string) func(a, b employee.Employee) int {
		return func(a, b employee.Employee) int { return cmp.Compare(get(a), get(b)) }
	}

	switch key {
	case SortFirstName:
		return byString(func(e employee.Employee) string { return e.FirstName })
	case SortLastName:
		return byString(func(e employee.Employee) string { return e.LastName })
	case SortDepartment:
		return byString(func(e employee.Employee) string { return string(e.Department) })
	case SortStreet:
		return byString(func(e employee.Employee) string { return e.Street })
	case SortCity:
		return byString(func(e employee.Employee) string { return e.City })
	case SortState:
		return byString(func(e employee.Employee) string { return e.State })
	case SortDateOfBirth:
		return func(a, b employee.Employee) int { return a.DateOfBirth.Compare(b.DateOfBirth) }
	case SortStartDate:
		return func(a, b employee.Employee) int { return a.StartDate.Compare(b.StartDate) }
	case SortZipCode:
		return func(a, b employee.Employee) int { return compareNumericLike(a.ZipCode, b.ZipCode) }
	default:
		return nil
	}
}

// compareNumericLike は数値同士なら数値として比較し、数値は非数値より前に並べます。
func compareNumericLike(a, b string) int {
	na, errA := strconv.ParseUint(strings.TrimSpace(a), 10, 64)
	nb, errB := strconv.ParseUint(strings.TrimSpace(b), 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// TotalPages は max(1, ceil(count/pageSize)) を返します。
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return max(firstPage, (count+pageSize-1)/pageSize)
}

// ClampPage は page を [1, totalPages] に収めます。
func ClampPage(page, totalPages int) int {
	return min(max(page, firstPage), max(totalPages, firstPage))
}

// Paginate は 1 始まりの page に該当する [(page-1)*size, page*size) を返します。
func Paginate(records []employee.Employee, pageSize, page int) []employee.Employee {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	start := (max(page, firstPage) - 1) * pageSize
	if start >= len(records) {
		return []employee.Employee{}
	}
	end := min(start+pageSize, len(records))
	return slices.Clone(records[start:end])
}
