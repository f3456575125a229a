package employeelist

import (
	"errors"
	"fmt"
	"time"

	"github.com/ogurasousui/hrnet/internal/core/employee"
)

var (
	ErrInvalidSortKey   = errors.New("employeelist: invalid sort key")
	ErrInvalidPageSize  = errors.New("employeelist: invalid page size")
	ErrInvalidDirection = errors.New("employeelist: invalid sort direction")
)

// SortKey は並べ替え対象の項目名です。空文字は並べ替えなしを表します。
type SortKey string

const (
	SortNone        SortKey = ""
	SortFirstName   SortKey = "firstName"
	SortLastName    SortKey = "lastName"
	SortStartDate   SortKey = "startDate"
	SortDepartment  SortKey = "department"
	SortDateOfBirth SortKey = "dateOfBirth"
	SortStreet      SortKey = "street"
	SortCity        SortKey = "city"
	SortState       SortKey = "state"
	SortZipCode     SortKey = "zipCode"
)

// Column は一覧表の列定義です。
type Column struct {
	Key   SortKey
	Label string
}

// Columns は一覧表の列を表示順で返します。
func Columns() []Column {
	return []Column{
		{SortFirstName, "First Name"},
		{SortLastName, "Last Name"},
		{SortStartDate, "Start Date"},
		{SortDepartment, "Department"},
		{SortDateOfBirth, "Date of Birth"},
		{SortStreet, "Street"},
		{SortCity, "City"},
		{SortState, "State"},
		{SortZipCode, "Zip Code"},
	}
}

// CellText は列に表示する文字列を返します。日付は YYYY-MM-DD で表示します。
func CellText(e employee.Employee, key SortKey) string {
	switch key {
	case SortFirstName:
		return e.FirstName
	case SortLastName:
		return e.LastName
	case SortStartDate:
		return e.StartDate.Format(time.DateOnly)
	case SortDepartment:
		return string(e.Department)
	case SortDateOfBirth:
		return e.DateOfBirth.Format(time.DateOnly)
	case SortStreet:
		return e.Street
	case SortCity:
		return e.City
	case SortState:
		return e.State
	case SortZipCode:
		return e.ZipCode
	default:
		return ""
	}
}

// ParseSortKey は文字列を SortKey に変換します。
func ParseSortKey(raw string) (SortKey, error) {
	if raw == "" {
		return SortNone, nil
	}
	for _, c := range Columns() {
		if string(c.Key) == raw {
			return c.Key, nil
		}
	}
	return SortNone, fmt.Errorf("%q: %w", raw, ErrInvalidSortKey)
}

// SortDirection は並べ替えの方向です。
type SortDirection string

const (
	Ascending  SortDirection = "ascending"
	Descending SortDirection = "descending"
)

// ParseSortDirection は "ascending"/"asc" と "descending"/"desc" を受け付けます。
func ParseSortDirection(raw string) (SortDirection, error) {
	switch raw {
	case "", "asc", string(Ascending):
		return Ascending, nil
	case "desc", string(Descending):
		return Descending, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidDirection)
	}
}

const (
	DefaultPageSize = 10
	firstPage       = 1
)

// PageSizeOptions は表示件数として選択できる値です。
func PageSizeOptions() []int {
	return []int{10, 25, 50, 100}
}

// ViewState は一覧表示を決定するユーザー操作由来のパラメータです。永続化はされません。
type ViewState struct {
	SearchQuery   string
	SortKey       SortKey
	SortDirection SortDirection
	PageSize      int
	CurrentPage   int
}

// DefaultViewState は初期表示の ViewState を返します。
func DefaultViewState() ViewState {
	return ViewState{
		SortDirection: Ascending,
		PageSize:      DefaultPageSize,
		CurrentPage:   firstPage,
	}
}

// ToggleSort は見出しクリック時の並べ替え状態を返します。
// 同じ列なら方向を反転し、別の列なら昇順で切り替えます。
func (s ViewState) ToggleSort(key SortKey) ViewState {
	direction := Ascending
	if s.SortKey == key && s.SortDirection == Ascending {
		direction = Descending
	}
	s.SortKey = key
	s.SortDirection = direction
	return s
}

func (s ViewState) normalized() ViewState {
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.CurrentPage < firstPage {
		s.CurrentPage = firstPage
	}
	if s.SortDirection == "" {
		s.SortDirection = Ascending
	}
	return s
}
