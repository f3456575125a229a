package employee

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout は日付を永続化する際の ISO-8601 形式です。
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Department は所属部署を表します。
type Department string

const (
	DepartmentSales          Department = "Sales"
	DepartmentMarketing      Department = "Marketing"
	DepartmentEngineering    Department = "Engineering"
	DepartmentHumanResources Department = "Human Resources"
	DepartmentLegal          Department = "Legal"
)

// Departments は選択可能な部署を表示順で返します。
func Departments() []Department {
	return []Department{
		DepartmentSales,
		DepartmentMarketing,
		DepartmentEngineering,
		DepartmentHumanResources,
		DepartmentLegal,
	}
}

// IsKnownDepartment は部署が列挙値に含まれるかを判定します。
func IsKnownDepartment(d Department) bool {
	for _, known := range Departments() {
		if d == known {
			return true
		}
	}
	return false
}

// Employee は社員レコードです。
type Employee struct {
	ID          string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	StartDate   time.Time
	Street      string
	City        string
	State       string
	ZipCode     string
	Department  Department
}

type employeeJSON struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	StartDate   string `json:"startDate"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	Department  string `json:"department"`
}

// MarshalJSON は日付を ISO-8601 文字列として出力します。
func (e Employee) MarshalJSON() ([]byte, error) {
	return json.Marshal(employeeJSON{
		ID:          e.ID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		DateOfBirth: formatTimestamp(e.DateOfBirth),
		StartDate:   formatTimestamp(e.StartDate),
		Street:      e.Street,
		City:        e.City,
		State:       e.State,
		ZipCode:     e.ZipCode,
		Department:  string(e.Department),
	})
}

// UnmarshalJSON は ISO-8601 または YYYY-MM-DD の日付を受け付けます。
func (e *Employee) UnmarshalJSON(b []byte) error {
	var raw employeeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	dob, err := parseTimestamp(raw.DateOfBirth)
	if err != nil {
		return fmt.Errorf("dateOfBirth: %w", err)
	}
	start, err := parseTimestamp(raw.StartDate)
	if err != nil {
		return fmt.Errorf("startDate: %w", err)
	}

	*e = Employee{
		ID:          raw.ID,
		FirstName:   raw.FirstName,
		LastName:    raw.LastName,
		DateOfBirth: dob,
		StartDate:   start,
		Street:      raw.Street,
		City:        raw.City,
		State:       raw.State,
		ZipCode:     raw.ZipCode,
		Department:  Department(raw.Department),
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return ParseDate(raw)
}

// ParseDate は RFC 3339 もしくは YYYY-MM-DD 形式の日付を UTC に正規化して返します。
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or ISO-8601", raw)
	}
	return t, nil
}
