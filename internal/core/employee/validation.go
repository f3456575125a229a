package employee

import (
	"strings"
	"time"
)

// 項目名は永続化形式のキーと揃えています。
const (
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldDateOfBirth = "dateOfBirth"
	FieldStartDate   = "startDate"
	FieldStreet      = "street"
	FieldCity        = "city"
	FieldState       = "state"
	FieldZipCode     = "zipCode"
	FieldDepartment  = "department"
)

// Input はフォーム層から渡される未検証の入力です。
type Input struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	StartDate   string
	Street      string
	City        string
	State       string
	ZipCode     string
	Department  string
}

// Validate は入力の必須チェックと日付の正規化を行い、ID 未設定の Employee を返します。
func Validate(in Input) (Employee, error) {
	var fields []FieldError
	text := func(name, raw string) string {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			fields = append(fields, FieldError{Field: name, Message: RequiredMessage})
		}
		return trimmed
	}
	date := func(name, raw string) time.Time {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			fields = append(fields, FieldError{Field: name, Message: RequiredMessage})
			return time.Time{}
		}
		t, err := ParseDate(trimmed)
		if err != nil {
			fields = append(fields, FieldError{Field: name, Message: "Invalid date"})
			return time.Time{}
		}
		return t
	}

	e := Employee{
		FirstName:   text(FieldFirstName, in.FirstName),
		LastName:    text(FieldLastName, in.LastName),
		DateOfBirth: date(FieldDateOfBirth, in.DateOfBirth),
		StartDate:   date(FieldStartDate, in.StartDate),
		Street:      text(FieldStreet, in.Street),
		City:        text(FieldCity, in.City),
		State:       text(FieldState, in.State),
		ZipCode:     text(FieldZipCode, in.ZipCode),
		Department:  Department(text(FieldDepartment, in.Department)),
	}

	if len(fields) > 0 {
		return Employee{}, &ValidationError{Fields: fields}
	}
	return e, nil
}

// ValidateStrict は Validate に加えて州コードと部署が列挙値に含まれるかを検証します。
func ValidateStrict(in Input) (Employee, error) {
	e, err := Validate(in)
	verr, _ := err.(*ValidationError)
	if err != nil && verr == nil {
		return Employee{}, err
	}
	if verr == nil {
		verr = &ValidationError{}
	}

	state := strings.ToUpper(strings.TrimSpace(in.State))
	if state != "" && !IsKnownState(state) {
		verr.Fields = append(verr.Fields, FieldError{Field: FieldState, Message: "Unknown state"})
	}
	dept := Department(strings.TrimSpace(in.Department))
	if dept != "" && !IsKnownDepartment(dept) {
		verr.Fields = append(verr.Fields, FieldError{Field: FieldDepartment, Message: "Unknown department"})
	}

	if len(verr.Fields) > 0 {
		return Employee{}, verr
	}
	e.State = state
	return e, nil
}

// checkRequired はストアに入る直前のレコードが全項目を満たすかを確認します。
func checkRequired(e Employee) error {
	var fields []FieldError
	require := func(name string, missing bool) {
		if missing {
			fields = append(fields, FieldError{Field: name, Message: RequiredMessage})
		}
	}
	require(FieldFirstName, strings.TrimSpace(e.FirstName) == "")
	require(FieldLastName, strings.TrimSpace(e.LastName) == "")
	require(FieldDateOfBirth, e.DateOfBirth.IsZero())
	require(FieldStartDate, e.StartDate.IsZero())
	require(FieldStreet, strings.TrimSpace(e.Street) == "")
	require(FieldCity, strings.TrimSpace(e.City) == "")
	require(FieldState, strings.TrimSpace(e.State) == "")
	require(FieldZipCode, strings.TrimSpace(e.ZipCode) == "")
	require(FieldDepartment, strings.TrimSpace(string(e.Department)) == "")

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
