package employee

import (
	"errors"
	"strings"
)

var (
	ErrInvalidID        = errors.New("employee: invalid id")
	ErrValidation       = errors.New("employee: validation failed")
	ErrDuplicateID      = errors.New("employee: id already exists")
	ErrEmployeeNotFound = errors.New("employee: not found")
	ErrPersistence      = errors.New("employee: persistence failed")
)

// RequiredMessage は必須項目が未入力の場合のメッセージです。
const RequiredMessage = "This field is required"

// FieldError は項目単位の検証エラーです。
type FieldError struct {
	Field   string
	Message string
}

// ValidationError は検証に失敗した項目の一覧を保持します。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is は errors.Is(err, ErrValidation) を成立させます。
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field は指定項目のエラーメッセージを返します。
func (e *ValidationError) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message, true
		}
	}
	return "", false
}
