package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ogurasousui/hrnet/internal/core/employee"
)

const (
	// DefaultKey は状態文書を保存するキーの既定値です。
	DefaultKey = "reduxState"

	sliceKey = "employees"
)

// employeesSlice は {"employees": [...]} 部分の形です。
type employeesSlice struct {
	Employees []employee.Employee `json:"employees"`
}

// Repository は {"employees":{"employees":[...]}} 形式の文書を KeyValue に読み書きします。
type Repository struct {
	kv  KeyValue
	key string
}

// NewRepository は Repository を生成します。key が空の場合は DefaultKey を使用します。
func NewRepository(kv KeyValue, key string) *Repository {
	if key == "" {
		key = DefaultKey
	}
	return &Repository{kv: kv, key: key}
}

// Load は保存済み文書から社員一覧を復元します。文書が存在しない場合は空の一覧を返します。
func (r *Repository) Load(ctx context.Context) ([]employee.Employee, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, ErrKeyNotFound) {
		return []employee.Employee{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", employee.ErrPersistence, r.key, err)
	}

	employees, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", employee.ErrPersistence, err)
	}
	return employees, nil
}

// Save は社員一覧で文書を更新します。文書内の他の最上位キーは保持されます。
// KeyValue が Updater を実装していれば読み書きを不可分に行います。
func (r *Repository) Save(ctx context.Context, employees []employee.Employee) error {
	slice, err := json.Marshal(employeesSlice{Employees: nonNil(employees)})
	if err != nil {
		return fmt.Errorf("%w: encode: %w", employee.ErrPersistence, err)
	}
	merge := func(current []byte, found bool) ([]byte, error) {
		return mergeDocument(current, found, slice)
	}

	if u, ok := r.kv.(Updater); ok {
		if err := u.Update(ctx, r.key, merge); err != nil {
			return fmt.Errorf("%w: update %s: %w", employee.ErrPersistence, r.key, err)
		}
		return nil
	}

	existing, err := r.kv.Get(ctx, r.key)
	found := err == nil
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("%w: read %s: %w", employee.ErrPersistence, r.key, err)
	}

	encoded, err := merge(existing, found)
	if err != nil {
		return fmt.Errorf("%w: %w", employee.ErrPersistence, err)
	}
	if err := r.kv.Set(ctx, r.key, encoded); err != nil {
		return fmt.Errorf("%w: write %s: %w", employee.ErrPersistence, r.key, err)
	}
	return nil
}

func mergeDocument(current []byte, found bool, slice json.RawMessage) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if found {
		// 壊れた既存文書は上書きする
		if err := json.Unmarshal(current, &doc); err != nil || doc == nil {
			doc = map[string]json.RawMessage{}
		}
	}
	doc[sliceKey] = slice

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("localstate: encode document: %w", err)
	}
	return encoded, nil
}

// Decode は状態文書から社員一覧を取り出します。employees キーが無い文書は空として扱います。
func Decode(raw []byte) ([]employee.Employee, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("localstate: parse document: %w", err)
	}

	slice, ok := doc[sliceKey]
	if !ok || string(slice) == "null" {
		return []employee.Employee{}, nil
	}

	var s employeesSlice
	if err := json.Unmarshal(slice, &s); err != nil {
		return nil, fmt.Errorf("localstate: parse employees: %w", err)
	}
	return nonNil(s.Employees), nil
}

func nonNil(employees []employee.Employee) []employee.Employee {
	if employees == nil {
		return []employee.Employee{}
	}
	return employees
}
