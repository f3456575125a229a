package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxGeneratedIDAttempts = 5

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service は社員に関するユースケースをまとめます。
type Service struct {
	store *Store
	ids   IDGenerator
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
	SaveEmployee(ctx context.Context, in SaveEmployeeInput) (*Employee, error)
}

// NewService は Service を生成します。ids が nil の場合は作成時刻ベースの ID を使用します。
func NewService(store *Store, ids IDGenerator) *Service {
	if ids == nil {
		ids = NewTimestampIDGenerator(nil)
	}
	return &Service{store: store, ids: ids}
}

// CreateEmployeeInput は社員作成時の入力です。ID が空の場合は払い出します。
type CreateEmployeeInput struct {
	ID     string
	Fields Input
	Strict bool
}

// UpdateEmployeeInput は社員更新時の入力です。
type UpdateEmployeeInput struct {
	ID     string
	Fields Input
	Strict bool
}

// SaveEmployeeInput はフォーム送信時の入力です。ID の有無で作成と更新を切り替えます。
type SaveEmployeeInput struct {
	ID     string
	Fields Input
	Strict bool
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// CreateEmployee は新しい社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	e, err := validate(in.Fields, in.Strict)
	if err != nil {
		return nil, err
	}

	e.ID = strings.TrimSpace(in.ID)
	if e.ID != "" {
		if err := s.store.Add(ctx, e); err != nil {
			return nil, err
		}
		return &e, nil
	}

	// 払い出した ID が既存レコードと衝突した場合は引き直す
	for attempt := 1; ; attempt++ {
		e.ID = s.ids.NewID()
		err := s.store.Add(ctx, e)
		if err == nil {
			return &e, nil
		}
		if !errors.Is(err, ErrDuplicateID) || attempt == maxGeneratedIDAttempts {
			return nil, err
		}
	}
}

// UpdateEmployee は社員情報を置き換えます。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	e, err := validate(in.Fields, in.Strict)
	if err != nil {
		return nil, err
	}
	e.ID = id

	if err := s.store.Edit(ctx, id, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveEmployee は ID が空なら作成、そうでなければ更新を行います。
func (s *Service) SaveEmployee(ctx context.Context, in SaveEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return s.CreateEmployee(ctx, CreateEmployeeInput{Fields: in.Fields, Strict: in.Strict})
	}
	return s.UpdateEmployee(ctx, UpdateEmployeeInput(in))
}

// DeleteEmployee は社員を削除します。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	return s.store.Delete(ctx, id)
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(_ context.Context, in GetEmployeeInput) (*Employee, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	found, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// ToInput は既存レコードを編集フォームの初期値へ変換します。
func ToInput(e Employee) Input {
	return Input{
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		DateOfBirth: e.DateOfBirth.Format(time.DateOnly),
		StartDate:   e.StartDate.Format(time.DateOnly),
		Street:      e.Street,
		City:        e.City,
		State:       e.State,
		ZipCode:     e.ZipCode,
		Department:  string(e.Department),
	}
}

func validate(in Input, strict bool) (Employee, error) {
	if strict {
		return ValidateStrict(in)
	}
	return Validate(in)
}
