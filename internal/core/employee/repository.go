package employee

import "context"

// Repository は社員一覧のスナップショット永続化の抽象です。
// Load は保存済みの状態が存在しない場合に空のスライスと nil を返します。
type Repository interface {
	Load(ctx context.Context) ([]Employee, error)
	Save(ctx context.Context, employees []Employee) error
}
