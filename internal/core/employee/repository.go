package employee

import "context"

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, int, string, error)
}

// ListEmployeesFilter は一覧取得用の型付きフィルタです。
// リクエストごとの動的なフィルタオブジェクトは境界で本構造体へ変換されます。
type ListEmployeesFilter struct {
	Status     *Status
	Department string
	Query      string
	Limit      int
	Offset     int
}
