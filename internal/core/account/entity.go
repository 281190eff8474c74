package account

import "time"

// Role はアカウントの権限ロールを表します。
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Account はログインアカウントエンティティです。メールアドレスで一意です。
// EmployeeID は社員レコードへの参照であり所有関係ではありません。
// 社員が削除された場合はストア側でアカウントもカスケード削除されます。
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	EmployeeID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
