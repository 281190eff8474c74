package employee

import "time"

// Status は社員の状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Employee は人事レコードとしての社員エンティティです。メールアドレスで一意です。
type Employee struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	JobTitle   string
	Department string
	StartDate  *time.Time
	Status     Status
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
