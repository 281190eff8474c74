package account

import "context"

// Repository はアカウント永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// PasswordHasher は一方向ハッシュの抽象です。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(hash, plaintext string) error
}

// TokenIssuer はアクセストークン発行の抽象です。
type TokenIssuer interface {
	Issue(accountID, role string) (string, error)
}
