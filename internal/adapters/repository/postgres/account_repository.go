package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/account"
	pgdb "github.com/ogurasousui/hrms-clean-arch/internal/platform/db/postgres"
)

const accountColumns = "id, email, password_hash, role, employee_id, created_at, updated_at"

// AccountRepository は PostgreSQL を利用したアカウント永続化の実装です。
type AccountRepository struct {
	pool pgdb.Queryer
}

// NewAccountRepository は AccountRepository を生成します。
func NewAccountRepository(pool pgdb.Queryer) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create はアカウントを新規作成します。
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) (*account.Account, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO accounts (email, password_hash, role, employee_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+accountColumns,
		a.Email,
		a.PasswordHash,
		string(a.Role),
		a.EmployeeID,
		a.CreatedAt,
		a.UpdatedAt,
	)

	created, err := scanAccount(row)
	if err != nil {
		return nil, translateAccountPgError(err)
	}
	return created, nil
}

// FindByID は ID でアカウントを取得します。
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*account.Account, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+accountColumns+`
          FROM accounts
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAccount(row)
	if err != nil {
		return nil, translateAccountPgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスでアカウントを取得します。
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+accountColumns+`
          FROM accounts
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanAccount(row)
	if err != nil {
		return nil, translateAccountPgError(err)
	}
	return found, nil
}

// UpdatePasswordHash は資格情報ハッシュのみを更新します。
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE accounts
           SET password_hash = $1,
               updated_at = now()
         WHERE id = $2
    `, passwordHash, id)
	if err != nil {
		return translateAccountPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

// Delete はアカウントを削除します。
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return translateAccountPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		id, email, passwordHash, role string
		employeeID                    sql.NullString
		createdAt, updatedAt          time.Time
	)

	if err := row.Scan(&id, &email, &passwordHash, &role, &employeeID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, err
	}

	a := &account.Account{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         account.Role(role),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if employeeID.Valid {
		v := employeeID.String
		a.EmployeeID = &v
	}
	return a, nil
}

func translateAccountPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return account.ErrEmailAlreadyExists
		}
	}
	return err
}
