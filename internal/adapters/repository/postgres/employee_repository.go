package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/employee"
	pgdb "github.com/ogurasousui/hrms-clean-arch/internal/platform/db/postgres"
)

const uniqueViolationCode = "23505"

const employeeColumns = "id, first_name, last_name, email, job_title, department, start_date, status, created_by, created_at, updated_at"

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (first_name, last_name, email, job_title, department, start_date, status, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+employeeColumns,
		e.FirstName,
		e.LastName,
		e.Email,
		e.JobTitle,
		e.Department,
		nullableTime(e.StartDate),
		string(e.Status),
		e.CreatedBy,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET first_name = $1,
               last_name = $2,
               job_title = $3,
               department = $4,
               start_date = $5,
               status = $6,
               updated_at = $7
         WHERE id = $8
        RETURNING `+employeeColumns,
		e.FirstName,
		e.LastName,
		e.JobTitle,
		e.Department,
		nullableTime(e.StartDate),
		string(e.Status),
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。紐づくアカウントは外部キーでカスケード削除されます。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスで社員を取得します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は型付きフィルタから WHERE 句を組み立てて一覧と総件数を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, int, string, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	where, args := buildEmployeeWhere(filter)

	var total int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
		return nil, 0, "", fmt.Errorf("postgres: count employees: %w", err)
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + where +
		` ORDER BY created_at, id LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, "", fmt.Errorf("postgres: list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, "", err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, "", fmt.Errorf("postgres: list employees rows: %w", err)
	}

	var nextToken string
	if filter.Offset+len(employees) < total {
		nextToken = strconv.Itoa(filter.Offset + len(employees))
	}

	return employees, total, nextToken, nil
}

func buildEmployeeWhere(filter employee.ListEmployeesFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conds = append(conds, "department = $"+strconv.Itoa(len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(first_name ILIKE $"+n+" OR last_name ILIKE $"+n+" OR email ILIKE $"+n+" OR job_title ILIKE $"+n+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id, firstName, lastName, email string
		jobTitle, department           string
		startDate                      sql.NullTime
		status, createdBy              string
		createdAt, updatedAt           time.Time
	)

	if err := row.Scan(&id, &firstName, &lastName, &email, &jobTitle, &department, &startDate, &status, &createdBy, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e := &employee.Employee{
		ID:         id,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		JobTitle:   jobTitle,
		Department: department,
		Status:     employee.Status(status),
		CreatedBy:  createdBy,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
	if startDate.Valid {
		t := startDate.Time
		e.StartDate = &t
	}
	return e, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func translateEmployeePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return employee.ErrEmailAlreadyExists
		}
	}
	return err
}
