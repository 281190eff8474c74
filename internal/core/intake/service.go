package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/hrms-clean-arch/internal/core/account"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/employee"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// EmployeeCreator は社員作成ユースケースの抽象です。
type EmployeeCreator interface {
	CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error)
}

// AccountRegistrar はアカウント登録・資格情報更新ユースケースの抽象です。
type AccountRegistrar interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.Account, error)
	RotatePassword(ctx context.Context, accountID, newPassword string) error
}

// Service は自由記述プロンプトから社員・アカウントをプロビジョニングする
// 取り込みワークフローを実装します。
type Service struct {
	employees       employee.Repository
	accounts        account.Repository
	createEmployee  EmployeeCreator
	registerAccount AccountRegistrar
	tx              TransactionManager
	extractor       Extractor // 未構成の場合は nil
	mailer          Mailer
	clock           Clock

	passwordLength int
	systemActorID  string
}

// UseCase は取り込みユースケースの公開インターフェースです。
type UseCase interface {
	Intake(ctx context.Context, prompt, actorID string) (*BatchReport, error)
	ResendWelcomeEmail(ctx context.Context, employeeID string) (bool, error)
}

// Config は Service の動作パラメータです。
type Config struct {
	PasswordLength int
	SystemActorID  string
}

// NewService は Service を生成します。extractor は nil を許容します。
func NewService(
	employees employee.Repository,
	accounts account.Repository,
	createEmployee EmployeeCreator,
	registerAccount AccountRegistrar,
	tx TransactionManager,
	extractor Extractor,
	mailer Mailer,
	clock Clock,
	cfg Config,
) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if cfg.PasswordLength <= 0 {
		cfg.PasswordLength = DefaultPasswordLength
	}
	if cfg.SystemActorID == "" {
		cfg.SystemActorID = "system"
	}
	return &Service{
		employees:       employees,
		accounts:        accounts,
		createEmployee:  createEmployee,
		registerAccount: registerAccount,
		tx:              tx,
		extractor:       extractor,
		mailer:          mailer,
		clock:           clock,
		passwordLength:  cfg.PasswordLength,
		systemActorID:   cfg.SystemActorID,
	}
}

// Intake はプロンプトを抽出サービスへ渡し、得られた社員候補を 1 件ずつ
// 順番にプロビジョニングして集計を返します。
// 個々のレコードの失敗はバッチを止めません。モデル出力が JSON 配列として
// 解釈できない場合のみ *ExtractionError で全体が中断され、1 件も処理されません。
func (s *Service) Intake(ctx context.Context, prompt, actorID string) (*BatchReport, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	if s.extractor == nil {
		return nil, ErrExtractorUnavailable
	}

	instruction := BuildPrompt(prompt, s.clock.Now())

	raw, err := s.extractor.Generate(ctx, instruction)
	if err != nil {
		return nil, &ExtractionError{Detail: "generation call failed", Err: err}
	}

	payload := ExtractJSON(raw)

	var extracted []ExtractedEmployee
	if err := json.Unmarshal([]byte(payload), &extracted); err != nil {
		return nil, &ExtractionError{Detail: "model output is not a JSON array", Err: err}
	}

	report := &BatchReport{Results: make([]RecordResult, 0, len(extracted))}
	for _, e := range extracted {
		result := s.provision(ctx, e, actorID)
		report.Results = append(report.Results, result)

		report.Summary.TotalProcessed++
		switch result.Outcome {
		case OutcomeSuccess, OutcomePartialSuccess:
			report.Summary.SuccessfulCreations++
		case OutcomeSkipped:
			report.Summary.Skipped++
		case OutcomeError:
			report.Summary.Errors++
		}
		if result.EmailSent {
			report.Summary.EmailsSent++
		}
	}

	return report, nil
}

// provision は抽出された 1 名を冪等にプロビジョニングします。
//
//  1. 同じメールアドレスの社員が既に存在すれば skipped。
//  2. 社員が無いのにアカウントだけ存在する場合は不整合として error(自動修復しない)。
//  3. 一時パスワードを生成する(平文は保存されず、ハッシュのみ永続化される)。
//  4. 社員とアカウントを 1 トランザクションで作成する。失敗時は error、部分的な行は残らない。
//  5. 平文パスワードをメールで送る。送信失敗は partial_success であり、作成済みレコードは巻き戻さない。
func (s *Service) provision(ctx context.Context, extracted ExtractedEmployee, actorID string) RecordResult {
	result := RecordResult{Extracted: extracted}

	email, err := normalizeExtractedEmail(extracted.Email)
	if err != nil {
		result.Outcome = OutcomeError
		result.Message = fmt.Sprintf("invalid or unknown email %q", extracted.Email)
		return result
	}

	existing, err := s.employees.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, employee.ErrEmployeeNotFound) {
		result.Outcome = OutcomeError
		result.Message = fmt.Sprintf("employee lookup failed: %v", err)
		return result
	}
	if existing != nil {
		result.Outcome = OutcomeSkipped
		result.EmployeeID = existing.ID
		result.Message = fmt.Sprintf("employee with email %s already exists", email)
		return result
	}

	orphan, err := s.accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, account.ErrAccountNotFound) {
		result.Outcome = OutcomeError
		result.Message = fmt.Sprintf("account lookup failed: %v", err)
		return result
	}
	if orphan != nil {
		result.Outcome = OutcomeError
		result.Message = fmt.Sprintf("account with email %s exists without an employee record; manual intervention required", email)
		return result
	}

	password, err := GeneratePassword(s.passwordLength)
	if err != nil {
		result.Outcome = OutcomeError
		result.Message = err.Error()
		return result
	}

	createdBy := strings.TrimSpace(actorID)
	if createdBy == "" {
		createdBy = s.systemActorID
	}

	startDate, dateNote := parseStartDate(extracted.StartDate)

	var (
		createdEmployee *employee.Employee
		createdAccount  *account.Account
	)
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.createEmployee.CreateEmployee(txCtx, employee.CreateEmployeeInput{
			FirstName:  strings.TrimSpace(extracted.FirstName),
			LastName:   strings.TrimSpace(extracted.LastName),
			Email:      email,
			JobTitle:   cleanField(extracted.JobTitle),
			Department: cleanField(extracted.Department),
			StartDate:  startDate,
			CreatedBy:  createdBy,
		})
		if err != nil {
			return fmt.Errorf("create employee: %w", err)
		}

		acct, err := s.registerAccount.Register(txCtx, account.RegisterInput{
			Email:      email,
			Password:   password,
			EmployeeID: &emp.ID,
		})
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		createdEmployee = emp
		createdAccount = acct
		return nil
	})
	if err != nil {
		result.Outcome = OutcomeError
		result.Message = err.Error()
		return result
	}

	result.EmployeeID = createdEmployee.ID
	result.AccountID = createdAccount.ID

	if err := s.mailer.SendWelcome(ctx, WelcomeMail{
		To:           email,
		FirstName:    createdEmployee.FirstName,
		TempPassword: password,
	}); err != nil {
		result.Outcome = OutcomePartialSuccess
		result.Message = fmt.Sprintf("employee and account created; welcome email not delivered: %v", err) + dateNote
		return result
	}

	result.Outcome = OutcomeSuccess
	result.EmailSent = true
	result.Message = "employee and account created; welcome email sent" + dateNote
	return result
}

// ResendWelcomeEmail は既存社員に対して資格情報を再発行し通知メールを送り直します。
// レコードを新規作成することはなく、プロビジョニングとは独立した操作です。
// メール送信に失敗した場合は (false, nil) を返します(パスワードは更新済み)。
func (s *Service) ResendWelcomeEmail(ctx context.Context, employeeID string) (bool, error) {
	if strings.TrimSpace(employeeID) == "" {
		return false, fmt.Errorf("employee id: %w", employee.ErrInvalidID)
	}

	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return false, err
	}

	acct, err := s.accounts.FindByEmail(ctx, emp.Email)
	if err != nil {
		return false, err
	}

	password, err := GeneratePassword(s.passwordLength)
	if err != nil {
		return false, err
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.registerAccount.RotatePassword(txCtx, acct.ID, password)
	}); err != nil {
		return false, err
	}

	if err := s.mailer.SendWelcome(ctx, WelcomeMail{
		To:           emp.Email,
		FirstName:    emp.FirstName,
		TempPassword: password,
	}); err != nil {
		return false, nil
	}

	return true, nil
}

func normalizeExtractedEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, unknownToken) {
		return "", employee.ErrInvalidEmail
	}
	return employee.NormalizeEmail(trimmed)
}

// parseStartDate は YYYY-MM-DD を期待しつつ、"unknown"・空文字・壊れた日付を
// nil として受け流します。日付が無くてもレコード自体は作成されます。
func parseStartDate(raw string) (*time.Time, string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, unknownToken) {
		return nil, ""
	}

	t, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return nil, fmt.Sprintf("; start date %q could not be parsed and was left empty", trimmed)
	}

	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized, ""
}

// cleanField は任意フィールドの unknown トークンを空文字へ落とします。
// 氏名は抽出値のまま保持されるため対象外です。
func cleanField(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, unknownToken) {
		return ""
	}
	return trimmed
}
