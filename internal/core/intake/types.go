package intake

import "context"

// ExtractedEmployee は抽出サービスが返す 1 名分の構造化データです。
// モデル出力であるため信頼せず、利用前に検証します。
type ExtractedEmployee struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
	StartDate  string `json:"start_date"`
}

// Outcome はレコード単位の処理結果タグです。
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeError          Outcome = "error"
)

// RecordResult は抽出された 1 名に対するプロビジョニング結果です。
type RecordResult struct {
	Extracted  ExtractedEmployee
	Outcome    Outcome
	Message    string
	EmployeeID string
	AccountID  string
	EmailSent  bool
}

// Summary はバッチ全体の集計です。
type Summary struct {
	TotalProcessed      int
	SuccessfulCreations int
	EmailsSent          int
	Skipped             int
	Errors              int
}

// BatchReport は取り込みバッチの全結果です。
type BatchReport struct {
	Results []RecordResult
	Summary Summary
}

// Extractor は外部のテキスト生成サービスの抽象です。
// 構成されていない場合は nil になり得ます(ケイパビリティ不在)。
type Extractor interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// WelcomeMail は新規社員への通知メールの内容です。
type WelcomeMail struct {
	To           string
	FirstName    string
	TempPassword string
}

// Mailer は通知メール送信の抽象です。
type Mailer interface {
	SendWelcome(ctx context.Context, m WelcomeMail) error
}

// TransactionManager は社員とアカウントを 1 つの原子的な単位で作成するための抽象です。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}
