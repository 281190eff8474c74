package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ogurasousui/hrms-clean-arch/internal/core/intake"
)

// IntakeHandler は AI 取り込みワークフローのエンドポイントを提供します。
type IntakeHandler struct {
	intake intake.UseCase
}

// NewIntakeHandler は IntakeHandler を生成します。
func NewIntakeHandler(uc intake.UseCase) *IntakeHandler {
	return &IntakeHandler{intake: uc}
}

type recordStatus struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	EmailSent  bool   `json:"email_sent"`
}

type processedEmployee struct {
	FirstName     string       `json:"first_name"`
	LastName      string       `json:"last_name"`
	Email         string       `json:"email"`
	JobTitle      string       `json:"job_title"`
	Department    string       `json:"department"`
	StartDate     string       `json:"start_date"`
	HRMSAPIStatus recordStatus `json:"hrms_api_status"`
}

type intakeSummary struct {
	TotalProcessed      int `json:"total_processed"`
	SuccessfulCreations int `json:"successful_creations"`
	EmailsSent          int `json:"emails_sent"`
	Skipped             int `json:"skipped"`
	Errors              int `json:"errors"`
}

// Create は POST /employees を処理します。自由記述プロンプトから社員を
// 一括プロビジョニングし、レコード単位の結果を混在させたまま 200 で返します。
func (h *IntakeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, intake.ErrEmptyPrompt)
		return
	}

	actorID := ""
	if actor, ok := ActorFrom(r.Context()); ok {
		actorID = actor.AccountID
	}

	report, err := h.intake.Intake(r.Context(), req.Prompt, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	processed := make([]processedEmployee, 0, len(report.Results))
	for _, result := range report.Results {
		processed = append(processed, processedEmployee{
			FirstName:  result.Extracted.FirstName,
			LastName:   result.Extracted.LastName,
			Email:      result.Extracted.Email,
			JobTitle:   result.Extracted.JobTitle,
			Department: result.Extracted.Department,
			StartDate:  result.Extracted.StartDate,
			HRMSAPIStatus: recordStatus{
				Status:     string(result.Outcome),
				Message:    result.Message,
				EmployeeID: result.EmployeeID,
				AccountID:  result.AccountID,
				EmailSent:  result.EmailSent,
			},
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Employee intake completed.",
		"summary": intakeSummary{
			TotalProcessed:      report.Summary.TotalProcessed,
			SuccessfulCreations: report.Summary.SuccessfulCreations,
			EmailsSent:          report.Summary.EmailsSent,
			Skipped:             report.Summary.Skipped,
			Errors:              report.Summary.Errors,
		},
		"processed_employees": processed,
	})
}

// ResendWelcomeEmail は POST /employees/{id}/welcome-email を処理します。
// 資格情報を再発行して通知メールを送り直します。
func (h *IntakeHandler) ResendWelcomeEmail(w http.ResponseWriter, r *http.Request) {
	sent, err := h.intake.ResendWelcomeEmail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	message := "Welcome email sent."
	if !sent {
		message = "Credentials were rotated but the welcome email could not be delivered."
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    message,
		"email_sent": sent,
	})
}
