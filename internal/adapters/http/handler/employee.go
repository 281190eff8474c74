package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/hrms-clean-arch/internal/core/employee"
)

const dateLayout = "2006-01-02"

// EmployeeHandler は社員 CRUD のエンドポイントを提供します。
type EmployeeHandler struct {
	employees employee.UseCase
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(employees employee.UseCase) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

type employeeResponse struct {
	ID         string  `json:"id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	JobTitle   string  `json:"job_title"`
	Department string  `json:"department"`
	StartDate  *string `json:"start_date"`
	Status     string  `json:"status"`
	CreatedBy  string  `json:"created_by"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		JobTitle:   e.JobTitle,
		Department: e.Department,
		Status:     string(e.Status),
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
	if e.StartDate != nil {
		s := e.StartDate.Format(dateLayout)
		resp.StartDate = &s
	}
	return resp
}

// Get は GET /employees/{id} を処理します。
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employees.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: r.PathValue("id")})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee": toEmployeeResponse(emp)})
}

// List は GET /employees を処理します。
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := employee.ListEmployeesInput{
		PageToken:  q.Get("page_token"),
		Department: q.Get("department"),
		Query:      q.Get("q"),
	}

	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeDomainError(w, employee.ErrInvalidPageSize)
			return
		}
		in.PageSize = size
	}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := employee.Status(raw)
		in.Status = &status
	}

	result, err := h.employees.ListEmployees(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	employees := make([]employeeResponse, 0, len(result.Employees))
	for _, e := range result.Employees {
		employees = append(employees, toEmployeeResponse(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employees":       employees,
		"total":           result.Total,
		"next_page_token": result.NextPageToken,
	})
}

// Update は PUT /employees/{id} を処理します。
// ボディに現れたフィールドだけが更新され、start_date は空文字でクリアできます。
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName  *string `json:"first_name"`
		LastName   *string `json:"last_name"`
		JobTitle   *string `json:"job_title"`
		Department *string `json:"department"`
		Status     *string `json:"status"`
		StartDate  *string `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := employee.UpdateEmployeeInput{
		ID:         r.PathValue("id"),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		JobTitle:   req.JobTitle,
		Department: req.Department,
	}

	if req.Status != nil {
		status := employee.Status(*req.Status)
		in.Status = &status
	}

	if req.StartDate != nil {
		in.StartDateSet = true
		if trimmed := strings.TrimSpace(*req.StartDate); trimmed != "" {
			t, err := time.Parse(dateLayout, trimmed)
			if err != nil {
				writeError(w, http.StatusBadRequest, "start_date must be formatted as YYYY-MM-DD")
				return
			}
			in.StartDate = &t
		}
	}

	updated, err := h.employees.UpdateEmployee(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"employee": toEmployeeResponse(updated)})
}

// Delete は DELETE /employees/{id} を処理します。
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.DeleteEmployee(r.Context(), employee.DeleteEmployeeInput{ID: r.PathValue("id")}); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
