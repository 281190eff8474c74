package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ogurasousui/hrms-clean-arch/internal/core/account"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/employee"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/intake"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("level=error msg=\"encode response\" err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError はコアのエラーを HTTP ステータスへ対応付けます。
func writeDomainError(w http.ResponseWriter, err error) {
	var extractionErr *intake.ExtractionError

	switch {
	case errors.Is(err, employee.ErrInvalidEmail),
		errors.Is(err, employee.ErrInvalidFirstName),
		errors.Is(err, employee.ErrInvalidLastName),
		errors.Is(err, employee.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrInvalidPassword),
		errors.Is(err, account.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, employee.ErrEmailAlreadyExists),
		errors.Is(err, account.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, account.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, intake.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "Missing 'prompt' field in request.")
	case errors.Is(err, intake.ErrExtractorUnavailable):
		writeError(w, http.StatusServiceUnavailable, "AI employee intake is not configured")
	case errors.As(err, &extractionErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to process employee data with AI.",
			Details: extractionErr.Error(),
		})
	default:
		log.Printf("level=error msg=\"internal error\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
