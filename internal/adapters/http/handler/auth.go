package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ogurasousui/hrms-clean-arch/internal/core/account"
)

// AuthHandler は認証まわりのエンドポイントを提供します。
type AuthHandler struct {
	accounts account.UseCase
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(accounts account.UseCase) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type accountResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	EmployeeID *string `json:"employee_id"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toAccountResponse(a *account.Account) accountResponse {
	return accountResponse{
		ID:         a.ID,
		Email:      a.Email,
		Role:       string(a.Role),
		EmployeeID: a.EmployeeID,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
}

// Login は POST /auth/login を処理します。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.accounts.Login(r.Context(), account.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   result.Token,
		"account": toAccountResponse(result.Account),
	})
}

// Register は POST /auth/register を処理します。
// アカウント発行は管理者専用の操作です。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if actor.Role != string(account.RoleAdmin) {
		writeError(w, http.StatusForbidden, "administrator role required")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := account.RegisterInput{Email: req.Email, Password: req.Password}
	if req.Role != "" {
		role := account.Role(req.Role)
		in.Role = &role
	}

	created, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"account": toAccountResponse(created)})
}
