package handler

import "net/http"

// NewRouter は全エンドポイントを束ねた http.Handler を返します。
// /employees 以下は Bearer トークン必須です。
func NewRouter(
	auth *AuthHandler,
	employees *EmployeeHandler,
	intake *IntakeHandler,
	verifier TokenVerifier,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /auth/login", auth.Login)

	authn := Auth(verifier)
	protected := func(h http.HandlerFunc) http.Handler {
		return authn(h)
	}

	// アカウント発行は管理者だけが行える。
	mux.Handle("POST /auth/register", protected(auth.Register))

	mux.Handle("POST /employees", protected(intake.Create))
	mux.Handle("GET /employees", protected(employees.List))
	mux.Handle("GET /employees/{id}", protected(employees.Get))
	mux.Handle("PUT /employees/{id}", protected(employees.Update))
	mux.Handle("DELETE /employees/{id}", protected(employees.Delete))
	mux.Handle("POST /employees/{id}/welcome-email", protected(intake.ResendWelcomeEmail))

	return Chain(mux, RequestID, Logging, Recover)
}
