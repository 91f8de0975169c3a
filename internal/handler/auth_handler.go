// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/credman/internal/middleware"
	"github.com/hitoshi/credman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login はパスワードを照合し、署名付きトークンを返す。
	Login(password string) (string, error)
}

// AuthHandler は管理者ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Token string `json:"token"`
}

// Login は管理者ログインを処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return
	}

	token, err := h.service.Login(req.Password)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
