package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type credentialsRequest struct {
	Login    string `json:"usuario"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"autenticado"`
	User          string `json:"usuario,omitempty"`
}

// Login проверяет учётные данные администратора и выдаёт cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Login == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "usuario and password are required")
		return
	}

	if !h.validCredentials(req.Login, req.Password) {
		h.logger.Warn("admin login rejected", zap.String("user", req.Login))
		h.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.authMiddleware.SetAuthCookie(w, req.Login)
	h.writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: req.Login})
}

// Пустой пароль в конфигурации отключает вход.
func (h *Handler) validCredentials(login, password string) bool {
	if h.options.AdminPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(login), []byte(h.options.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.options.AdminPassword)) == 1
	return userOK && passOK
}

// Logout завершает сессию администратора.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	h.writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
}

// CheckAuth сообщает, действует ли сессия.
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.authMiddleware.Authenticated(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, sessionResponse{Authenticated: false})
		return
	}

	h.writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: admin})
}
