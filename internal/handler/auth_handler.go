package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/StudioApp/internal/usecase"
)

// AuthHandler — обработчик HTTP-запросов регистрации и входа.
type AuthHandler struct {
	authUseCase usecase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(uc usecase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authUseCase: uc, logger: logger}
}

// signupRequest — схема тела POST /auth/signup.
type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// loginRequest — схема тела POST /auth/login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup — регистрирует пользователя и сразу выдает токен.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid input", h.logger)
		return
	}

	if err := validateRequest(&req); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	token, err := h.authUseCase.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"token": token}, h.logger)
}

// Login — проверяет учетные данные и выдает токен.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid input", h.logger)
		return
	}

	if err := validateRequest(&req); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	token, err := h.authUseCase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"token": token}, h.logger)
}

// Me — возвращает профиль владельца токена.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", h.logger)
		return
	}

	user, err := h.authUseCase.CurrentUser(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":    user.ID,
		"email": user.Email,
	}, h.logger)
}
