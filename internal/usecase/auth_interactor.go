package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/GoArmGo/StudioApp/internal/core/ports"
	"github.com/GoArmGo/StudioApp/internal/domain"
)

// bcryptCost — стоимость хеширования пароля; совпадает с исходной версией.
const bcryptCost = 10

// TokenIssuer выпускает bearer-токены для аутентифицированных пользователей.
type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

// AuthUseCase определяет интерфейс бизнес-логики аутентификации.
type AuthUseCase interface {
	// Signup регистрирует пользователя и возвращает токен доступа.
	Signup(ctx context.Context, email, password string) (string, error)

	// Login проверяет учетные данные и возвращает токен доступа.
	Login(ctx context.Context, email, password string) (string, error)

	// CurrentUser возвращает пользователя по его ID из токена.
	CurrentUser(ctx context.Context, userID int64) (*domain.User, error)
}

// authUseCase implements AuthUseCase
type authUseCase struct {
	users  ports.UserStorage
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAuthUseCase создает новый экземпляр AuthUseCase.
func NewAuthUseCase(users ports.UserStorage, tokens TokenIssuer, logger *slog.Logger) AuthUseCase {
	return &authUseCase{users: users, tokens: tokens, logger: logger}
}

// Signup регистрирует нового пользователя.
func (uc *authUseCase) Signup(ctx context.Context, email, password string) (string, error) {
	start := time.Now()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка хеширования пароля: %w", err)
	}

	user, err := uc.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка регистрации: %w", err)
	}

	token, err := uc.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка выпуска токена: %w", err)
	}

	uc.logger.Info("user signed up",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return token, nil
}

// Login проверяет пару email/пароль. Несуществующий пользователь и неверный
// пароль неразличимы для клиента.
func (uc *authUseCase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка поиска пользователя: %w", err)
	}
	if user == nil {
		return "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.logger.Warn("login failed: wrong password", "user_id", user.ID)
		return "", domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка выпуска токена: %w", err)
	}

	uc.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// CurrentUser возвращает профиль пользователя, которому выдан токен.
func (uc *authUseCase) CurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения пользователя: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}
