package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки доменного уровня. Обработчики HTTP транслируют их в коды ответов,
// клиент по ним решает, можно ли повторять запрос.
var (
	// ErrInvalidInput — запрос не прошел валидацию (4xx, не ретраится).
	ErrInvalidInput = errors.New("некорректные входные данные")

	// ErrUnauthorized — отсутствующий/невалидный/протухший токен.
	ErrUnauthorized = errors.New("не авторизован")

	// ErrInvalidCredentials — неверная пара email/пароль при логине.
	ErrInvalidCredentials = errors.New("неверные учетные данные")

	// ErrEmailTaken — попытка регистрации с уже занятым email.
	ErrEmailTaken = errors.New("email уже зарегистрирован")

	// ErrModelOverloaded — симулированная перегрузка модели (503, ретраится).
	// Возвращается до какой-либо записи в хранилища.
	ErrModelOverloaded = errors.New("модель перегружена")

	// ErrInvalidImagePayload — полезная нагрузка не является корректным data-URL.
	ErrInvalidImagePayload = errors.New("некорректный формат изображения")

	// ErrNotInitialized — обращение к хранилищу до применения миграций.
	ErrNotInitialized = errors.New("хранилище не инициализировано")
)

// FieldIssue описывает одну проблему валидации на уровне поля.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError агрегирует проблемы валидации запроса.
// Разворачивается в ErrInvalidInput, чтобы вызывающий код мог
// классифицировать ошибку через errors.Is.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return "некорректные входные данные: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError создает ValidationError с одной проблемой.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Issues: []FieldIssue{{Field: field, Message: message}}}
}
