package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GoArmGo/StudioApp/internal/domain"
)

// pgUniqueViolation — код ошибки PostgreSQL для нарушения уникального ограничения.
const pgUniqueViolation = "23505"

// UserStorage реализует ports.UserStorage поверх PostgreSQL.
type UserStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewUserStorage(db *sqlx.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// CreateUser создает пользователя. Занятый email транслируется
// в domain.ErrEmailTaken, чтобы обработчик мог вернуть 409.
func (s *UserStorage) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	start := time.Now()

	user := domain.User{
		Email:        email,
		PasswordHash: passwordHash,
	}

	query := `
	INSERT INTO users (email, password_hash)
	VALUES ($1, $2)
	RETURNING id, created_at
	`

	err := s.db.QueryRowxContext(ctx, query, email, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			s.logger.Warn("email already registered", "email", email)
			return nil, domain.ErrEmailTaken
		}
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("таблица users отсутствует: %w", domain.ErrNotInitialized)
		}
		s.logger.Error("failed to insert user", "email", email, "error", err)
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	s.logger.Info("user created successfully",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}

// GetUserByEmail получает пользователя по email. Отсутствие — не ошибка.
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get user by email", "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователя по email: %w", err)
	}
	return &user, nil
}

// GetUserByID получает пользователя по внутреннему ID. Отсутствие — не ошибка.
func (s *UserStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get user by id", "user_id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователя по ID: %w", err)
	}
	return &user, nil
}
