package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GoArmGo/StudioApp/internal/domain"
)

// pgUndefinedTable — код ошибки PostgreSQL "relation does not exist".
// Возникает при обращении к хранилищу до применения миграций.
const pgUndefinedTable = "42P01"

// GenerationStorage реализует ports.GenerationStorage поверх PostgreSQL.
type GenerationStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewGenerationStorage(db *sqlx.DB, logger *slog.Logger) *GenerationStorage {
	return &GenerationStorage{db: db, logger: logger}
}

// InsertGeneration вставляет запись генерации. ID и created_at назначает БД,
// значения возвращаются в переданную структуру.
func (s *GenerationStorage) InsertGeneration(ctx context.Context, gen *domain.Generation) error {
	start := time.Now()

	query := `
	INSERT INTO generations (user_id, prompt, style, image_ref, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
	`

	err := s.db.QueryRowxContext(ctx, query,
		gen.UserID, gen.Prompt, gen.Style, gen.ImageRef, gen.Status,
	).Scan(&gen.ID, &gen.CreatedAt)
	if err != nil {
		if isUndefinedTable(err) {
			return fmt.Errorf("таблица generations отсутствует: %w", domain.ErrNotInitialized)
		}
		s.logger.Error("failed to insert generation", "user_id", gen.UserID, "error", err)
		return fmt.Errorf("ошибка при сохранении генерации: %w", err)
	}

	s.logger.Info("generation saved successfully",
		"id", gen.ID,
		"user_id", gen.UserID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ListRecentGenerations получает последние генерации пользователя,
// новые первыми. При совпадении created_at порядок определяет убывающий id.
func (s *GenerationStorage) ListRecentGenerations(ctx context.Context, userID int64, limit int) ([]domain.Generation, error) {
	start := time.Now()

	q := `
	SELECT id, user_id, prompt, style, image_ref, status, created_at
	FROM generations
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
	`

	var generations []domain.Generation
	if err := s.db.SelectContext(ctx, &generations, q, userID, limit); err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("таблица generations отсутствует: %w", domain.ErrNotInitialized)
		}
		s.logger.Error("failed to list generations", "user_id", userID, "limit", limit, "error", err)
		return nil, fmt.Errorf("ошибка при получении списка генераций: %w", err)
	}

	s.logger.Info("listed generations successfully",
		"user_id", userID,
		"limit", limit,
		"count", len(generations),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return generations, nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUndefinedTable
}
