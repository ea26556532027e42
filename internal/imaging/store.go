package imaging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/StudioApp/internal/core/ports"
	"github.com/google/uuid"
)

// Store — модуль сохранения изображений: декодирует полезную нагрузку,
// нормализует и кладет файл в хранилище под стабильной относительной ссылкой
// "{userID}/{filename}". Имя файла не выводится из содержимого и не
// контролируется пользователем.
type Store struct {
	normalizer *Normalizer
	files      ports.FileStorage
	logger     *slog.Logger
}

// NewStore создает новый Store.
func NewStore(normalizer *Normalizer, files ports.FileStorage, logger *slog.Logger) *Store {
	return &Store{
		normalizer: normalizer,
		files:      files,
		logger:     logger,
	}
}

// Persist обрабатывает и сохраняет изображение, возвращая относительную ссылку.
// При ошибке на диске не остается частично записанного файла.
func (s *Store) Persist(ctx context.Context, payload string, userID int64) (string, error) {
	start := time.Now()

	processed, err := s.normalizer.Process(payload)
	if err != nil {
		return "", err
	}

	ref := fmt.Sprintf("%d/%s%s", userID, uuid.New(), processed.Ext)

	if err := s.files.SaveFile(ctx, ref, bytes.NewReader(processed.Data), processed.ContentType); err != nil {
		return "", fmt.Errorf("ошибка сохранения изображения %s: %w", ref, err)
	}

	s.logger.Info("image persisted",
		"ref", ref,
		"content_type", processed.ContentType,
		"size_bytes", len(processed.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ref, nil
}

// Remove удаляет ранее сохраненное изображение по ссылке.
func (s *Store) Remove(ctx context.Context, ref string) error {
	if err := s.files.DeleteFile(ctx, ref); err != nil {
		return fmt.Errorf("ошибка удаления изображения %s: %w", ref, err)
	}
	s.logger.Info("image removed", "ref", ref)
	return nil
}

// Exists проверяет, что файл по ссылке действительно существует.
func (s *Store) Exists(ctx context.Context, ref string) (bool, error) {
	return s.files.FileExists(ctx, ref)
}
