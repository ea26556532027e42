package usecase

import (
	"context"

	"github.com/GoArmGo/StudioApp/internal/domain"
)

// Лимиты выдачи истории генераций.
const (
	DefaultHistoryLimit = 5
	MaxHistoryLimit     = 50
)

// SubmitInput — параметры заявки на генерацию.
// ImageUpload — изображение в виде data-URL (base64).
type SubmitInput struct {
	Prompt      string
	Style       string
	ImageUpload string
}

// ImagePersister определяет интерфейс модуля сохранения изображений:
// обработка полезной нагрузки, запись файла, компенсационное удаление
// и проверка существования для пути чтения.
type ImagePersister interface {
	// Persist декодирует и сохраняет изображение, возвращая относительную
	// ссылку "{userID}/{filename}".
	Persist(ctx context.Context, payload string, userID int64) (string, error)

	// Remove удаляет ранее сохраненный файл (компенсация при откате).
	Remove(ctx context.Context, ref string) error

	// Exists проверяет, что файл по ссылке существует.
	Exists(ctx context.Context, ref string) (bool, error)
}

// GenerationUseCase определяет интерфейс бизнес-логики генераций.
type GenerationUseCase interface {
	// Submit проводит заявку через весь конвейер: валидация, искусственная
	// задержка, симуляция перегрузки, сохранение изображения, вставка записи.
	// Частично выполненная заявка не оставляет следов в хранилищах.
	Submit(ctx context.Context, userID int64, input SubmitInput) (*domain.Generation, error)

	// ListRecent возвращает последние генерации пользователя, новые первыми.
	// Ссылки на отсутствующие файлы обнуляются, а не отдаются битыми.
	ListRecent(ctx context.Context, userID int64, limit int) ([]domain.Generation, error)
}
