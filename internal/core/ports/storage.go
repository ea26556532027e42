package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/StudioApp/internal/domain"
)

// GenerationStorage определяет методы для взаимодействия с хранилищем генераций
type GenerationStorage interface {
	// InsertGeneration вставляет запись и заполняет ID и CreatedAt значениями,
	// назначенными хранилищем.
	InsertGeneration(ctx context.Context, gen *domain.Generation) error

	// ListRecentGenerations возвращает последние генерации пользователя,
	// новые первыми (created_at DESC, при равенстве — id DESC).
	ListRecentGenerations(ctx context.Context, userID int64, limit int) ([]domain.Generation, error)
}

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	// CreateUser создает пользователя; возвращает domain.ErrEmailTaken,
	// если email уже занят.
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)

	// GetUserByEmail возвращает nil, nil если пользователь не найден.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByID возвращает nil, nil если пользователь не найден.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// FileStorage определяет интерфейс для работы с файловым хранилищем
// (локальный диск или S3/MinIO). Ключ ref — относительная ссылка
// вида "{userID}/{filename}".
type FileStorage interface {
	// SaveFile сохраняет содержимое под ключом ref. Либо файл записан
	// целиком, либо после ошибки не остается ничего.
	SaveFile(ctx context.Context, ref string, reader io.Reader, contentType string) error

	// OpenFile открывает файл на чтение; возвращает content-type, если известен.
	OpenFile(ctx context.Context, ref string) (io.ReadCloser, string, error)

	// DeleteFile удаляет файл. Используется оркестратором для компенсации
	// при неудачной вставке записи.
	DeleteFile(ctx context.Context, ref string) error

	// FileExists проверяет наличие файла. Путь чтения сверяет ссылки
	// из БД с реальностью на диске.
	FileExists(ctx context.Context, ref string) (bool, error)
}
