package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Storage реализует файловое хранилище на локальном диске.
// Каждый пользователь получает свой подкаталог внутри корневого каталога,
// ссылка "{userID}/{filename}" отображается в путь напрямую.
type Storage struct {
	root   string
	logger *slog.Logger
}

// NewStorage создает хранилище с корнем в каталоге root, создавая его при необходимости.
func NewStorage(root string, logger *slog.Logger) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("не задан корневой каталог хранилища")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога хранилища %s: %w", root, err)
	}
	return &Storage{root: root, logger: logger}, nil
}

// resolve превращает относительную ссылку в путь на диске,
// отклоняя попытки выйти за пределы корневого каталога.
func (s *Storage) resolve(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("недопустимая ссылка на файл: %q", ref)
	}
	return filepath.Join(s.root, clean), nil
}

// SaveFile записывает файл атомарно: сначала во временный файл рядом,
// затем rename. При любой ошибке временный файл удаляется.
func (s *Storage) SaveFile(ctx context.Context, ref string, reader io.Reader, contentType string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога пользователя: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка записи файла %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка закрытия файла %s: %w", ref, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка переименования файла %s: %w", ref, err)
	}

	s.logger.Debug("file saved", "ref", ref, "content_type", contentType)
	return nil
}

// OpenFile открывает файл на чтение. Content-type восстанавливается
// по расширению, так как локальное хранилище метаданные не хранит.
func (s *Storage) OpenFile(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка открытия файла %s: %w", ref, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

// DeleteFile удаляет файл с диска.
func (s *Storage) DeleteFile(ctx context.Context, ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", ref, err)
	}
	return nil
}

// FileExists проверяет наличие файла на диске.
func (s *Storage) FileExists(ctx context.Context, ref string) (bool, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки файла %s: %w", ref, err)
	}
	return !info.IsDir(), nil
}
