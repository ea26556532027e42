package domain

import (
	"time"
)

// Статусы генерации. В текущем дизайне запись создается сразу в финальном
// статусе и после вставки не изменяется.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Generation представляет модель генерации в системе,
// соответствует таблице generations в бд.
// ImageRef хранит относительный путь вида "{userID}/{filename}" —
// без HTTP-префикса, маппинг в URL делает ImageURL.
type Generation struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Prompt    string    `json:"prompt" db:"prompt"`
	Style     string    `json:"style" db:"style"`
	ImageRef  *string   `json:"image_ref" db:"image_ref"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UploadsURLPrefix — единственное место, где задается префикс,
// под которым раздаются файлы генераций.
const UploadsURLPrefix = "/uploads/"

// ImageURL преобразует относительную ссылку на файл в публичный URL.
// Используется и на пути записи (ответ на POST), и на пути чтения (список).
func ImageURL(ref string) string {
	return UploadsURLPrefix + ref
}
