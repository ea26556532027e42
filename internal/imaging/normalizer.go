package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"regexp"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/GoArmGo/StudioApp/internal/domain"
)

const (
	// MaxWidth — порог, выше которого изображение уменьшается при нормализации.
	MaxWidth = 1920

	jpegQuality = 90
)

// dataURLPattern — структурная проверка входного data-URL:
// встроенный MIME-тип изображения и base64-тело.
var dataURLPattern = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/]+={0,2})$`)

// Processed — результат нормализации: байты для записи на диск
// и метаданные, из которых строится имя файла.
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURL разбирает data-URL и возвращает MIME-тип и декодированные байты.
// Возвращает domain.ErrInvalidImagePayload, если структура не соответствует формату.
func DecodeDataURL(payload string) (string, []byte, error) {
	m := dataURLPattern.FindStringSubmatch(payload)
	if m == nil {
		return "", nil, fmt.Errorf("%w: ожидается data:image/...;base64,...", domain.ErrInvalidImagePayload)
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, fmt.Errorf("%w: тело не является корректным base64", domain.ErrInvalidImagePayload)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: пустое тело изображения", domain.ErrInvalidImagePayload)
	}

	return m[1], data, nil
}

// Normalizer приводит входные изображения к каноническому формату хранения:
// JPEG фиксированного качества, ширина не больше MaxWidth.
type Normalizer struct {
	maxWidth int
	quality  int
	logger   *slog.Logger
}

// NewNormalizer создает Normalizer с параметрами по умолчанию.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{
		maxWidth: MaxWidth,
		quality:  jpegQuality,
		logger:   logger,
	}
}

// Process декодирует data-URL и нормализует изображение.
// Если перекодирование невозможно (битое изображение, неизвестный кодек),
// возвращаются исходные байты без изменений — деградация вместо отказа.
func (n *Normalizer) Process(payload string) (*Processed, error) {
	contentType, raw, err := DecodeDataURL(payload)
	if err != nil {
		return nil, err
	}

	original := &Processed{
		Data:        raw,
		ContentType: contentType,
		Ext:         extForContentType(contentType),
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		n.logger.Warn("image decode failed, storing original bytes",
			"content_type", contentType,
			"error", err,
		)
		return original, nil
	}

	img = n.downscale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.quality}); err != nil {
		n.logger.Warn("jpeg encode failed, storing original bytes",
			"format", format,
			"error", err,
		)
		return original, nil
	}

	return &Processed{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Ext:         ".jpg",
	}, nil
}

// downscale уменьшает изображение до maxWidth с сохранением пропорций.
// Никогда не увеличивает.
func (n *Normalizer) downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	if width <= n.maxWidth {
		return img
	}

	height := bounds.Dy() * n.maxWidth / width
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, n.maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// extForContentType подбирает расширение файла по MIME-типу.
func extForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".img"
	}
}
