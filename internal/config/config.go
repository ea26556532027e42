package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	ServerPort     string        `env:"SERVER_PORT"`
	JWTSecret      string        `env:"JWT_SECRET,required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Бэкенд файлового хранилища: "local" (каталог на диске) или "s3" (MinIO).
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadsDir     string `env:"UPLOADS_DIR" envDefault:"uploads"`

	// Раздача /uploads/ без токена повторяет поведение исходной версии.
	// Включение флага закрывает известную дыру в доступе к чужим файлам.
	UploadsRequireAuth bool `env:"UPLOADS_REQUIRE_AUTH"`

	// Лимит на тело запроса: data-URL изображения может быть крупным.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"12582912"`

	// Настройки для MinIO (нужны только при STORAGE_BACKEND=s3)
	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME"`
	MinioRegion          string `env:"MINIO_REGION"`

	// Параметры симуляции генерации
	Simulation struct {
		OverloadProbability float64       `env:"SIM_OVERLOAD_PROB" envDefault:"0.2"`
		DelayMin            time.Duration `env:"SIM_DELAY_MIN" envDefault:"1s"`
		DelayMax            time.Duration `env:"SIM_DELAY_MAX" envDefault:"2s"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	// Вручную устанавливаем значения по умолчанию для тех полей, где они нужны
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	if cfg.Simulation.OverloadProbability < 0 || cfg.Simulation.OverloadProbability > 1 {
		return nil, fmt.Errorf("SIM_OVERLOAD_PROB должен быть в диапазоне [0, 1], получено %v",
			cfg.Simulation.OverloadProbability)
	}
	if cfg.Simulation.DelayMax < cfg.Simulation.DelayMin {
		return nil, fmt.Errorf("SIM_DELAY_MAX (%v) меньше SIM_DELAY_MIN (%v)",
			cfg.Simulation.DelayMax, cfg.Simulation.DelayMin)
	}

	return &cfg, nil
}
