package di

import (
	"fmt"

	"github.com/GoArmGo/StudioApp/internal/adapter/storage/local"
	"github.com/GoArmGo/StudioApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/StudioApp/internal/app"
	"github.com/GoArmGo/StudioApp/internal/auth"
	"github.com/GoArmGo/StudioApp/internal/config"
	"github.com/GoArmGo/StudioApp/internal/core/ports"
	"github.com/GoArmGo/StudioApp/internal/database/client"
	"github.com/GoArmGo/StudioApp/internal/database/storage"
	"github.com/GoArmGo/StudioApp/internal/handler"
	"github.com/GoArmGo/StudioApp/internal/imaging"
	"github.com/GoArmGo/StudioApp/internal/logger"
	"github.com/GoArmGo/StudioApp/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// 2. Инициализация PostgreSQL клиента (применяет миграции)
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}

	// 3. Инициализация хранилищ
	generationStorage := storage.NewGenerationStorage(dbClient.DB, slogger)
	userStorage := storage.NewUserStorage(dbClient.DB, slogger)

	// 4. Инициализация файлового хранилища (локальный диск или MinIO)
	var fileStorage ports.FileStorage
	switch cfg.StorageBackend {
	case "local":
		fileStorage, err = local.NewStorage(cfg.UploadsDir, slogger)
	case "s3":
		fileStorage, err = minio.NewClient(cfg, slogger)
	default:
		err = fmt.Errorf("неизвестный бэкенд хранилища: %q (используйте 'local' или 's3')", cfg.StorageBackend)
	}
	if err != nil {
		return nil, err
	}

	// 5. Модуль сохранения изображений
	imageStore := imaging.NewStore(imaging.NewNormalizer(slogger), fileStorage, slogger)

	// 6. Токены доступа
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// 7. Инициализация бизнес-логики (usecases)
	generationUseCase := usecase.NewGenerationUseCase(
		generationStorage,
		imageStore,
		usecase.SimulationPolicy{
			OverloadProbability: cfg.Simulation.OverloadProbability,
			DelayMin:            cfg.Simulation.DelayMin,
			DelayMax:            cfg.Simulation.DelayMax,
		},
		slogger,
	)
	authUseCase := usecase.NewAuthUseCase(userStorage, tokenManager, slogger)

	// 8. Обработчики HTTP
	generationHandler := handler.NewGenerationHandler(generationUseCase, fileStorage, cfg.MaxUploadBytes, slogger)
	authHandler := handler.NewAuthHandler(authUseCase, slogger)

	// 9. Сборка итогового приложения
	application := app.NewApp(
		cfg,
		slogger,
		dbClient,
		generationHandler,
		authHandler,
		tokenManager,
	)

	slogger.Info("all dependencies initialized")
	return application, nil
}
