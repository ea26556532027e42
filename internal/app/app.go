package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/StudioApp/internal/config"
	"github.com/GoArmGo/StudioApp/internal/database/client"
	"github.com/GoArmGo/StudioApp/internal/handler"
)

// App агрегирует собранные зависимости приложения и управляет их жизненным
// циклом: запуск выбранного режима и аккуратное закрытие ресурсов.
type App struct {
	Config *config.Config

	logger            *slog.Logger
	dbClient          *client.Client
	generationHandler *handler.GenerationHandler
	authHandler       *handler.AuthHandler
	tokens            handler.TokenParser
}

// NewApp собирает App из готовых зависимостей (их создает di.BuildApp).
func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	dbClient *client.Client,
	generationHandler *handler.GenerationHandler,
	authHandler *handler.AuthHandler,
	tokens handler.TokenParser,
) *App {
	return &App{
		Config:            cfg,
		logger:            logger,
		dbClient:          dbClient,
		generationHandler: generationHandler,
		authHandler:       authHandler,
		tokens:            tokens,
	}
}

// LoggerIns возвращает основной логгер приложения.
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в заданном режиме и блокируется до завершения.
func (a *App) Run(ctx context.Context, mode *string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("application starting", "mode", *mode)

	var err error

	switch *mode {
	case "server":
		err = runServer(ctx, a.Config, a.generationHandler, a.authHandler, a.tokens, a.logger)

	case "migrate":
		// Миграции применяются при инициализации клиента БД,
		// этот режим нужен, чтобы применить их и выйти.
		a.logger.Info("migrations applied, exiting")

	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'migrate')", *mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown error", "error", closeErr)
	}

	if err != nil {
		return err
	}

	a.logger.Info("application stopped")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	if a.dbClient != nil {
		if err := a.dbClient.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия БД: %w", err)
		}
	}
	return nil
}
