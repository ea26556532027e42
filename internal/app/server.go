package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoArmGo/StudioApp/internal/config"
	"github.com/GoArmGo/StudioApp/internal/handler"
)

// runServer запускает HTTP сервер и блокируется до отмены контекста.
func runServer(
	ctx context.Context,
	cfg *config.Config,
	generationHandler *handler.GenerationHandler,
	authHandler *handler.AuthHandler,
	tokens handler.TokenParser,
	logger *slog.Logger,
) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(handler.RequestLogger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	requireAuth := handler.RequireAuth(tokens, logger)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	r.Post("/auth/signup", authHandler.Signup)
	r.Post("/auth/login", authHandler.Login)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Get("/auth/me", authHandler.Me)
		pr.Post("/generations", generationHandler.CreateGeneration)
		pr.Get("/generations", generationHandler.ListGenerations)
	})

	// Раздача файлов генераций. Закрытие этого маршрута токеном —
	// отдельное конфигурационное решение (см. UPLOADS_REQUIRE_AUTH).
	if cfg.UploadsRequireAuth {
		r.With(requireAuth).Get("/uploads/*", generationHandler.ServeUpload)
	} else {
		r.Get("/uploads/*", generationHandler.ServeUpload)
	}

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ошибка при запуске сервера: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, stopping server")

	ctxServer, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
