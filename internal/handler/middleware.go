package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const userIDKey ctxKey = iota

// TokenParser проверяет bearer-токен и возвращает ID пользователя.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// RequestLogger — middleware для логирования HTTP-запросов.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Оборачиваем ResponseWriter, чтобы знать статус
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			logger.Info("http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// RequireAuth — middleware аутентификации: извлекает bearer-токен
// из заголовка Authorization и кладет ID пользователя в контекст запроса.
func RequireAuth(tokens TokenParser, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", logger)
				return
			}

			userID, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Warn("invalid bearer token",
					"request_id", middleware.GetReqID(r.Context()),
					"error", err,
				)
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", logger)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext достает ID аутентифицированного пользователя из контекста.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// responseWriter нужен, чтобы перехватывать код ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
