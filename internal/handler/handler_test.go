package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/StudioApp/internal/adapter/storage/local"
	"github.com/GoArmGo/StudioApp/internal/auth"
	"github.com/GoArmGo/StudioApp/internal/domain"
	"github.com/GoArmGo/StudioApp/internal/logger"
	"github.com/GoArmGo/StudioApp/internal/usecase"
)

type stubGenerationUseCase struct {
	submitFn    func(ctx context.Context, userID int64, input usecase.SubmitInput) (*domain.Generation, error)
	listFn      func(ctx context.Context, userID int64, limit int) ([]domain.Generation, error)
	submitCalls int
}

func (s *stubGenerationUseCase) Submit(ctx context.Context, userID int64, input usecase.SubmitInput) (*domain.Generation, error) {
	s.submitCalls++
	return s.submitFn(ctx, userID, input)
}

func (s *stubGenerationUseCase) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.Generation, error) {
	return s.listFn(ctx, userID, limit)
}

const testMaxBody = 12 << 20

// newTestRouter собирает маршруты генераций так же, как боевой сервер:
// реальный TokenManager в middleware, подменный usecase за ним.
func newTestRouter(t *testing.T, uc usecase.GenerationUseCase) (*chi.Mux, string) {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Generate(42)
	require.NoError(t, err)

	h := NewGenerationHandler(uc, nil, testMaxBody, logger.NewNop())

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(tokens, logger.NewNop()))
		r.Post("/generations", h.CreateGeneration)
		r.Get("/generations", h.ListGenerations)
	})
	return r, token
}

func doJSON(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func validBody() string {
	return `{"prompt":"кот","style":"Classic","imageUpload":"data:image/png;base64,AAAA"}`
}

func TestCreateGeneration_Success(t *testing.T) {
	ref := "42/abc.jpg"
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	uc := &stubGenerationUseCase{
		submitFn: func(_ context.Context, userID int64, input usecase.SubmitInput) (*domain.Generation, error) {
			assert.Equal(t, int64(42), userID)
			assert.Equal(t, "кот", input.Prompt)
			return &domain.Generation{
				ID:        7,
				UserID:    userID,
				Prompt:    input.Prompt,
				Style:     input.Style,
				ImageRef:  &ref,
				Status:    domain.StatusSucceeded,
				CreatedAt: created,
			}, nil
		},
	}
	r, token := newTestRouter(t, uc)

	rec := doJSON(t, r, http.MethodPost, "/generations", token, validBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID        int64   `json:"id"`
		Prompt    string  `json:"prompt"`
		Style     string  `json:"style"`
		ImageURL  *string `json:"imageUrl"`
		CreatedAt string  `json:"createdAt"`
		Status    string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, domain.StatusSucceeded, resp.Status)
	require.NotNil(t, resp.ImageURL)
	assert.Equal(t, "/uploads/42/abc.jpg", *resp.ImageURL)

	// createdAt обязан разбираться стандартным парсером времени.
	_, err := time.Parse(time.RFC3339, resp.CreatedAt)
	assert.NoError(t, err)
}

func TestCreateGeneration_ValidationIssues(t *testing.T) {
	uc := &stubGenerationUseCase{}
	r, token := newTestRouter(t, uc)

	rec := doJSON(t, r, http.MethodPost, "/generations", token,
		`{"prompt":"","style":"Classic","imageUpload":"data:image/png;base64,AAAA"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Message string              `json:"message"`
		Issues  []domain.FieldIssue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid input", resp.Message)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "prompt", resp.Issues[0].Field)

	// До бизнес-логики некорректный запрос не доходит.
	assert.Zero(t, uc.submitCalls)
}

func TestCreateGeneration_InvalidImagePayload(t *testing.T) {
	uc := &stubGenerationUseCase{
		submitFn: func(context.Context, int64, usecase.SubmitInput) (*domain.Generation, error) {
			return nil, fmt.Errorf("сохранение: %w", domain.ErrInvalidImagePayload)
		},
	}
	r, token := newTestRouter(t, uc)

	rec := doJSON(t, r, http.MethodPost, "/generations", token, validBody())
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Issues []domain.FieldIssue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "imageUpload", resp.Issues[0].Field)
}

func TestCreateGeneration_Overloaded(t *testing.T) {
	uc := &stubGenerationUseCase{
		submitFn: func(context.Context, int64, usecase.SubmitInput) (*domain.Generation, error) {
			return nil, domain.ErrModelOverloaded
		},
	}
	r, token := newTestRouter(t, uc)

	rec := doJSON(t, r, http.MethodPost, "/generations", token, validBody())
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"message":"Model overloaded"}`, rec.Body.String())
}

func TestCreateGeneration_ServerError(t *testing.T) {
	uc := &stubGenerationUseCase{
		submitFn: func(context.Context, int64, usecase.SubmitInput) (*domain.Generation, error) {
			return nil, fmt.Errorf("БД недоступна")
		},
	}
	r, token := newTestRouter(t, uc)

	rec := doJSON(t, r, http.MethodPost, "/generations", token, validBody())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
}

func TestCreateGeneration_MalformedBody(t *testing.T) {
	uc := &stubGenerationUseCase{}
	r, token := newTestRouter(t, uc)

	rec := doJSON(t, r, http.MethodPost, "/generations", token, `{"prompt":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, uc.submitCalls)
}

func TestCreateGeneration_PayloadTooLarge(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Generate(42)
	require.NoError(t, err)

	uc := &stubGenerationUseCase{}
	h := NewGenerationHandler(uc, nil, 16, logger.NewNop())

	r := chi.NewRouter()
	r.With(RequireAuth(tokens, logger.NewNop())).Post("/generations", h.CreateGeneration)

	rec := doJSON(t, r, http.MethodPost, "/generations", token, validBody())
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, uc.submitCalls)
}

func TestRequireAuth(t *testing.T) {
	uc := &stubGenerationUseCase{
		listFn: func(context.Context, int64, int) ([]domain.Generation, error) {
			return nil, nil
		},
	}
	r, token := newTestRouter(t, uc)

	t.Run("no token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/generations", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/generations", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/generations", token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestListGenerations(t *testing.T) {
	ref := "42/live.jpg"
	var gotLimit int
	uc := &stubGenerationUseCase{
		listFn: func(_ context.Context, userID int64, limit int) ([]domain.Generation, error) {
			gotLimit = limit
			return []domain.Generation{
				{ID: 2, UserID: userID, Prompt: "б", ImageRef: &ref, Status: domain.StatusSucceeded},
				{ID: 1, UserID: userID, Prompt: "а", ImageRef: nil, Status: domain.StatusSucceeded},
			}, nil
		},
	}
	r, token := newTestRouter(t, uc)

	rec := doJSON(t, r, http.MethodGet, "/generations?limit=10", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, gotLimit)

	var resp []struct {
		ID       int64   `json:"id"`
		ImageURL *string `json:"imageUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.NotNil(t, resp[0].ImageURL)
	assert.Equal(t, "/uploads/42/live.jpg", *resp[0].ImageURL)
	// Отсутствующая ссылка сериализуется как null, а не пустая строка.
	assert.Nil(t, resp[1].ImageURL)
}

func TestServeUpload(t *testing.T) {
	files, err := local.NewStorage(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	payload := []byte("jpeg-bytes")
	require.NoError(t, files.SaveFile(context.Background(), "42/pic.jpg", strings.NewReader(string(payload)), "image/jpeg"))

	h := NewGenerationHandler(nil, files, testMaxBody, logger.NewNop())
	r := chi.NewRouter()
	r.Get("/uploads/*", h.ServeUpload)

	t.Run("existing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/42/pic.jpg", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, payload, rec.Body.Bytes())
	})

	t.Run("missing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/42/nope.jpg", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("traversal attempt", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/uploads/..%2f..%2fetc%2fpasswd", nil)
		r.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusOK, rec.Code)
	})
}
