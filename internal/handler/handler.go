package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoArmGo/StudioApp/internal/core/ports"
	"github.com/GoArmGo/StudioApp/internal/domain"
	"github.com/GoArmGo/StudioApp/internal/usecase"
)

// GenerationHandler — обработчик HTTP-запросов для работы с генерациями.
type GenerationHandler struct {
	generationUseCase usecase.GenerationUseCase
	files             ports.FileStorage
	maxBodyBytes      int64
	logger            *slog.Logger
}

// NewGenerationHandler создаёт новый экземпляр GenerationHandler.
func NewGenerationHandler(
	uc usecase.GenerationUseCase,
	files ports.FileStorage,
	maxBodyBytes int64,
	logger *slog.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		generationUseCase: uc,
		files:             files,
		maxBodyBytes:      maxBodyBytes,
		logger:            logger,
	}
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"message": message}, logger)
}

// respondWithDomainError транслирует доменную ошибку в HTTP-ответ.
// Это единственное место, где таксономия ошибок превращается в коды ответов.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Invalid input",
			"issues":  verr.Issues,
		}, logger)

	case errors.Is(err, domain.ErrInvalidImagePayload):
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Invalid input",
			"issues": []domain.FieldIssue{
				{Field: "imageUpload", Message: "некорректный data-URL изображения"},
			},
		}, logger)

	case errors.Is(err, domain.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, "Invalid input", logger)

	case errors.Is(err, domain.ErrModelOverloaded):
		respondWithError(w, http.StatusServiceUnavailable, "Model overloaded", logger)

	case errors.Is(err, domain.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", logger)

	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials", logger)

	case errors.Is(err, domain.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, "Email already exists", logger)

	case errors.Is(err, context.Canceled):
		// Клиент отменил запрос — отвечать уже некому.
		logger.Info("request canceled by client",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
		)

	default:
		logger.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		respondWithError(w, http.StatusInternalServerError, "Server error", logger)
	}
}

// createGenerationRequest — схема тела POST /generations.
type createGenerationRequest struct {
	Prompt      string `json:"prompt" validate:"required"`
	Style       string `json:"style" validate:"required"`
	ImageUpload string `json:"imageUpload" validate:"required"`
}

// generationResponse — представление генерации в ответах API.
// ImageURL — публичный URL либо null, если файл недоступен.
type generationResponse struct {
	ID        int64     `json:"id"`
	Prompt    string    `json:"prompt"`
	Style     string    `json:"style"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`
}

func toGenerationResponse(gen domain.Generation) generationResponse {
	resp := generationResponse{
		ID:        gen.ID,
		Prompt:    gen.Prompt,
		Style:     gen.Style,
		CreatedAt: gen.CreatedAt,
		Status:    gen.Status,
	}
	if gen.ImageRef != nil {
		url := domain.ImageURL(*gen.ImageRef)
		resp.ImageURL = &url
	}
	return resp
}

// CreateGeneration — принимает заявку на генерацию и возвращает созданную запись.
func (h *GenerationHandler) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req createGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Payload too large", h.logger)
			return
		}
		h.logger.Warn("malformed request body", "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid input", h.logger)
		return
	}

	if err := validateRequest(&req); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	gen, err := h.generationUseCase.Submit(r.Context(), userID, usecase.SubmitInput{
		Prompt:      req.Prompt,
		Style:       req.Style,
		ImageUpload: req.ImageUpload,
	})
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, toGenerationResponse(*gen), h.logger)
}

// ListGenerations — возвращает последние генерации пользователя.
func (h *GenerationHandler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", h.logger)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	generations, err := h.generationUseCase.ListRecent(r.Context(), userID, limit)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	resp := make([]generationResponse, 0, len(generations))
	for _, gen := range generations {
		resp = append(resp, toGenerationResponse(gen))
	}
	respondWithJSON(w, http.StatusOK, resp, h.logger)
}

// ServeUpload — отдает сохраненный файл генерации по относительной ссылке.
// Работает поверх порта файлового хранилища, поэтому не зависит от бэкенда.
func (h *GenerationHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "*")
	if ref == "" {
		respondWithError(w, http.StatusNotFound, "Not found", h.logger)
		return
	}

	reader, contentType, err := h.files.OpenFile(r.Context(), ref)
	if err != nil {
		h.logger.Warn("upload not found", "ref", ref, "error", err)
		respondWithError(w, http.StatusNotFound, "Not found", h.logger)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("failed to stream upload", "ref", ref, "error", err)
	}
}
