package studioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrAborted возвращается, когда запрос отменен вызывающей стороной.
// Отмена никогда не ретраится и не маскируется под серверную ошибку.
var ErrAborted = errors.New("запрос отменен")

// APIError — ошибка уровня API с кодом ответа сервера.
// Последняя ошибка серии попыток возвращается вызывающему как есть,
// чтобы он мог отличить перегрузку от остальных отказов.
type APIError struct {
	StatusCode int          `json:"-"`
	Message    string       `json:"message"`
	Issues     []FieldIssue `json:"issues,omitempty"`
}

// FieldIssue — проблема валидации на уровне поля из ответа 400.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: статус %d: %s", e.StatusCode, e.Message)
}

// IsOverloaded сообщает, что сервер ответил "модель перегружена".
func (e *APIError) IsOverloaded() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

// Retryable классифицирует ошибку как переходную: 503 и прочие 5xx
// ретраятся, любые 4xx — терминальные.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}

// Generation — запись генерации в представлении API.
type Generation struct {
	ID        int64     `json:"id"`
	Prompt    string    `json:"prompt"`
	Style     string    `json:"style"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`
}

// Client — клиент API студии генераций.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient создает новый экземпляр клиента API.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// SetToken устанавливает bearer-токен для последующих запросов.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token возвращает текущий токен (пустая строка — не аутентифицирован).
func (c *Client) Token() string {
	return c.token
}

// doJSON выполняет запрос с JSON-телом и декодирует JSON-ответ в out.
// Не-2xx ответы превращаются в *APIError, отмена контекста — в ErrAborted.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка кодирования тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
		return fmt.Errorf("ошибка выполнения HTTP-запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		// Тело ошибки может отсутствовать или не быть JSON — статус важнее.
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			c.logger.Debug("failed to decode error body", "status", resp.StatusCode, "error", decodeErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования JSON ответа: %w", err)
	}
	return nil
}

// retryable классифицирует ошибку попытки: сетевые сбои и 5xx — переходные,
// отмена и 4xx — терминальные.
func retryable(err error) bool {
	if errors.Is(err, ErrAborted) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// Сетевая ошибка без HTTP-ответа.
	return true
}
