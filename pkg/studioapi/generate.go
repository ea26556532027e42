package studioapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Параметры ретраев по умолчанию.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 400 * time.Millisecond
)

// SubmitRequest — параметры заявки на генерацию.
// ImageUpload — изображение в виде data-URL.
type SubmitRequest struct {
	Prompt      string `json:"prompt"`
	Style       string `json:"style"`
	ImageUpload string `json:"imageUpload"`
}

// RetryPolicy описывает политику повторов: количество попыток и
// экспоненциально растущую задержку между ними.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// backoff возвращает задержку перед попыткой, следующей за attempt (1-based).
// Задержка не убывает от попытки к попытке.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	return p.BaseDelay * (1 << (attempt - 1))
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	return p
}

// SubmitGeneration отправляет одну заявку на генерацию без ретраев.
func (c *Client) SubmitGeneration(ctx context.Context, req SubmitRequest) (*Generation, error) {
	var gen Generation
	if err := c.doJSON(ctx, http.MethodPost, "/generations", req, &gen); err != nil {
		return nil, err
	}
	return &gen, nil
}

// ListGenerations возвращает последние генерации пользователя.
// limit <= 0 означает лимит по умолчанию на сервере.
func (c *Client) ListGenerations(ctx context.Context, limit int) ([]Generation, error) {
	path := "/generations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var generations []Generation
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &generations); err != nil {
		return nil, err
	}
	return generations, nil
}

// SubmitWithRetry отправляет заявку с ретраями переходных ошибок.
//
// Политика: ретраятся только 503 и прочие 5xx (плюс сетевые сбои без
// HTTP-ответа); 4xx терминальны с первой попытки. Отмена контекста —
// во время запроса или ожидания между попытками — немедленно возвращает
// ErrAborted. Попытки строго последовательны. После провала последней
// попытки ее ошибка возвращается как есть, без обертки.
//
// onRetry, если задан, вызывается с номером только что провалившейся
// попытки (1-based) перед ожиданием следующей.
func (c *Client) SubmitWithRetry(ctx context.Context, req SubmitRequest, policy RetryPolicy, onRetry func(attempt int)) (*Generation, error) {
	policy = policy.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		gen, err := c.SubmitGeneration(ctx, req)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("generation submitted after retries", "attempts", attempt)
			}
			return gen, nil
		}
		lastErr = err

		if errors.Is(err, ErrAborted) {
			return nil, err
		}
		if !retryable(err) || attempt == policy.MaxAttempts {
			return nil, err
		}

		c.logger.Warn("transient failure, will retry",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"error", err,
		)
		if onRetry != nil {
			onRetry(attempt)
		}

		if err := sleepCtx(ctx, policy.backoff(attempt)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAborted, err)
		}
	}

	return nil, lastErr
}

// SubmitAndSync отправляет заявку с ретраями и после любого исхода, кроме
// отмены, перечитывает историю с сервера — локальное состояние не должно
// расходиться с серверным (например, если запись создана после таймаута
// на стороне клиента).
//
// Ошибка отправки возвращается как есть; история — по возможности.
func (c *Client) SubmitAndSync(ctx context.Context, req SubmitRequest, policy RetryPolicy, onRetry func(attempt int)) (*Generation, []Generation, error) {
	gen, submitErr := c.SubmitWithRetry(ctx, req, policy, onRetry)

	if errors.Is(submitErr, ErrAborted) {
		return nil, nil, submitErr
	}

	history, histErr := c.ListGenerations(ctx, 0)
	if histErr != nil {
		c.logger.Warn("failed to refresh history after submit", "error", histErr)
	}

	return gen, history, submitErr
}

// sleepCtx ждет d или отмены контекста.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
