package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/GoArmGo/StudioApp/internal/core/ports"
	"github.com/GoArmGo/StudioApp/internal/domain"
)

// SimulationPolicy задает параметры симуляции генерации: равномерную
// искусственную задержку и вероятность ответа "модель перегружена".
// Rand и Sleep подменяются в тестах; nil означает значения по умолчанию.
type SimulationPolicy struct {
	OverloadProbability float64
	DelayMin            time.Duration
	DelayMax            time.Duration

	Rand  func() float64
	Sleep func(ctx context.Context, d time.Duration) error
}

// generationUseCase implements GenerationUseCase
type generationUseCase struct {
	generations ports.GenerationStorage
	images      ImagePersister
	sim         SimulationPolicy
	logger      *slog.Logger
}

// NewGenerationUseCase создает новый экземпляр GenerationUseCase.
func NewGenerationUseCase(
	generations ports.GenerationStorage,
	images ImagePersister,
	sim SimulationPolicy,
	logger *slog.Logger,
) GenerationUseCase {
	if sim.Rand == nil {
		sim.Rand = rand.Float64
	}
	if sim.Sleep == nil {
		sim.Sleep = sleepCtx
	}
	return &generationUseCase{
		generations: generations,
		images:      images,
		sim:         sim,
		logger:      logger,
	}
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

// Submit проводит заявку через конвейер генерации.
// Порядок шагов важен: перегрузка симулируется до обращения к хранилищам,
// поэтому отказ на этом шаге не оставляет частичного состояния.
func (uc *generationUseCase) Submit(ctx context.Context, userID int64, input SubmitInput) (*domain.Generation, error) {
	start := time.Now()

	if err := validateSubmitInput(input); err != nil {
		return nil, err
	}

	// Искусственная задержка моделирует время инференса.
	delay := uc.sim.DelayMin
	if uc.sim.DelayMax > uc.sim.DelayMin {
		delay += time.Duration(uc.sim.Rand() * float64(uc.sim.DelayMax-uc.sim.DelayMin))
	}
	if err := uc.sim.Sleep(ctx, delay); err != nil {
		return nil, fmt.Errorf("заявка отменена во время ожидания: %w", err)
	}

	if uc.sim.Rand() < uc.sim.OverloadProbability {
		uc.logger.Warn("simulated model overload",
			"user_id", userID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, domain.ErrModelOverloaded
	}

	ref, err := uc.images.Persist(ctx, input.ImageUpload, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка сохранения изображения: %w", err)
	}

	gen := &domain.Generation{
		UserID:   userID,
		Prompt:   input.Prompt,
		Style:    input.Style,
		ImageRef: &ref,
		Status:   domain.StatusSucceeded,
	}

	if err := uc.generations.InsertGeneration(ctx, gen); err != nil {
		// Критичный инвариант: файл без записи в БД не должен пережить запрос.
		// Компенсацию выполняем даже если контекст запроса уже отменен.
		cleanupCtx := context.WithoutCancel(ctx)
		if cleanupErr := uc.images.Remove(cleanupCtx, ref); cleanupErr != nil {
			uc.logger.Error("orphaned image cleanup failed",
				"ref", ref,
				"error", cleanupErr,
			)
		} else {
			uc.logger.Info("orphaned image cleaned up", "ref", ref)
		}
		return nil, fmt.Errorf("usecase: ошибка записи генерации: %w", err)
	}

	uc.logger.Info("generation submitted successfully",
		"id", gen.ID,
		"user_id", userID,
		"style", gen.Style,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return gen, nil
}

// ListRecent возвращает историю генераций, сверяя каждую ссылку на файл
// с реальностью в хранилище: протухшие ссылки обнуляются.
func (uc *generationUseCase) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.Generation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	generations, err := uc.generations.ListRecentGenerations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения истории генераций: %w", err)
	}

	for i := range generations {
		ref := generations[i].ImageRef
		if ref == nil {
			continue
		}
		exists, err := uc.images.Exists(ctx, *ref)
		if err != nil {
			uc.logger.Error("failed to check image existence", "ref", *ref, "error", err)
			generations[i].ImageRef = nil
			continue
		}
		if !exists {
			uc.logger.Warn("stale image reference, hiding from response",
				"generation_id", generations[i].ID,
				"ref", *ref,
			)
			generations[i].ImageRef = nil
		}
	}

	return generations, nil
}

// validateSubmitInput повторяет граничную проверку на уровне бизнес-логики:
// пустые поля не должны дойти до конвейера, даже если HTTP-слой их пропустил.
func validateSubmitInput(input SubmitInput) error {
	issues := make([]domain.FieldIssue, 0, 3)
	if strings.TrimSpace(input.Prompt) == "" {
		issues = append(issues, domain.FieldIssue{Field: "prompt", Message: "не может быть пустым"})
	}
	if strings.TrimSpace(input.Style) == "" {
		issues = append(issues, domain.FieldIssue{Field: "style", Message: "не может быть пустым"})
	}
	if input.ImageUpload == "" {
		issues = append(issues, domain.FieldIssue{Field: "imageUpload", Message: "не может быть пустым"})
	}
	if len(issues) > 0 {
		return &domain.ValidationError{Issues: issues}
	}
	return nil
}
