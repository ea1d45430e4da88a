package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Result итог одного прохода
type Result struct {
	Workers int
	Failed  int
}

// RegenerationJob продлевает горизонт слотов всех работников с действующими расписаниями
type RegenerationJob struct {
	workers      WorkerSource
	regenerator  Regenerator
	horizons     HorizonSource
	timeProvider TimeProvider
	logger       Logger
}

// NewRegenerationJob создает задачу перегенерации
func NewRegenerationJob(workers WorkerSource, regenerator Regenerator, horizons HorizonSource, logger Logger) *RegenerationJob {
	return &RegenerationJob{
		workers:      workers,
		regenerator:  regenerator,
		horizons:     horizons,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (j *RegenerationJob) WithTimeProvider(tp TimeProvider) *RegenerationJob {
	j.timeProvider = tp
	return j
}

// Run обходит работников по одному. Ошибка одного работника не останавливает проход.
// Работники ищутся на самом длинном горизонте, окно каждого считает сам Regenerator.
func (j *RegenerationJob) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	horizonDays, err := j.horizons.MaxHorizonDays(ctx)
	if err != nil {
		j.logger.Error("RegenerationJob: failed to resolve horizon: %v", err)
		return Result{}, fmt.Errorf("jobs: resolve horizon: %w", err)
	}
	from := types.DateOnly(j.timeProvider.Now().UTC())
	to := from.AddDate(0, 0, horizonDays)

	refs, err := j.workers.ListWorkersWithActiveSchedules(ctx, from, to)
	if err != nil {
		j.logger.Error("RegenerationJob: failed to list workers: %v", err)
		return Result{}, fmt.Errorf("jobs: list workers: %w", err)
	}

	var result Result
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			j.logger.Warn("RegenerationJob: interrupted after %d workers: %v", result.Workers, err)
			return result, err
		}

		result.Workers++
		if err := j.regenerator.RegenerateWindow(ctx, ref.WorkerID, ref.BusinessProfileID); err != nil {
			result.Failed++
			j.logger.Error("RegenerationJob: worker=%d, business=%d failed: %v", ref.WorkerID, ref.BusinessProfileID, err)
		}
	}

	j.logger.Info("RegenerationJob: processed %d workers, %d failed, took %s", result.Workers, result.Failed, time.Since(start))
	return result, nil
}
