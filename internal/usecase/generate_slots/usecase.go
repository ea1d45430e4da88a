package generate_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// UseCase генератор слотов по расписаниям работника
type UseCase struct {
	scheduleRepo ScheduleRepository
	slotRepo     SlotRepository
	workerRepo   WorkerRepository
	settings     SettingsProvider
	locker       Locker
	lockTTL      time.Duration
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	scheduleRepo ScheduleRepository,
	slotRepo SlotRepository,
	workerRepo WorkerRepository,
	settings SettingsProvider,
	locker Locker,
	lockTTL time.Duration,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		scheduleRepo: scheduleRepo,
		slotRepo:     slotRepo,
		workerRepo:   workerRepo,
		settings:     settings,
		locker:       locker,
		lockTTL:      lockTTL,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute перегенерирует слоты работника в диапазоне [From, To).
// Ручные и забронированные слоты не трогаются, устаревшие сгенерированные удаляются,
// совпадающие остаются с прежними id. Весь диапазон меняется одной транзакцией,
// повторный запуск без изменений расписания ничего не меняет.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GenerateSlots: worker=%d, business=%d, range=%s - %s",
		req.WorkerID, req.BusinessProfileID, req.From.UTC().Format(time.RFC3339), req.To.UTC().Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GenerateSlots: validation failed: %v", err)
		return nil, err
	}
	rng := domain.TimeRange{Start: req.From.UTC(), End: req.To.UTC()}

	// 2. Работник должен принадлежать бизнесу
	belongs, err := uc.workerRepo.BelongsToBusiness(ctx, req.WorkerID, req.BusinessProfileID)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to check worker=%d: %v", req.WorkerID, err)
		return nil, fmt.Errorf("%w: failed to check worker: %v", ErrInternal, err)
	}
	if !belongs {
		uc.logger.Warn("GenerateSlots: worker=%d does not belong to business=%d", req.WorkerID, req.BusinessProfileID)
		return nil, domain.ErrWorkerNotFound
	}

	// 3. Длительность слота: из запроса или из настроек
	duration := 0
	if req.SlotDurationMinutes != nil {
		duration = *req.SlotDurationMinutes
	} else {
		settings, err := uc.settings.Resolve(ctx, req.BusinessProfileID, req.WorkerID)
		if err != nil {
			uc.logger.Error("GenerateSlots: failed to resolve settings: %v", err)
			return nil, fmt.Errorf("%w: failed to resolve settings: %v", ErrInternal, err)
		}
		duration = settings.SlotDurationMinutes
	}

	// 4. Один генератор на работника
	release, err := uc.locker.Acquire(ctx, lock.WorkerKey(req.WorkerID), uc.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			uc.logger.Warn("GenerateSlots: worker=%d is locked by another generation", req.WorkerID)
			return nil, domain.ErrWorkerBusy
		}
		return nil, fmt.Errorf("%w: failed to acquire worker lock: %v", ErrInternal, err)
	}
	defer release()

	started := uc.timeProvider.Now()
	resp := &Response{
		WorkerID:            req.WorkerID,
		From:                rng.Start,
		To:                  rng.End,
		SlotDurationMinutes: duration,
	}

	// 5. Пересчет диапазона в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		plan, err := uc.plan(txCtx, req, rng, time.Duration(duration)*time.Minute)
		if err != nil {
			return err
		}

		if len(plan.Delete) > 0 {
			ids := make([]int64, 0, len(plan.Delete))
			for _, s := range plan.Delete {
				ids = append(ids, s.ID)
			}
			if _, err := uc.slotRepo.DeleteByIDs(txCtx, ids); err != nil {
				return fmt.Errorf("%w: failed to delete stale slots: %v", ErrInternal, err)
			}
		}

		if len(plan.Insert) > 0 {
			if err := uc.slotRepo.CreateBatch(txCtx, plan.Insert); err != nil {
				return fmt.Errorf("%w: failed to insert slots: %v", ErrInternal, err)
			}
		}

		// повтор транзакции перезаписывает счетчики
		resp.Inserted = len(plan.Insert)
		resp.Deleted = len(plan.Delete)
		resp.Kept = len(plan.Keep)
		return nil
	})

	// 6. Метрики
	uc.metrics.ObserveGeneration(resp.Inserted, resp.Deleted, err, uc.timeProvider.Now().Sub(started))

	if err != nil {
		uc.logger.Error("GenerateSlots: worker=%d failed: %v", req.WorkerID, err)
		return nil, err
	}

	uc.logger.Info("GenerateSlots: worker=%d inserted=%d, deleted=%d, kept=%d",
		req.WorkerID, resp.Inserted, resp.Deleted, resp.Kept)
	return resp, nil
}

// RegenerateWindow перегенерирует слоты работника на горизонт из настроек, начиная с текущих суток
func (uc *UseCase) RegenerateWindow(ctx context.Context, workerID, businessProfileID int64) error {
	settings, err := uc.settings.Resolve(ctx, businessProfileID, workerID)
	if err != nil {
		return fmt.Errorf("%w: failed to resolve settings: %v", ErrInternal, err)
	}

	from := types.DateOnly(uc.timeProvider.Now().UTC())
	_, err = uc.Execute(ctx, &Request{
		WorkerID:            workerID,
		BusinessProfileID:   businessProfileID,
		From:                from,
		To:                  from.AddDate(0, 0, settings.HorizonDays),
		SlotDurationMinutes: &settings.SlotDurationMinutes,
	})
	return err
}

func (uc *UseCase) plan(ctx context.Context, req *Request, rng domain.TimeRange, slotDuration time.Duration) (availability.Plan, error) {
	// 5.1. Блокировка работника в БД
	if err := uc.slotRepo.LockWorker(ctx, req.WorkerID); err != nil {
		return availability.Plan{}, fmt.Errorf("%w: failed to lock worker: %v", ErrInternal, err)
	}

	// 5.2. Расписания с запасом в сутки: локальная дата может сдвинуться относительно UTC
	schedules, err := uc.scheduleRepo.ListActiveByWorker(ctx, req.WorkerID, req.BusinessProfileID,
		types.DateOnly(rng.Start).AddDate(0, 0, -1), types.DateOnly(rng.End).AddDate(0, 0, 1))
	if err != nil {
		return availability.Plan{}, fmt.Errorf("%w: failed to load schedules: %v", ErrInternal, err)
	}
	windows := availability.WorkerWindows(schedules, rng)

	// 5.3. Все слоты работника, пересекающие диапазон; слоты других бизнесов только блокируют время
	existing, err := uc.slotRepo.List(ctx, domain.SlotFilter{WorkerID: req.WorkerID, Range: rng})
	if err != nil {
		return availability.Plan{}, fmt.Errorf("%w: failed to load slots: %v", ErrInternal, err)
	}
	blockers, replaceable := availability.Partition(existing, rng, req.BusinessProfileID)

	// 5.4. Разница между желаемым и текущим набором
	return availability.BuildPlan(availability.PlanInput{
		WorkerID:          req.WorkerID,
		BusinessProfileID: req.BusinessProfileID,
		Windows:           windows,
		Blockers:          blockers,
		Replaceable:       replaceable,
		SlotDuration:      slotDuration,
	}), nil
}
